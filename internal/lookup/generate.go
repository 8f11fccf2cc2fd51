package lookup

import (
	"encoding/csv"
	"fmt"
	"io"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/google/gopacket/layers"
)

// ianaKeywords renames gopacket protocol names to the IANA keywords used in protocol-numbers.csv.
var ianaKeywords = map[string]string{
	"ipv6hopbyhop":    "hopopt",
	"icmpv4":          "icmp",
	"ipv6routing":     "ipv6-route",
	"ipv6fragment":    "ipv6-frag",
	"icmpv6":          "ipv6-icmp",
	"nonextheader":    "ipv6-nonxt",
	"ipv6destination": "ipv6-opts",
	"mplsinip":        "mpls-in-ip",
}

// ProtocolEntry is one row of a protocol table.
type ProtocolEntry struct {
	ID   uint8
	Name string
}

// KnownProtocols lists the IP protocols gopacket can decode, by protocol number.
func KnownProtocols() []ProtocolEntry {
	var entries []ProtocolEntry
	for i := 0; i < 256; i++ {
		name := strings.ToLower(layers.IPProtocol(i).String())
		if name == "" || strings.HasPrefix(name, "unknown") {
			continue
		}
		if keyword, ok := ianaKeywords[name]; ok {
			name = keyword
		}
		entries = append(entries, ProtocolEntry{ID: uint8(i), Name: name})
	}
	return entries
}

// WriteProtocolTable writes entries in the headerless "<id>,<name>" format LoadProtocolTable reads.
func WriteProtocolTable(w io.Writer, entries []ProtocolEntry) error {
	cw := csv.NewWriter(w)
	for _, e := range entries {
		if err := cw.Write([]string{strconv.Itoa(int(e.ID)), e.Name}); err != nil {
			return fmt.Errorf("failed to write protocol row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteRandomClassificationTable writes a header and n random rows drawing from protocols and tags.
// Ports are in 1..65535; duplicates are possible, the same as in hand-maintained tables.
func WriteRandomClassificationTable(w io.Writer, rng *rand.Rand, n int, protocols, tags []string) error {
	if len(protocols) == 0 || len(tags) == 0 {
		return fmt.Errorf("at least one protocol and one tag are required")
	}
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{ColumnPort, ColumnProtocol, ColumnTag}); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i := 0; i < n; i++ {
		row := []string{
			strconv.Itoa(rng.IntN(65535) + 1),
			protocols[rng.IntN(len(protocols))],
			tags[rng.IntN(len(tags))],
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
