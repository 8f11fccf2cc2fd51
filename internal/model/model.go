package model

import (
	"FlowTagger/internal/engine/statistic"
	"strconv"
)

const (
	// UnknownProtocol is the name a protocol id resolves to when the protocol table has no entry for it.
	UnknownProtocol = "other"
	// Untagged is the tag a (port, protocol) pair resolves to when the classification table has no entry for it.
	Untagged = "untagged"
)

// PortProtocol is the key flows are grouped by: destination port plus the resolved protocol name.
type PortProtocol struct {
	Port     uint16
	Protocol string
}

// String returns the key as "port/protocol", e.g. "443/tcp".
func (k PortProtocol) String() string {
	return strconv.Itoa(int(k.Port)) + "/" + k.Protocol
}

// ProcessStats records how every input line of a run was accounted for.
type ProcessStats struct {
	Lines      uint64 `json:"lines"`   // all lines read, including skipped ones
	Counted    uint64 `json:"counted"` // lines that contributed to both counters
	Blank      uint64 `json:"blank"`
	ShortLines uint64 `json:"short_lines"` // fewer fields than a flow record needs
	BadPorts   uint64 `json:"bad_ports"`   // destination port is not a valid port number
	LongLines  uint64 `json:"long_lines"`  // over the line size limit, skipped unparsed
}

// Skipped returns the number of non-blank lines that did not contribute to the counters.
func (s ProcessStats) Skipped() uint64 {
	return s.ShortLines + s.BadPorts + s.LongLines
}

// Result holds the output of a single aggregation pass.
// Both counters iterate in first-seen order.
type Result struct {
	Tags          *statistic.Counter[string]
	PortProtocols *statistic.Counter[PortProtocol]
	Stats         ProcessStats
}

// NewResult creates an empty Result with fresh counters.
func NewResult() *Result {
	return &Result{
		Tags:          statistic.NewCounter[string](),
		PortProtocols: statistic.NewCounter[PortProtocol](),
	}
}
