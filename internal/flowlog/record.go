package flowlog

import (
	"FlowTagger/internal/model"
	"fmt"
	"net"
	"strconv"
	"strings"
)

// NumFields is the number of space-separated fields in a version 2 flow log record.
const NumFields = 14

// Record is one version 2 VPC flow log record:
// version account-id interface-id srcaddr dstaddr srcport dstport protocol packets bytes start end action log-status
type Record struct {
	Version     int
	AccountID   string
	InterfaceID string
	SrcAddr     net.IP
	DstAddr     net.IP
	SrcPort     uint16
	DstPort     uint16
	Protocol    uint8
	Packets     uint64
	Bytes       uint64
	Start       int64 // unix seconds
	End         int64 // unix seconds
	Action      string
	LogStatus   string
}

// String formats the record as a single flow log line without a trailing newline.
func (r Record) String() string {
	var b strings.Builder
	b.Grow(128)
	b.WriteString(strconv.Itoa(r.Version))
	for _, f := range []string{
		r.AccountID,
		r.InterfaceID,
		r.SrcAddr.String(),
		r.DstAddr.String(),
		strconv.FormatUint(uint64(r.SrcPort), 10),
		strconv.FormatUint(uint64(r.DstPort), 10),
		strconv.FormatUint(uint64(r.Protocol), 10),
		strconv.FormatUint(r.Packets, 10),
		strconv.FormatUint(r.Bytes, 10),
		strconv.FormatInt(r.Start, 10),
		strconv.FormatInt(r.End, 10),
		r.Action,
		r.LogStatus,
	} {
		b.WriteByte(' ')
		b.WriteString(f)
	}
	return b.String()
}

// Parse parses a full 14-field flow log line.
func Parse(line string) (Record, error) {
	fields := strings.Fields(line)
	if len(fields) != NumFields {
		return Record{}, fmt.Errorf("%w: expected %d fields, got %d", model.ErrFormat, NumFields, len(fields))
	}

	var (
		r   Record
		err error
	)
	parseErr := func(name, value string) error {
		return fmt.Errorf("%w: invalid %s %q", model.ErrParse, name, value)
	}

	if r.Version, err = strconv.Atoi(fields[0]); err != nil {
		return Record{}, parseErr("version", fields[0])
	}
	r.AccountID = fields[1]
	r.InterfaceID = fields[2]
	if r.SrcAddr = net.ParseIP(fields[3]); r.SrcAddr == nil {
		return Record{}, parseErr("srcaddr", fields[3])
	}
	if r.DstAddr = net.ParseIP(fields[4]); r.DstAddr == nil {
		return Record{}, parseErr("dstaddr", fields[4])
	}

	ports := [2]*uint16{&r.SrcPort, &r.DstPort}
	for i, name := range []string{"srcport", "dstport"} {
		v, err := strconv.ParseUint(fields[5+i], 10, 16)
		if err != nil {
			return Record{}, parseErr(name, fields[5+i])
		}
		*ports[i] = uint16(v)
	}

	proto, err := strconv.ParseUint(fields[7], 10, 8)
	if err != nil {
		return Record{}, parseErr("protocol", fields[7])
	}
	r.Protocol = uint8(proto)

	if r.Packets, err = strconv.ParseUint(fields[8], 10, 64); err != nil {
		return Record{}, parseErr("packets", fields[8])
	}
	if r.Bytes, err = strconv.ParseUint(fields[9], 10, 64); err != nil {
		return Record{}, parseErr("bytes", fields[9])
	}
	if r.Start, err = strconv.ParseInt(fields[10], 10, 64); err != nil {
		return Record{}, parseErr("start", fields[10])
	}
	if r.End, err = strconv.ParseInt(fields[11], 10, 64); err != nil {
		return Record{}, parseErr("end", fields[11])
	}
	r.Action = fields[12]
	r.LogStatus = fields[13]
	return r, nil
}
