package flowlog

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

// errNotIP is returned for packets without an IPv4 or IPv6 layer.
var errNotIP = errors.New("not an IP packet")

type flowKey struct {
	src, dst         string
	srcPort, dstPort uint16
	protocol         uint8
}

// Converter groups captured packets into flows and turns each flow into a flow log record.
// Records come out in the order their flows were first seen.
type Converter struct {
	accountID   string
	interfaceID string
	flows       map[flowKey]*Record
	order       []flowKey
	skipped     int
}

// NewConverter creates a Converter that stamps every record with the given account and interface ids.
func NewConverter(accountID, interfaceID string) *Converter {
	return &Converter{
		accountID:   accountID,
		interfaceID: interfaceID,
		flows:       make(map[flowKey]*Record),
	}
}

// AddPacket decodes a single captured frame and adds it to its flow.
func (c *Converter) AddPacket(data []byte, ci gopacket.CaptureInfo, linkType layers.LinkType) error {
	packet := gopacket.NewPacket(data, linkType, gopacket.DecodeOptions{Lazy: true, NoCopy: true})

	var key flowKey
	switch ip := packet.NetworkLayer().(type) {
	case *layers.IPv4:
		key.src, key.dst, key.protocol = ip.SrcIP.String(), ip.DstIP.String(), uint8(ip.Protocol)
	case *layers.IPv6:
		key.src, key.dst, key.protocol = ip.SrcIP.String(), ip.DstIP.String(), uint8(upperLayerProtocol(packet, ip))
	default:
		c.skipped++
		return errNotIP
	}

	switch l4 := packet.TransportLayer().(type) {
	case *layers.TCP:
		key.srcPort, key.dstPort = uint16(l4.SrcPort), uint16(l4.DstPort)
	case *layers.UDP:
		key.srcPort, key.dstPort = uint16(l4.SrcPort), uint16(l4.DstPort)
	case *layers.SCTP:
		key.srcPort, key.dstPort = uint16(l4.SrcPort), uint16(l4.DstPort)
	}

	length := ci.Length
	if length == 0 {
		length = len(data)
	}
	ts := ci.Timestamp.Unix()

	if rec, ok := c.flows[key]; ok {
		rec.Packets++
		rec.Bytes += uint64(length)
		rec.End = max(rec.End, ts)
		rec.Start = min(rec.Start, ts)
		return nil
	}

	c.flows[key] = &Record{
		Version:     2,
		AccountID:   c.accountID,
		InterfaceID: c.interfaceID,
		SrcAddr:     net.ParseIP(key.src),
		DstAddr:     net.ParseIP(key.dst),
		SrcPort:     key.srcPort,
		DstPort:     key.dstPort,
		Protocol:    key.protocol,
		Packets:     1,
		Bytes:       uint64(length),
		Start:       ts,
		End:         ts,
		Action:      "ACCEPT",
		LogStatus:   "OK",
	}
	c.order = append(c.order, key)
	return nil
}

// upperLayerProtocol follows the IPv6 extension header chain to the protocol it carries.
func upperLayerProtocol(packet gopacket.Packet, ip *layers.IPv6) layers.IPProtocol {
	proto := ip.NextHeader
	for _, l := range packet.Layers() {
		switch ext := l.(type) {
		case *layers.IPv6HopByHop:
			proto = ext.NextHeader
		case *layers.IPv6Routing:
			proto = ext.NextHeader
		case *layers.IPv6Destination:
			proto = ext.NextHeader
		case *layers.IPv6Fragment:
			proto = ext.NextHeader
		}
	}
	return proto
}

// Records returns one record per flow in first-seen order.
func (c *Converter) Records() []Record {
	records := make([]Record, len(c.order))
	for i, key := range c.order {
		records[i] = *c.flows[key]
	}
	return records
}

// Skipped returns the number of packets that carried no IP layer.
func (c *Converter) Skipped() int {
	return c.skipped
}

// ReadPcap reads every packet from a pcap stream into the converter.
func (c *Converter) ReadPcap(r io.Reader) error {
	reader, err := pcapgo.NewReader(r)
	if err != nil {
		return fmt.Errorf("failed to open pcap stream: %w", err)
	}
	linkType := reader.LinkType()

	for {
		data, ci, err := reader.ReadPacketData()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read packet: %w", err)
		}
		// Non-IP frames (ARP, LLDP, ...) have no flow log representation.
		_ = c.AddPacket(data, ci, linkType)
	}
	if c.skipped > 0 {
		log.Printf("Skipped %d non-IP packets.", c.skipped)
	}
	return nil
}

// WriteRecords writes one line per record to w.
func WriteRecords(w io.Writer, records []Record) error {
	for _, rec := range records {
		if _, err := io.WriteString(w, rec.String()+"\n"); err != nil {
			return fmt.Errorf("failed to write flow record: %w", err)
		}
	}
	return nil
}
