package flowlog

import (
	"bytes"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

var (
	srcMAC = net.HardwareAddr{0x00, 0x11, 0x22, 0x33, 0x44, 0x55}
	dstMAC = net.HardwareAddr{0x00, 0x66, 0x77, 0x88, 0x99, 0xAA}
)

func serialize(t *testing.T, ls ...gopacket.SerializableLayer) []byte {
	t.Helper()
	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{ComputeChecksums: true, FixLengths: true}
	if err := gopacket.SerializeLayers(buf, opts, ls...); err != nil {
		t.Fatalf("Failed to serialize layers: %v", err)
	}
	return buf.Bytes()
}

func ipv4(proto layers.IPProtocol, src, dst string) *layers.IPv4 {
	return &layers.IPv4{
		Version:  4,
		TTL:      64,
		Protocol: proto,
		SrcIP:    net.ParseIP(src).To4(),
		DstIP:    net.ParseIP(dst).To4(),
	}
}

func tcpPacket(t *testing.T, src, dst string, sport, dport uint16) []byte {
	eth := &layers.Ethernet{SrcMAC: srcMAC, DstMAC: dstMAC, EthernetType: layers.EthernetTypeIPv4}
	ip := ipv4(layers.IPProtocolTCP, src, dst)
	tcp := &layers.TCP{SrcPort: layers.TCPPort(sport), DstPort: layers.TCPPort(dport), SYN: true, Window: 14600}
	tcp.SetNetworkLayerForChecksum(ip)
	return serialize(t, eth, ip, tcp, gopacket.Payload([]byte("hello")))
}

func udpPacket(t *testing.T, src, dst string, sport, dport uint16) []byte {
	eth := &layers.Ethernet{SrcMAC: srcMAC, DstMAC: dstMAC, EthernetType: layers.EthernetTypeIPv4}
	ip := ipv4(layers.IPProtocolUDP, src, dst)
	udp := &layers.UDP{SrcPort: layers.UDPPort(sport), DstPort: layers.UDPPort(dport)}
	udp.SetNetworkLayerForChecksum(ip)
	return serialize(t, eth, ip, udp, gopacket.Payload([]byte("q")))
}

func icmpPacket(t *testing.T, src, dst string) []byte {
	eth := &layers.Ethernet{SrcMAC: srcMAC, DstMAC: dstMAC, EthernetType: layers.EthernetTypeIPv4}
	ip := ipv4(layers.IPProtocolICMPv4, src, dst)
	icmp := &layers.ICMPv4{TypeCode: layers.CreateICMPv4TypeCode(layers.ICMPv4TypeEchoRequest, 0)}
	return serialize(t, eth, ip, icmp)
}

func arpPacket(t *testing.T) []byte {
	eth := &layers.Ethernet{SrcMAC: srcMAC, DstMAC: layers.EthernetBroadcast, EthernetType: layers.EthernetTypeARP}
	arp := &layers.ARP{
		AddrType:          layers.LinkTypeEthernet,
		Protocol:          layers.EthernetTypeIPv4,
		HwAddressSize:     6,
		ProtAddressSize:   4,
		Operation:         layers.ARPRequest,
		SourceHwAddress:   srcMAC,
		SourceProtAddress: net.ParseIP("10.0.0.1").To4(),
		DstHwAddress:      net.HardwareAddr{0, 0, 0, 0, 0, 0},
		DstProtAddress:    net.ParseIP("10.0.0.2").To4(),
	}
	return serialize(t, eth, arp)
}

func writePcap(t *testing.T, start time.Time, packets ...[]byte) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	w := pcapgo.NewWriter(&buf)
	if err := w.WriteFileHeader(65536, layers.LinkTypeEthernet); err != nil {
		t.Fatalf("Failed to write pcap header: %v", err)
	}
	for i, data := range packets {
		ci := gopacket.CaptureInfo{
			Timestamp:     start.Add(time.Duration(i) * time.Second),
			CaptureLength: len(data),
			Length:        len(data),
		}
		if err := w.WritePacket(ci, data); err != nil {
			t.Fatalf("Failed to write packet: %v", err)
		}
	}
	return &buf
}

func TestConverter_ReadPcap(t *testing.T) {
	start := time.Unix(1620140000, 0)
	first := tcpPacket(t, "10.0.0.1", "10.0.0.2", 49152, 443)
	buf := writePcap(t, start,
		first,
		udpPacket(t, "10.0.0.3", "10.0.0.53", 5353, 53),
		arpPacket(t),
		tcpPacket(t, "10.0.0.1", "10.0.0.2", 49152, 443),
		icmpPacket(t, "10.0.0.1", "8.8.8.8"),
	)

	c := NewConverter("123456789012", "eni-test")
	if err := c.ReadPcap(buf); err != nil {
		t.Fatalf("ReadPcap failed: %v", err)
	}
	if c.Skipped() != 1 {
		t.Errorf("Expected the ARP frame to be skipped, got %d skipped", c.Skipped())
	}

	records := c.Records()
	if len(records) != 3 {
		t.Fatalf("Expected 3 flows, got %d", len(records))
	}

	tcp := records[0]
	if tcp.DstPort != 443 || tcp.SrcPort != 49152 || tcp.Protocol != 6 {
		t.Errorf("Unexpected TCP flow: %+v", tcp)
	}
	if tcp.Packets != 2 || tcp.Bytes != uint64(2*len(first)) {
		t.Errorf("Expected 2 packets / %d bytes, got %d / %d", 2*len(first), tcp.Packets, tcp.Bytes)
	}
	if tcp.Start != start.Unix() || tcp.End != start.Unix()+3 {
		t.Errorf("Unexpected flow window %d-%d", tcp.Start, tcp.End)
	}
	if tcp.AccountID != "123456789012" || tcp.InterfaceID != "eni-test" || tcp.Version != 2 {
		t.Errorf("Record not stamped with converter ids: %+v", tcp)
	}

	if records[1].DstPort != 53 || records[1].Protocol != 17 {
		t.Errorf("Unexpected UDP flow: %+v", records[1])
	}
	if records[2].Protocol != 1 || records[2].DstPort != 0 {
		t.Errorf("Expected ICMP flow with port 0, got %+v", records[2])
	}
}

func TestWriteRecords_ParsesBack(t *testing.T) {
	buf := writePcap(t, time.Unix(1620140000, 0), tcpPacket(t, "192.168.1.10", "203.0.113.5", 40000, 80))
	c := NewConverter("123456789012", "eni-0a1b2c3d")
	if err := c.ReadPcap(buf); err != nil {
		t.Fatalf("ReadPcap failed: %v", err)
	}

	var out strings.Builder
	if err := WriteRecords(&out, c.Records()); err != nil {
		t.Fatalf("WriteRecords failed: %v", err)
	}

	line := strings.TrimSuffix(out.String(), "\n")
	r, err := Parse(line)
	if err != nil {
		t.Fatalf("Generated line does not parse: %v (%q)", err, line)
	}
	if r.DstPort != 80 || r.Protocol != 6 {
		t.Errorf("Unexpected parsed record: %+v", r)
	}
}

func TestConverter_ReadPcap_NotPcap(t *testing.T) {
	c := NewConverter("1", "eni")
	if err := c.ReadPcap(strings.NewReader("definitely not a pcap file")); err == nil {
		t.Fatal("Expected error for a non-pcap stream")
	}
}

// udp6WithExtensions builds an IPv6 UDP frame carrying a hop-by-hop and a
// destination options header in front of the UDP header.
func udp6WithExtensions(t *testing.T, sport, dport uint16) []byte {
	eth := &layers.Ethernet{SrcMAC: srcMAC, DstMAC: dstMAC, EthernetType: layers.EthernetTypeIPv6}
	ip := &layers.IPv6{
		Version:    6,
		HopLimit:   64,
		NextHeader: layers.IPProtocolIPv6HopByHop,
		SrcIP:      net.ParseIP("2001:db8::1"),
		DstIP:      net.ParseIP("2001:db8::53"),
	}
	hopByHop := []byte{byte(layers.IPProtocolIPv6Destination), 0, 1, 4, 0, 0, 0, 0}
	destination := []byte{byte(layers.IPProtocolUDP), 0, 1, 4, 0, 0, 0, 0}
	udp := []byte{byte(sport >> 8), byte(sport), byte(dport >> 8), byte(dport), 0, 8, 0, 0}

	payload := append(append(hopByHop, destination...), udp...)
	return serialize(t, eth, ip, gopacket.Payload(payload))
}

func TestConverter_IPv6ExtensionHeaders(t *testing.T) {
	c := NewConverter("1", "eni")
	data := udp6WithExtensions(t, 5353, 53)
	ci := gopacket.CaptureInfo{Timestamp: time.Unix(1620140000, 0), CaptureLength: len(data), Length: len(data)}
	if err := c.AddPacket(data, ci, layers.LinkTypeEthernet); err != nil {
		t.Fatalf("AddPacket failed: %v", err)
	}

	records := c.Records()
	if len(records) != 1 {
		t.Fatalf("Expected 1 flow, got %d", len(records))
	}
	if records[0].Protocol != uint8(layers.IPProtocolUDP) {
		t.Errorf("Expected protocol %d past the extension headers, got %d", layers.IPProtocolUDP, records[0].Protocol)
	}
	if records[0].DstPort != 53 || records[0].SrcPort != 5353 {
		t.Errorf("Unexpected ports: %+v", records[0])
	}
	if !records[0].DstAddr.Equal(net.ParseIP("2001:db8::53")) {
		t.Errorf("Unexpected destination %v", records[0].DstAddr)
	}
}
