package flowlog

import (
	"math/rand/v2"
	"net"
)

// GeneratorConfig controls the shape of synthetic flow records.
type GeneratorConfig struct {
	AccountID    string
	InterfaceIDs []string
	Protocols    []uint8
	Actions      []string
	StartTime    int64 // lower bound of record timestamps, unix seconds
	TimeSpan     int64 // timestamps fall in [StartTime, StartTime+TimeSpan)
}

// DefaultGeneratorConfig mirrors the sample logs used for benchmarking the aggregator.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		AccountID: "123456789012",
		InterfaceIDs: []string{
			"eni-0a1b2c3d", "eni-4d3c2b1a", "eni-5e6f7g8h", "eni-9h8g7f6e", "eni-7i8j9k0l",
			"eni-6m7n8o9p", "eni-1a2b3c4d", "eni-5f6g7h8i", "eni-9k10l11m", "eni-2d2e2f3g", "eni-4h5i6j7k",
		},
		Protocols: []uint8{6, 17},
		Actions:   []string{"ACCEPT", "REJECT"},
		StartTime: 1620140000,
		TimeSpan:  10000,
	}
}

// Generator produces random but well-formed flow records.
type Generator struct {
	cfg GeneratorConfig
	rng *rand.Rand
}

// NewGenerator creates a Generator. Empty choice lists in cfg fall back to the defaults.
func NewGenerator(cfg GeneratorConfig, rng *rand.Rand) *Generator {
	def := DefaultGeneratorConfig()
	if cfg.AccountID == "" {
		cfg.AccountID = def.AccountID
	}
	if len(cfg.InterfaceIDs) == 0 {
		cfg.InterfaceIDs = def.InterfaceIDs
	}
	if len(cfg.Protocols) == 0 {
		cfg.Protocols = def.Protocols
	}
	if len(cfg.Actions) == 0 {
		cfg.Actions = def.Actions
	}
	if cfg.TimeSpan <= 0 {
		cfg.StartTime, cfg.TimeSpan = def.StartTime, def.TimeSpan
	}
	return &Generator{cfg: cfg, rng: rng}
}

// Next returns a new random record.
func (g *Generator) Next() Record {
	start := g.cfg.StartTime + g.rng.Int64N(g.cfg.TimeSpan)
	return Record{
		Version:     2,
		AccountID:   g.cfg.AccountID,
		InterfaceID: pick(g.rng, g.cfg.InterfaceIDs),
		SrcAddr:     g.randomIP(),
		DstAddr:     g.randomIP(),
		SrcPort:     uint16(g.rng.IntN(65535) + 1),
		DstPort:     uint16(g.rng.IntN(65535) + 1),
		Protocol:    pick(g.rng, g.cfg.Protocols),
		Packets:     uint64(g.rng.IntN(50) + 1),
		Bytes:       uint64(g.rng.IntN(19001) + 1000),
		Start:       start,
		End:         start + g.rng.Int64N(120),
		Action:      pick(g.rng, g.cfg.Actions),
		LogStatus:   "OK",
	}
}

func (g *Generator) randomIP() net.IP {
	return net.IPv4(byte(g.rng.IntN(246)+10), byte(g.rng.IntN(256)), byte(g.rng.IntN(256)), byte(g.rng.IntN(254)+1))
}

func pick[T any](rng *rand.Rand, choices []T) T {
	return choices[rng.IntN(len(choices))]
}
