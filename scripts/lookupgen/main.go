package main

import (
	"FlowTagger/internal/lookup"
	"bufio"
	"flag"
	"log"
	"math/rand/v2"
	"os"
	"strings"
	"time"
)

func main() {
	outputFile := flag.String("o", "lookup_table.csv", "Output CSV file path")
	rowCount := flag.Int("c", 10000, "Number of classification rows to generate")
	protocols := flag.String("protocols", "tcp,udp,icmp", "Comma-separated protocol names for classification rows")
	tags := flag.String("tags", "sv_P1,sv_P2,sv_P3,sv_P4,sv_P5,email", "Comma-separated tags for classification rows")
	protocolTable := flag.Bool("protocol-table", false, "Write a protocol number table instead of a classification table")
	seed := flag.Uint64("seed", uint64(time.Now().UnixNano()), "Random seed")
	flag.Parse()

	f, err := os.Create(*outputFile)
	if err != nil {
		log.Fatalf("Failed to create output file: %v", err)
	}
	defer f.Close()
	w := bufio.NewWriter(f)

	if *protocolTable {
		entries := lookup.KnownProtocols()
		if err := lookup.WriteProtocolTable(w, entries); err != nil {
			log.Fatalf("Failed to write protocol table: %v", err)
		}
		if err := w.Flush(); err != nil {
			log.Fatalf("Failed to flush output: %v", err)
		}
		log.Printf("Wrote %d protocols to %s.", len(entries), *outputFile)
		return
	}

	rng := rand.New(rand.NewPCG(*seed, *seed>>1))
	err = lookup.WriteRandomClassificationTable(w, rng, *rowCount, strings.Split(*protocols, ","), strings.Split(*tags, ","))
	if err != nil {
		log.Fatalf("Failed to write classification table: %v", err)
	}
	if err := w.Flush(); err != nil {
		log.Fatalf("Failed to flush output: %v", err)
	}
	log.Printf("Lookup table with %d rows created in %s.", *rowCount, *outputFile)
}
