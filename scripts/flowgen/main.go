package main

import (
	"FlowTagger/internal/flowlog"
	"bufio"
	"flag"
	"log"
	"math/rand/v2"
	"os"
	"time"
)

func main() {
	outputFile := flag.String("o", "flow-log.log", "Output flow log file path")
	recordCount := flag.Int("c", 100000, "Number of random records to generate")
	pcapFile := flag.String("pcap", "", "Convert this pcap capture instead of generating random records")
	accountID := flag.String("account", "123456789012", "Account id stamped on converted records")
	interfaceID := flag.String("eni", "eni-0a1b2c3d", "Interface id stamped on converted records")
	seed := flag.Uint64("seed", uint64(time.Now().UnixNano()), "Random seed")
	checkFile := flag.String("check", "", "Validate this flow log file instead of writing one")
	flag.Parse()

	if *checkFile != "" {
		check(*checkFile)
		return
	}

	f, err := os.Create(*outputFile)
	if err != nil {
		log.Fatalf("Failed to create output file: %v", err)
	}
	defer f.Close()
	w := bufio.NewWriter(f)

	if *pcapFile != "" {
		in, err := os.Open(*pcapFile)
		if err != nil {
			log.Fatalf("Failed to open pcap file: %v", err)
		}
		defer in.Close()

		conv := flowlog.NewConverter(*accountID, *interfaceID)
		if err := conv.ReadPcap(bufio.NewReader(in)); err != nil {
			log.Fatalf("Failed to convert pcap: %v", err)
		}
		records := conv.Records()
		if err := flowlog.WriteRecords(w, records); err != nil {
			log.Fatalf("Failed to write records: %v", err)
		}
		if err := w.Flush(); err != nil {
			log.Fatalf("Failed to flush output: %v", err)
		}
		log.Printf("Converted %s into %d flow records in %s.", *pcapFile, len(records), *outputFile)
		return
	}

	gen := flowlog.NewGenerator(flowlog.DefaultGeneratorConfig(), rand.New(rand.NewPCG(*seed, *seed>>1)))
	log.Printf("Generating %d records into %s...", *recordCount, *outputFile)
	for i := 0; i < *recordCount; i++ {
		if _, err := w.WriteString(gen.Next().String() + "\n"); err != nil {
			log.Fatalf("Failed to write record: %v", err)
		}
		if (i+1)%100000 == 0 {
			log.Printf("Generated %d records...", i+1)
		}
	}
	if err := w.Flush(); err != nil {
		log.Fatalf("Failed to flush output: %v", err)
	}
	log.Printf("Successfully generated %d records into %s.", *recordCount, *outputFile)
}

// check validates every line of a flow log file and exits non-zero if any is invalid.
func check(path string) {
	f, err := os.Open(path)
	if err != nil {
		log.Fatalf("Failed to open flow log: %v", err)
	}
	defer f.Close()

	report, err := flowlog.Check(f, 20)
	if err != nil {
		log.Fatalf("Failed to check %s: %v", path, err)
	}
	for _, lineErr := range report.Errors {
		log.Printf("Invalid record: %v", lineErr)
	}
	if report.Invalid > 0 {
		log.Fatalf("%s: %d of %d records are invalid.", path, report.Invalid, report.Records)
	}
	log.Printf("%s: all %d records are valid.", path, report.Records)
}
