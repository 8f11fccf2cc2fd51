package main

import (
	"FlowTagger/internal/config"
	"FlowTagger/internal/pipeline"
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	// 1. Parse command-line flags
	configPath := flag.String("config", "", "Optional path to a YAML config file.")
	lookupFile := flag.String("lookup_file", config.DefaultLookupFile, "Path to the CSV file containing port, protocol, and tag mappings.")
	protocolFile := flag.String("protocol_file", config.DefaultProtocolFile, "Path to the CSV file containing protocol number to protocol name mappings.")
	flowLogFile := flag.String("flow_log_file", config.DefaultFlowLogFile, "Path to the flow log file.")
	outputFile := flag.String("output_file", config.DefaultOutputFile, "Path to the file where results should be saved.")
	flag.Parse()

	// 2. Load configuration; explicitly set flags win over the config file
	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadConfig(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		log.Printf("Configuration loaded from %s.", *configPath)
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "lookup_file":
			cfg.Input.LookupFile = *lookupFile
		case "protocol_file":
			cfg.Input.ProtocolFile = *protocolFile
		case "flow_log_file":
			cfg.Input.FlowLogFile = *flowLogFile
		case "output_file":
			cfg.Input.OutputFile = *outputFile
		}
	})

	// 3. Initialize the pipeline
	runner, err := pipeline.NewRunner(cfg)
	if err != nil {
		log.Fatalf("Failed to create pipeline: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	// 4. Run load -> process -> write
	_, err = runner.Run(ctx)
	runner.Close()
	stop()
	if err != nil {
		log.Fatalf("Run failed: %v", err)
	}
}
