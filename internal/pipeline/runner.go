package pipeline

import (
	"FlowTagger/internal/config"
	"FlowTagger/internal/engine/aggregator"
	"FlowTagger/internal/factory"
	"FlowTagger/internal/lookup"
	"FlowTagger/internal/model"
	"FlowTagger/internal/sink"
	"context"
	"fmt"
	"log"
	"os"
	"time"
)

// Runner executes one batch run: load both tables, aggregate the flow log, deliver the result.
type Runner struct {
	input config.InputConfig
	sinks []model.Sink
}

// NewRunner creates a Runner for cfg. The text report sink for cfg.Input.OutputFile is always present
// and comes first; enabled sinks from cfg.Sinks follow.
func NewRunner(cfg *config.Config) (*Runner, error) {
	extra, err := factory.Create(cfg.Sinks)
	if err != nil {
		return nil, err
	}
	sinks := append([]model.Sink{sink.NewTextSink(cfg.Input.OutputFile)}, extra...)
	return &Runner{input: cfg.Input, sinks: sinks}, nil
}

// Run performs the run. Errors loading the tables, reading the flow log, or writing the text report
// abort the run; failures of the additional sinks are logged only.
func (r *Runner) Run(ctx context.Context) (*model.Result, error) {
	start := time.Now()
	runID := start.UTC().Format("20060102T150405.000Z")

	agg, err := r.loadAggregator()
	if err != nil {
		return nil, err
	}

	result, err := r.processFlowLog(agg)
	if err != nil {
		return nil, err
	}
	log.Printf("Processed %d lines from %s: %d counted, %d skipped, %d blank.",
		result.Stats.Lines, r.input.FlowLogFile, result.Stats.Counted, result.Stats.Skipped(), result.Stats.Blank)

	for i, s := range r.sinks {
		err := s.Write(ctx, result, runID)
		if err == nil {
			continue
		}
		if i == 0 {
			return nil, fmt.Errorf("failed to write report: %w", err)
		}
		log.Printf("Error writing to sink '%s': %v", s.Name(), err)
	}

	log.Printf("Run %s completed in %s.", runID, time.Since(start).Round(time.Millisecond))
	return result, nil
}

// Close closes every sink.
func (r *Runner) Close() {
	for _, s := range r.sinks {
		if err := s.Close(); err != nil {
			log.Printf("Error closing sink '%s': %v", s.Name(), err)
		}
	}
}

func (r *Runner) loadAggregator() (*aggregator.Aggregator, error) {
	protocols, err := lookup.LoadProtocolTableFile(r.input.ProtocolFile)
	if err != nil {
		return nil, err
	}
	log.Printf("Loaded %d protocols from %s", protocols.Len(), r.input.ProtocolFile)

	classes, err := lookup.LoadClassificationTableFile(r.input.LookupFile)
	if err != nil {
		return nil, err
	}
	log.Printf("Loaded %d classification entries from %s", classes.Len(), r.input.LookupFile)

	return aggregator.New(protocols, classes)
}

func (r *Runner) processFlowLog(agg *aggregator.Aggregator) (*model.Result, error) {
	file, err := os.Open(r.input.FlowLogFile)
	if err != nil {
		return nil, fmt.Errorf("flow log: %w: %w", model.ErrNotFound, err)
	}
	defer file.Close()

	result, err := agg.Process(file)
	if err != nil {
		return nil, fmt.Errorf("flow log: %s: %w", r.input.FlowLogFile, err)
	}
	return result, nil
}
