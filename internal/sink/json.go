package sink

import (
	"FlowTagger/internal/config"
	"FlowTagger/internal/factory"
	"FlowTagger/internal/model"
	"FlowTagger/internal/report"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

func init() {
	factory.RegisterSink("json", func(def config.SinkDef) (model.Sink, error) {
		return NewJSONSink(def.JSON.Path), nil
	})
}

// SummaryData holds the metadata for a run, internal to the JSON sink.
type SummaryData struct {
	RunID                 string             `json:"run_id"`
	Timestamp             string             `json:"timestamp"`
	TotalFlows            uint64             `json:"total_flows"`
	DistinctTags          int                `json:"distinct_tags"`
	DistinctPortProtocols int                `json:"distinct_port_protocols"`
	UntaggedFlows         uint64             `json:"untagged_flows"`
	Stats                 model.ProcessStats `json:"stats"`
}

// JSONSink writes a run summary as indented JSON.
// It implements the model.Sink interface.
type JSONSink struct {
	path string
	now  func() time.Time
}

// NewJSONSink creates a sink that writes the summary to path.
func NewJSONSink(path string) *JSONSink {
	return &JSONSink{path: path, now: time.Now}
}

func (s *JSONSink) Name() string {
	return "json:" + s.path
}

// Write builds the summary for result and writes it, creating the parent directory if needed.
func (s *JSONSink) Write(_ context.Context, result *model.Result, runID string) error {
	summary := SummaryData{
		RunID:                 runID,
		Timestamp:             s.now().UTC().Format(time.RFC3339),
		TotalFlows:            result.Tags.Total(),
		DistinctTags:          result.Tags.Len(),
		DistinctPortProtocols: result.PortProtocols.Len(),
		UntaggedFlows:         result.Tags.Get(model.Untagged),
		Stats:                 result.Stats,
	}

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode summary to json: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create summary directory: %w", err)
	}
	return report.WriteFileAtomic(s.path, append(data, '\n'), 0644)
}

func (s *JSONSink) Close() error {
	return nil
}
