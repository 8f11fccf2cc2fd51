package sink

import (
	"FlowTagger/internal/model"
	"FlowTagger/internal/report"
	"context"
	"log"
)

// TextSink writes the text report to a single file, replacing it atomically.
// It implements the model.Sink interface.
type TextSink struct {
	path string
}

// NewTextSink creates a sink that writes the report to path.
func NewTextSink(path string) *TextSink {
	return &TextSink{path: path}
}

func (s *TextSink) Name() string {
	return "text:" + s.path
}

func (s *TextSink) Write(_ context.Context, result *model.Result, _ string) error {
	if err := report.WriteFileAtomic(s.path, report.Bytes(result), 0644); err != nil {
		return err
	}
	log.Printf("Wrote report with %d tags and %d port/protocol combinations to %s", result.Tags.Len(), result.PortProtocols.Len(), s.path)
	return nil
}

func (s *TextSink) Close() error {
	return nil
}
