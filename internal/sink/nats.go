package sink

import (
	"FlowTagger/internal/config"
	"FlowTagger/internal/factory"
	"FlowTagger/internal/model"
	"FlowTagger/internal/report"
	"context"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"
	"google.golang.org/protobuf/proto"
)

func init() {
	factory.RegisterSink("nats", func(def config.SinkDef) (model.Sink, error) {
		timeout, err := def.TimeoutDuration()
		if err != nil {
			return nil, err
		}
		return NewNATSSink(def.NATS, timeout)
	})
}

// NATSSink publishes each run's result as a protobuf-encoded google.protobuf.Struct.
// It implements the model.Sink interface.
type NATSSink struct {
	nc      *nats.Conn
	subject string
	timeout time.Duration
}

// NewNATSSink connects to the NATS server named in cfg.
func NewNATSSink(cfg config.NATSConfig, timeout time.Duration) (*NATSSink, error) {
	nc, err := nats.Connect(cfg.URL, nats.Name("flowtagger"), nats.Timeout(timeout))
	if err != nil {
		return nil, err
	}
	log.Printf("Connected to NATS server at %s", cfg.URL)
	return &NATSSink{nc: nc, subject: cfg.Subject, timeout: timeout}, nil
}

func (s *NATSSink) Name() string {
	return "nats:" + s.subject
}

// Write publishes the result and flushes, so a returned nil means the server has the message.
func (s *NATSSink) Write(ctx context.Context, result *model.Result, runID string) error {
	data, err := encodeResult(result, runID)
	if err != nil {
		return err
	}

	msg := nats.NewMsg(s.subject)
	msg.Header.Set("Run-Id", runID)
	msg.Data = data
	if err := s.nc.PublishMsg(msg); err != nil {
		return fmt.Errorf("failed to publish to '%s': %w", s.subject, err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.nc.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("failed to flush NATS connection: %w", err)
	}
	log.Printf("Published %d bytes for run %s to '%s'", len(data), runID, s.subject)
	return nil
}

// Close drains and closes the NATS connection.
func (s *NATSSink) Close() error {
	if s.nc == nil {
		return nil
	}
	err := s.nc.Drain()
	log.Println("NATS connection drained and closed.")
	return err
}

func encodeResult(result *model.Result, runID string) ([]byte, error) {
	payload, err := report.ToStruct(result, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to build payload: %w", err)
	}
	data, err := proto.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return data, nil
}
