package sink

import (
	"FlowTagger/internal/config"
	"FlowTagger/internal/factory"
	"FlowTagger/internal/model"
	"context"
	"fmt"
	"log"
	"regexp"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

func init() {
	factory.RegisterSink("clickhouse", func(def config.SinkDef) (model.Sink, error) {
		timeout, err := def.TimeoutDuration()
		if err != nil {
			return nil, err
		}
		return NewClickHouseSink(def.ClickHouse, timeout)
	})
}

const createTableStatement = `
CREATE TABLE IF NOT EXISTS %s (
    RunID      String,
    Timestamp  DateTime,
    Kind       LowCardinality(String),
    Tag        Nullable(String),
    Port       Nullable(UInt16),
    Protocol   Nullable(String),
    Count      UInt64
) ENGINE = MergeTree()
PARTITION BY toYYYYMM(Timestamp)
ORDER BY (Kind, Timestamp, RunID);
`

// Row kinds stored in the Kind column.
const (
	KindTag          = "tag"
	KindPortProtocol = "port_protocol"
)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// countRow is one row of the counts table; nil pointers become NULLs.
type countRow struct {
	Kind     string
	Tag      *string
	Port     *uint16
	Protocol *string
	Count    uint64
}

// ClickHouseSink inserts every counter entry of a run into a ClickHouse table.
// It implements the model.Sink interface.
type ClickHouseSink struct {
	conn    driver.Conn
	table   string
	timeout time.Duration
}

// NewClickHouseSink connects to ClickHouse and makes sure the counts table exists.
func NewClickHouseSink(cfg config.ClickHouseConfig, timeout time.Duration) (*ClickHouseSink, error) {
	if !tableNamePattern.MatchString(cfg.Table) {
		return nil, fmt.Errorf("invalid clickhouse table name '%s'", cfg.Table)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	conn, err := connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to clickhouse: %w", err)
	}

	if err := conn.Exec(ctx, fmt.Sprintf(createTableStatement, cfg.Table)); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}
	log.Printf("Successfully connected to ClickHouse and ensured table '%s' exists.", cfg.Table)

	return &ClickHouseSink{conn: conn, table: cfg.Table, timeout: timeout}, nil
}

func connect(ctx context.Context, cfg config.ClickHouseConfig) (driver.Conn, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Debug: false,
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})

	if err != nil {
		return nil, err
	}

	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping clickhouse: %w", err)
	}

	return conn, nil
}

func (s *ClickHouseSink) Name() string {
	return "clickhouse:" + s.table
}

// Write inserts one row per tag and one row per port/protocol combination in a single batch.
func (s *ClickHouseSink) Write(ctx context.Context, result *model.Result, runID string) error {
	rows := countRows(result)
	if len(rows) == 0 {
		return nil // Nothing to write
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	batch, err := s.conn.PrepareBatch(ctx, "INSERT INTO "+s.table)
	if err != nil {
		return fmt.Errorf("failed to prepare batch: %w", err)
	}

	now := time.Now().UTC().Truncate(time.Second)
	for _, row := range rows {
		if err := batch.Append(runID, now, row.Kind, row.Tag, row.Port, row.Protocol, row.Count); err != nil {
			batch.Abort()
			return fmt.Errorf("failed to append row to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to send batch: %w", err)
	}

	log.Printf("Wrote %d rows to ClickHouse table '%s' for run %s", len(rows), s.table, runID)
	return nil
}

func (s *ClickHouseSink) Close() error {
	return s.conn.Close()
}

// countRows flattens both counters into table rows, tags first, each in first-seen order.
func countRows(result *model.Result) []countRow {
	rows := make([]countRow, 0, result.Tags.Len()+result.PortProtocols.Len())
	for tag, count := range result.Tags.All() {
		rows = append(rows, countRow{Kind: KindTag, Tag: &tag, Count: count})
	}
	for key, count := range result.PortProtocols.All() {
		port, protocol := key.Port, key.Protocol
		rows = append(rows, countRow{Kind: KindPortProtocol, Port: &port, Protocol: &protocol, Count: count})
	}
	return rows
}
