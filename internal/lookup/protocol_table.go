package lookup

import (
	"FlowTagger/internal/model"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ProtocolTable maps the numeric protocol identifiers found in flow records to lowercase protocol names.
// It is immutable once loaded.
type ProtocolTable struct {
	names map[string]string
}

// LoadProtocolTable reads "<numeric-id>,<protocol-name>" rows (no header) from r.
// A row with fewer than two fields fails the whole load.
func LoadProtocolTable(r io.Reader) (*ProtocolTable, error) {
	reader := newCSVReader(r)
	names := make(map[string]string)
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", model.ErrFormat, err)
		}
		if len(row) < 2 {
			line, _ := reader.FieldPos(0)
			return nil, fmt.Errorf("%w: line %d: expected at least 2 fields, got %d", model.ErrFormat, line, len(row))
		}
		names[strings.TrimSpace(row[0])] = strings.ToLower(strings.TrimSpace(row[1]))
	}
	return &ProtocolTable{names: names}, nil
}

// LoadProtocolTableFile loads a ProtocolTable from the file at path.
func LoadProtocolTableFile(path string) (*ProtocolTable, error) {
	var table *ProtocolTable
	err := withFile(path, func(r io.Reader) (err error) {
		table, err = LoadProtocolTable(r)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("protocol table: %w", err)
	}
	return table, nil
}

// Resolve returns the protocol name for id, or "other" if the table has no entry for it.
func (t *ProtocolTable) Resolve(id string) string {
	if name, ok := t.names[strings.TrimSpace(id)]; ok {
		return name
	}
	return model.UnknownProtocol
}

// Len returns the number of protocols in the table.
func (t *ProtocolTable) Len() int {
	return len(t.names)
}
