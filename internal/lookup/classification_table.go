package lookup

import (
	"FlowTagger/internal/model"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Required header columns of a classification table.
const (
	ColumnPort     = "dstport"
	ColumnProtocol = "protocol"
	ColumnTag      = "tag"
)

// ClassificationTable maps a (destination port, protocol name) pair to a lowercase tag.
// It is immutable once loaded.
type ClassificationTable struct {
	tags map[model.PortProtocol]string
}

// LoadClassificationTable reads a header row naming dstport, protocol and tag, followed by one entry per row.
// Columns are located by header name, so their order and any extra columns do not matter.
// When a (port, protocol) pair occurs more than once the last row wins.
func LoadClassificationTable(r io.Reader) (*ClassificationTable, error) {
	reader := newCSVReader(r)

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: missing header row", model.ErrFormat)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrFormat, err)
	}
	portIdx, protoIdx, tagIdx, err := headerIndexes(header)
	if err != nil {
		return nil, err
	}
	width := max(portIdx, protoIdx, tagIdx) + 1

	tags := make(map[model.PortProtocol]string)
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", model.ErrFormat, err)
		}
		line, _ := reader.FieldPos(0)
		if len(row) < width {
			return nil, fmt.Errorf("%w: line %d: expected at least %d fields, got %d", model.ErrFormat, line, width, len(row))
		}

		rawPort := strings.TrimSpace(row[portIdx])
		port, err := strconv.ParseUint(rawPort, 10, 16)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: invalid %s %q", model.ErrParse, line, ColumnPort, rawPort)
		}

		key := model.PortProtocol{
			Port:     uint16(port),
			Protocol: strings.ToLower(strings.TrimSpace(row[protoIdx])),
		}
		tags[key] = strings.ToLower(strings.TrimSpace(row[tagIdx]))
	}
	return &ClassificationTable{tags: tags}, nil
}

// LoadClassificationTableFile loads a ClassificationTable from the file at path.
func LoadClassificationTableFile(path string) (*ClassificationTable, error) {
	var table *ClassificationTable
	err := withFile(path, func(r io.Reader) (err error) {
		table, err = LoadClassificationTable(r)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("classification table: %w", err)
	}
	return table, nil
}

// Classify returns the tag for (port, protocol), or "untagged" if the pair is not in the table.
// The protocol name is matched case-insensitively.
func (t *ClassificationTable) Classify(port uint16, protocol string) string {
	if tag, ok := t.tags[model.PortProtocol{Port: port, Protocol: strings.ToLower(protocol)}]; ok {
		return tag
	}
	return model.Untagged
}

// Len returns the number of entries in the table.
func (t *ClassificationTable) Len() int {
	return len(t.tags)
}

func headerIndexes(header []string) (port, proto, tag int, err error) {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, dup := idx[name]; !dup {
			idx[name] = i
		}
	}

	var missing []string
	lookup := func(name string) int {
		i, ok := idx[name]
		if !ok {
			missing = append(missing, name)
		}
		return i
	}
	port, proto, tag = lookup(ColumnPort), lookup(ColumnProtocol), lookup(ColumnTag)
	if len(missing) > 0 {
		return 0, 0, 0, fmt.Errorf("%w: header is missing column(s) %s", model.ErrFormat, strings.Join(missing, ", "))
	}
	return port, proto, tag, nil
}

// newCSVReader returns a reader that accepts rows of any width; width checks are done by the callers.
func newCSVReader(r io.Reader) *csv.Reader {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true
	reader.ReuseRecord = true
	return reader
}
