package aggregator

import (
	"FlowTagger/internal/lookup"
	"FlowTagger/internal/model"
	"bufio"
	"errors"
	"fmt"
	"io"
	"iter"
	"log"
	"strconv"
	"strings"
)

// Positions of the fields the aggregator reads from a v2 flow record (0-indexed).
const (
	dstPortField  = 6
	protocolField = 7
	minFields     = protocolField + 1
)

// maxLoggedSkips bounds per-line skip logging so a badly broken input does not flood the log.
const maxLoggedSkips = 10

// maxLineSize is the longest flow log line that is parsed. Longer lines are skipped.
const maxLineSize = 1 << 20

const readBufferSize = 64 * 1024

// Aggregator classifies flow records and counts them per tag and per (port, protocol) pair.
// The tables are shared read-only; every call to Process starts from empty counters.
type Aggregator struct {
	protocols *lookup.ProtocolTable
	classes   *lookup.ClassificationTable
}

// New creates an Aggregator over the given tables. Both tables are required.
func New(protocols *lookup.ProtocolTable, classes *lookup.ClassificationTable) (*Aggregator, error) {
	if protocols == nil {
		return nil, errors.New("aggregator: protocol table is required")
	}
	if classes == nil {
		return nil, errors.New("aggregator: classification table is required")
	}
	return &Aggregator{protocols: protocols, classes: classes}, nil
}

// Process reads flow records line by line from r and aggregates them.
// Malformed lines, including lines over maxLineSize, are skipped and counted;
// only a read failure is returned as an error.
func (a *Aggregator) Process(r io.Reader) (*model.Result, error) {
	reader := bufio.NewReaderSize(r, readBufferSize)

	var readErr error
	lines := func(yield func(string, bool) bool) {
		for {
			line, tooLong, err := readLine(reader)
			if err != nil {
				if !errors.Is(err, io.EOF) {
					readErr = err
				}
				return
			}
			if !yield(line, tooLong) {
				return
			}
		}
	}
	result := a.fold(lines)
	if readErr != nil {
		return nil, fmt.Errorf("failed to read flow log after %d lines: %w", result.Stats.Lines, readErr)
	}
	return result, nil
}

// ProcessLines aggregates a sequence of flow record lines in a single forward pass.
func (a *Aggregator) ProcessLines(lines iter.Seq[string]) *model.Result {
	return a.fold(func(yield func(string, bool) bool) {
		for line := range lines {
			if !yield(line, false) {
				return
			}
		}
	})
}

// fold consumes (line, tooLong) pairs; a tooLong line carries no content.
func (a *Aggregator) fold(lines iter.Seq2[string, bool]) *model.Result {
	result := model.NewResult()
	stats := &result.Stats

	for line, tooLong := range lines {
		stats.Lines++
		if tooLong {
			stats.LongLines++
			logSkip(stats, "line %d: longer than %d bytes", stats.Lines, maxLineSize)
			continue
		}
		fields := strings.Fields(line)

		if len(fields) == 0 {
			stats.Blank++
			continue
		}
		if len(fields) < minFields {
			stats.ShortLines++
			logSkip(stats, "line %d: expected at least %d fields, got %d", stats.Lines, minFields, len(fields))
			continue
		}
		port, err := strconv.ParseUint(fields[dstPortField], 10, 16)
		if err != nil {
			stats.BadPorts++
			logSkip(stats, "line %d: invalid destination port %q", stats.Lines, fields[dstPortField])
			continue
		}

		a.count(result, uint16(port), fields[protocolField])
		stats.Counted++
	}

	if skipped := stats.Skipped(); skipped > maxLoggedSkips {
		log.Printf("Skipped %d malformed flow log lines in total (%d short, %d with bad ports, %d too long).",
			skipped, stats.ShortLines, stats.BadPorts, stats.LongLines)
	}
	return result
}

// readLine returns the next line without its line ending. A line over maxLineSize
// is read through to its end and reported as tooLong with no content.
func readLine(r *bufio.Reader) (line string, tooLong bool, err error) {
	chunk, isPrefix, err := r.ReadLine()
	if err != nil {
		return "", false, err
	}
	if !isPrefix {
		return string(chunk), false, nil
	}

	buf := append([]byte(nil), chunk...)
	for isPrefix {
		chunk, isPrefix, err = r.ReadLine()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", false, err
		}
		if !tooLong && len(buf)+len(chunk) > maxLineSize {
			tooLong, buf = true, nil
		}
		if !tooLong {
			buf = append(buf, chunk...)
		}
	}
	if tooLong {
		return "", true, nil
	}
	return string(buf), false, nil
}

// count applies a single valid record to both counters.
func (a *Aggregator) count(result *model.Result, port uint16, protocolID string) {
	protocol := a.protocols.Resolve(protocolID)
	result.PortProtocols.Inc(model.PortProtocol{Port: port, Protocol: protocol})
	result.Tags.Inc(a.classes.Classify(port, protocol))
}

func logSkip(stats *model.ProcessStats, format string, args ...interface{}) {
	if stats.Skipped() <= maxLoggedSkips {
		log.Printf("Skipping flow record, "+format, args...)
	}
}
