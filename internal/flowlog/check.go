package flowlog

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// CheckReport is the outcome of validating a flow log with Check.
type CheckReport struct {
	Records int     // non-blank lines
	Invalid int     // lines that are not a full v2 record
	Errors  []error // the first invalid lines, each naming its line number
}

// Check parses every non-blank line of r as a full v2 record.
// At most maxErrors line errors are kept; Invalid counts all of them.
func Check(r io.Reader, maxErrors int) (CheckReport, error) {
	var report CheckReport
	reader := bufio.NewReader(r)

	for lineNo := 1; ; lineNo++ {
		line, err := reader.ReadString('\n')
		if strings.TrimSpace(line) != "" {
			report.Records++
			if _, perr := Parse(line); perr != nil {
				report.Invalid++
				if len(report.Errors) < maxErrors {
					report.Errors = append(report.Errors, fmt.Errorf("line %d: %w", lineNo, perr))
				}
			}
		}
		if errors.Is(err, io.EOF) {
			return report, nil
		}
		if err != nil {
			return report, fmt.Errorf("failed to read flow log after %d lines: %w", lineNo, err)
		}
	}
}
