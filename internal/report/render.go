package report

import (
	"FlowTagger/internal/model"
	"bufio"
	"bytes"
	"fmt"
	"io"
)

// Render writes the two-section text report for result to w.
// Rows appear in the order their keys were first seen during aggregation; nothing is sorted.
func Render(w io.Writer, result *model.Result) error {
	bw := bufio.NewWriter(w)

	fmt.Fprint(bw, "Tag Counts:\nTag,Count\n")
	for tag, count := range result.Tags.All() {
		fmt.Fprintf(bw, "%s,%d\n", tag, count)
	}

	fmt.Fprint(bw, "\nPort/Protocol Combination Counts:\nPort,Protocol,Count\n")
	for key, count := range result.PortProtocols.All() {
		fmt.Fprintf(bw, "%d,%s,%d\n", key.Port, key.Protocol, count)
	}

	return bw.Flush()
}

// Bytes renders result into memory.
func Bytes(result *model.Result) []byte {
	var buf bytes.Buffer
	// Writes to a bytes.Buffer cannot fail.
	_ = Render(&buf, result)
	return buf.Bytes()
}
