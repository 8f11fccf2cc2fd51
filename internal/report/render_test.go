package report

import (
	"FlowTagger/internal/model"
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func sampleResult() *model.Result {
	res := model.NewResult()
	res.Tags.Inc("sv_p2")
	res.Tags.Inc("untagged")
	res.Tags.Inc("sv_p2")
	res.PortProtocols.Inc(model.PortProtocol{Port: 443, Protocol: "tcp"})
	res.PortProtocols.Inc(model.PortProtocol{Port: 23, Protocol: "tcp"})
	res.PortProtocols.Inc(model.PortProtocol{Port: 443, Protocol: "tcp"})
	res.Stats = model.ProcessStats{Lines: 3, Counted: 3}
	return res
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, sampleResult()); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	want := "Tag Counts:\n" +
		"Tag,Count\n" +
		"sv_p2,2\n" +
		"untagged,1\n" +
		"\n" +
		"Port/Protocol Combination Counts:\n" +
		"Port,Protocol,Count\n" +
		"443,tcp,2\n" +
		"23,tcp,1\n"
	if got := buf.String(); got != want {
		t.Errorf("Render output mismatch.\nGot:\n%s\nWant:\n%s", got, want)
	}
}

func TestRender_Empty(t *testing.T) {
	want := "Tag Counts:\nTag,Count\n\nPort/Protocol Combination Counts:\nPort,Protocol,Count\n"
	if got := string(Bytes(model.NewResult())); got != want {
		t.Errorf("Render of an empty result = %q, want %q", got, want)
	}
}

func TestRender_Deterministic(t *testing.T) {
	first := Bytes(sampleResult())
	for range 5 {
		if !bytes.Equal(first, Bytes(sampleResult())) {
			t.Fatal("Render produced different output for the same result")
		}
	}
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "output_results.txt")

	if err := os.WriteFile(path, []byte("old"), 0644); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}
	if err := WriteFileAtomic(path, []byte("new report"), 0644); err != nil {
		t.Fatalf("WriteFileAtomic failed: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read report: %v", err)
	}
	if string(got) != "new report" {
		t.Errorf("Expected file to be replaced, got %q", got)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("Failed to read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("Expected no temp files left behind, found %d entries", len(entries))
	}
}

func TestWriteFileAtomic_MissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "no", "such", "dir", "out.txt")
	if err := WriteFileAtomic(path, []byte("x"), 0644); err == nil {
		t.Fatal("Expected an error when the target directory does not exist")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("Expected no report file to exist, stat err = %v", err)
	}
}
