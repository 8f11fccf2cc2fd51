package lookup

import (
	"FlowTagger/internal/model"
	"bufio"
	"fmt"
	"io"
	"os"
)

// withFile opens path for reading and hands it to load. Open failures are reported as model.ErrNotFound.
func withFile(path string, load func(r io.Reader) error) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %w", model.ErrNotFound, err)
	}
	defer file.Close()

	if err := load(bufio.NewReader(file)); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}
