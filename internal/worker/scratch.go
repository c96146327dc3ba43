package worker

import (
	"io"
	"os"
	"path/filepath"
)

// scratch is a per-job staging directory the worker downloads inputs
// into before handing local paths to a tool handler.
type scratch struct {
	dir string
}

func newScratch(jobID string) (*scratch, error) {
	dir := filepath.Join(os.TempDir(), "docsmart-worker", jobID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &scratch{dir: dir}, nil
}

func (s *scratch) join(name string) string {
	return filepath.Join(s.dir, name)
}

func (s *scratch) writeFrom(path string, r io.Reader) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(f, r)
	return err
}

func (s *scratch) close() error {
	return os.RemoveAll(s.dir)
}
