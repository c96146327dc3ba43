package tools

import (
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// scratchDir is a handler's private working directory,
// {tmp}/docsmart-tools/{uuid}/, separate from the worker's per-job
// input directory. Handlers must remove it on both success and failure.
type scratchDir struct {
	path string
}

func newScratchDir() (*scratchDir, error) {
	dir := filepath.Join(os.TempDir(), "docsmart-tools", uuid.NewString())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &scratchDir{path: dir}, nil
}

func (s *scratchDir) Join(names ...string) string {
	parts := append([]string{s.path}, names...)
	return filepath.Join(parts...)
}

func (s *scratchDir) Close() error {
	return os.RemoveAll(s.path)
}
