package tools

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
)

// zipEntry pairs a source file on disk with the name it should carry
// inside the archive.
type zipEntry struct {
	path string
	name string
}

// buildZip writes entries into outputPath in the given order (spec.md
// §8: concatenating outputs in submission order must reproduce the
// selected pages, which requires the archive to preserve that order
// rather than re-sorting names).
func buildZip(outputPath string, entries []zipEntry) error {
	out, err := os.OpenFile(outputPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o640)
	if err != nil {
		return fmt.Errorf("create zip: %w", err)
	}
	defer out.Close()

	w := zip.NewWriter(out)
	defer w.Close()

	for _, e := range entries {
		if err := addZipEntry(w, e); err != nil {
			return err
		}
	}
	return nil
}

func addZipEntry(w *zip.Writer, e zipEntry) error {
	f, err := os.Open(e.path)
	if err != nil {
		return fmt.Errorf("open %s: %w", e.path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", e.path, err)
	}
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return fmt.Errorf("zip header for %s: %w", e.path, err)
	}
	header.Name = e.name
	header.Method = zip.Deflate

	dst, err := w.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("zip write header for %s: %w", e.path, err)
	}
	if _, err := io.Copy(dst, f); err != nil {
		return fmt.Errorf("zip copy %s: %w", e.path, err)
	}
	return nil
}
