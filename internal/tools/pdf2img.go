package tools

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/AnjaneyaKaushik/docsmart-backend/internal/apierr"
)

var pageNumberRe = regexp.MustCompile(`(\d+)`)

func pageNumberOf(name string) int {
	m := pageNumberRe.FindString(name)
	n, _ := strconv.Atoi(m)
	return n
}

// pdfToImageHandler rasterizes every page of a PDF to PNG via
// Ghostscript and returns a ZIP of page_N.png entries (spec.md §4.3:
// pdf2img).
type pdfToImageHandler struct {
	cfg HandlerConfig
}

func (h *pdfToImageHandler) Handle(ctx context.Context, inputPaths []string, _ map[string]any, report ProgressFunc) (*Output, error) {
	if len(inputPaths) != 1 {
		return nil, apierr.New(apierr.CodeInvalidInput, "pdf2img requires exactly 1 input file", nil)
	}

	scratch, err := newScratchDir()
	if err != nil {
		return nil, err
	}
	defer scratch.Close()

	report(20)
	pattern := scratch.Join("page_%d.png")
	args := []string{
		"-sDEVICE=png16m",
		"-r150",
		"-dNOPAUSE",
		"-dQUIET",
		"-dBATCH",
		fmt.Sprintf("-sOutputFile=%s", pattern),
		inputPaths[0],
	}
	cmd := exec.CommandContext(ctx, h.cfg.GhostscriptPath, args...)
	var stderr bytes.Buffer
	cmd.Stdout = &stderr
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, apierr.Toolf("pdf2img", err, stderr.String())
	}
	report(70)

	entries, err := os.ReadDir(scratch.path)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return nil, apierr.New(apierr.CodeUnsupportedPDF, "ghostscript produced no pages", nil)
	}
	sort.Slice(names, func(i, j int) bool { return pageNumberOf(names[i]) < pageNumberOf(names[j]) })

	zipPath := scratch.Join("pages.zip")
	entriesList := make([]zipEntry, len(names))
	for i, n := range names {
		entriesList[i] = zipEntry{path: filepath.Join(scratch.path, n), name: n}
	}
	if err := buildZip(zipPath, entriesList); err != nil {
		return nil, err
	}
	report(85)

	buf, err := readFile(zipPath)
	if err != nil {
		return nil, err
	}
	return &Output{
		Buffer:       buf,
		MimeType:     "application/zip",
		FileNameBase: "pdf_pages",
		Extension:    ".zip",
	}, nil
}
