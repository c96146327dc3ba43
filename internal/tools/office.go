package tools

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/AnjaneyaKaushik/docsmart-backend/internal/apierr"
)

// officeHandler shells out to LibreOffice's headless converter for the
// two Office round-trip tools (spec.md §4.3: pdfToWord, docxToPdf),
// replacing the source's Python docx2pdf/pdf2docx scripts.
type officeHandler struct {
	cfg    HandlerConfig
	toDocx bool
}

func (h *officeHandler) Handle(ctx context.Context, inputPaths []string, _ map[string]any, report ProgressFunc) (*Output, error) {
	if len(inputPaths) != 1 {
		return nil, apierr.New(apierr.CodeInvalidInput, "office conversion requires exactly 1 input file", nil)
	}

	scratch, err := newScratchDir()
	if err != nil {
		return nil, err
	}
	defer scratch.Close()

	target := "pdf"
	fileBase := "converted_document"
	ext := ".pdf"
	mime := "application/pdf"
	if h.toDocx {
		target = "docx"
		fileBase = "converted_document"
		ext = ".docx"
		mime = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	}

	report(20)
	cmd := exec.CommandContext(ctx, h.cfg.LibreOfficePath,
		"--headless", "--norestore",
		"--convert-to", target,
		"--outdir", scratch.path,
		inputPaths[0],
	)
	var stderr bytes.Buffer
	cmd.Stdout = &stderr
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, apierr.Toolf(string(officeToolID(h.toDocx)), err, stderr.String())
	}
	report(75)

	base := strings.TrimSuffix(filepath.Base(inputPaths[0]), filepath.Ext(inputPaths[0]))
	outputPath := filepath.Join(scratch.path, base+"."+target)
	if _, err := os.Stat(outputPath); err != nil {
		return nil, apierr.New(apierr.CodeToolFailure, "libreoffice did not produce the expected output file", err)
	}

	buf, err := readFile(outputPath)
	if err != nil {
		return nil, err
	}
	report(85)

	return &Output{
		Buffer:       buf,
		MimeType:     mime,
		FileNameBase: fileBase,
		Extension:    ext,
	}, nil
}

func officeToolID(toDocx bool) ID {
	if toDocx {
		return PDFToWord
	}
	return DocxToPDF
}
