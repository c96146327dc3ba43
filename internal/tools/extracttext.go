package tools

import (
	"bytes"
	"context"
	"os/exec"

	"github.com/AnjaneyaKaushik/docsmart-backend/internal/apierr"
)

// extractTextHandler shells out to poppler-utils' pdftotext, replacing
// the source's PyPDF2-based extract_text_from_pdf.py script (spec.md
// §4.3: extractText). pdfcpu has no page-text extraction of its own,
// only raw content-stream extraction, so this follows the same
// external-CLI pattern as Ghostscript and LibreOffice.
type extractTextHandler struct {
	cfg HandlerConfig
}

func (h *extractTextHandler) Handle(ctx context.Context, inputPaths []string, _ map[string]any, report ProgressFunc) (*Output, error) {
	if len(inputPaths) != 1 {
		return nil, apierr.New(apierr.CodeInvalidInput, "extractText requires exactly 1 input file", nil)
	}

	scratch, err := newScratchDir()
	if err != nil {
		return nil, err
	}
	defer scratch.Close()

	report(30)
	outputPath := scratch.Join("extracted.txt")
	cmd := exec.CommandContext(ctx, h.cfg.PdftotextPath, inputPaths[0], outputPath)
	var stderr bytes.Buffer
	cmd.Stdout = &stderr
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, apierr.Toolf("extractText", err, stderr.String())
	}
	report(80)

	buf, err := readFile(outputPath)
	if err != nil {
		return nil, err
	}
	return &Output{
		Buffer:       buf,
		MimeType:     "text/plain",
		FileNameBase: "extracted_text",
		Extension:    ".txt",
	}, nil
}
