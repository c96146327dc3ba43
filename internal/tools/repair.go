package tools

import (
	"context"

	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/AnjaneyaKaushik/docsmart-backend/internal/apierr"
)

// repairHandler re-serializes a PDF through pdfcpu's optimizer, which
// resolves the same class of structural corruption the source's
// pikepdf open/save round-trip fixed (spec.md §4.3: repairPdf).
type repairHandler struct{}

func (h *repairHandler) Handle(ctx context.Context, inputPaths []string, _ map[string]any, report ProgressFunc) (*Output, error) {
	if len(inputPaths) != 1 {
		return nil, apierr.New(apierr.CodeInvalidInput, "repairPdf requires exactly 1 input file", nil)
	}

	scratch, err := newScratchDir()
	if err != nil {
		return nil, err
	}
	defer scratch.Close()

	report(30)
	outputPath := scratch.Join("repaired.pdf")
	if err := pdfapi.OptimizeFile(inputPaths[0], outputPath, nil); err != nil {
		return nil, apierr.Toolf("repairPdf", err, err.Error())
	}
	report(80)

	buf, err := readFile(outputPath)
	if err != nil {
		return nil, err
	}
	return &Output{
		Buffer:       buf,
		MimeType:     "application/pdf",
		FileNameBase: "repaired_document",
		Extension:    ".pdf",
	}, nil
}
