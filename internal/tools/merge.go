package tools

import (
	"context"

	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/AnjaneyaKaushik/docsmart-backend/internal/apierr"
)

// mergeHandler concatenates ≥2 PDFs in submission order (spec.md
// §4.3: merge).
type mergeHandler struct{}

func (h *mergeHandler) Handle(ctx context.Context, inputPaths []string, _ map[string]any, report ProgressFunc) (*Output, error) {
	if len(inputPaths) < 2 {
		return nil, apierr.New(apierr.CodeInvalidInput, "merge requires at least 2 input files", nil)
	}

	scratch, err := newScratchDir()
	if err != nil {
		return nil, err
	}
	defer scratch.Close()

	report(20)
	outputPath := scratch.Join("merged.pdf")
	if err := pdfapi.MergeCreateFile(inputPaths, outputPath, false, nil); err != nil {
		return nil, apierr.Toolf("merge", err, err.Error())
	}
	report(80)

	buf, err := readFile(outputPath)
	if err != nil {
		return nil, err
	}

	return &Output{
		Buffer:       buf,
		MimeType:     "application/pdf",
		FileNameBase: "merged_documents",
		Extension:    ".pdf",
	}, nil
}
