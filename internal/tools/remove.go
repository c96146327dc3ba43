package tools

import (
	"context"
	"strconv"

	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/AnjaneyaKaushik/docsmart-backend/internal/apierr"
)

// removeHandler deletes a set of pages from a single PDF (spec.md
// §4.3: remove).
type removeHandler struct{}

func (h *removeHandler) Handle(ctx context.Context, inputPaths []string, options map[string]any, report ProgressFunc) (*Output, error) {
	if len(inputPaths) != 1 {
		return nil, apierr.New(apierr.CodeInvalidInput, "remove requires exactly 1 input file", nil)
	}

	pages, err := intSliceOption(options, "pages")
	if err != nil {
		return nil, err
	}
	selected := make([]string, len(pages))
	for i, p := range pages {
		selected[i] = strconv.Itoa(p)
	}

	scratch, err := newScratchDir()
	if err != nil {
		return nil, err
	}
	defer scratch.Close()

	report(20)
	outputPath := scratch.Join("removed.pdf")
	if err := pdfapi.RemovePagesFile(inputPaths[0], outputPath, selected, nil); err != nil {
		return nil, apierr.Toolf("remove", err, err.Error())
	}
	report(80)

	buf, err := readFile(outputPath)
	if err != nil {
		return nil, err
	}
	return &Output{
		Buffer:       buf,
		MimeType:     "application/pdf",
		FileNameBase: "edited_document",
		Extension:    ".pdf",
	}, nil
}
