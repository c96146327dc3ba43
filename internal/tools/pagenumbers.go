package tools

import (
	"context"

	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/AnjaneyaKaushik/docsmart-backend/internal/apierr"
)

// pageNumbersHandler stamps "%p" (current page) in the top-right
// corner of every page (spec.md §4.3: addPageNumbers). Font size and
// margin match the source's ReportLab overlay.
type pageNumbersHandler struct{}

func (h *pageNumbersHandler) Handle(ctx context.Context, inputPaths []string, _ map[string]any, report ProgressFunc) (*Output, error) {
	if len(inputPaths) != 1 {
		return nil, apierr.New(apierr.CodeInvalidInput, "addPageNumbers requires exactly 1 input file", nil)
	}

	scratch, err := newScratchDir()
	if err != nil {
		return nil, err
	}
	defer scratch.Close()

	wm, err := model.TextWatermark("%p", "font:Helvetica, points:14, pos:tr, offset: -30 -30, rot:0, op:1", true, false, model.POINTS)
	if err != nil {
		return nil, apierr.New(apierr.CodeInternal, "unable to build page number stamp", err)
	}

	report(30)
	outputPath := scratch.Join("numbered.pdf")
	if err := pdfapi.AddWatermarksFile(inputPaths[0], outputPath, nil, wm, nil); err != nil {
		return nil, apierr.Toolf("addPageNumbers", err, err.Error())
	}
	report(80)

	buf, err := readFile(outputPath)
	if err != nil {
		return nil, err
	}
	return &Output{
		Buffer:       buf,
		MimeType:     "application/pdf",
		FileNameBase: "numbered_document",
		Extension:    ".pdf",
	}, nil
}
