package tools

import (
	"context"

	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/AnjaneyaKaushik/docsmart-backend/internal/apierr"
)

const watermarkText = "Processed by DocSmart"

// watermarkHandler stamps every page with a diagonal, low-opacity text
// watermark (spec.md §4.3: addWatermark). Text, rotation, opacity and
// font size are the fixed values the source hardcoded.
type watermarkHandler struct{}

func (h *watermarkHandler) Handle(ctx context.Context, inputPaths []string, _ map[string]any, report ProgressFunc) (*Output, error) {
	if len(inputPaths) != 1 {
		return nil, apierr.New(apierr.CodeInvalidInput, "addWatermark requires exactly 1 input file", nil)
	}

	scratch, err := newScratchDir()
	if err != nil {
		return nil, err
	}
	defer scratch.Close()

	wm, err := model.TextWatermark(watermarkText, "font:Helvetica, points:40, rot:45, op:0.2, color:0 0 0", true, false, model.POINTS)
	if err != nil {
		return nil, apierr.New(apierr.CodeInternal, "unable to build watermark", err)
	}

	report(30)
	outputPath := scratch.Join("watermarked.pdf")
	if err := pdfapi.AddWatermarksFile(inputPaths[0], outputPath, nil, wm, nil); err != nil {
		return nil, apierr.Toolf("addWatermark", err, err.Error())
	}
	report(80)

	buf, err := readFile(outputPath)
	if err != nil {
		return nil, err
	}
	return &Output{
		Buffer:       buf,
		MimeType:     "application/pdf",
		FileNameBase: "watermarked_document",
		Extension:    ".pdf",
	}, nil
}
