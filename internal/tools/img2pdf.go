package tools

import (
	"context"

	pdfcpuLib "github.com/pdfcpu/pdfcpu/pkg/pdfcpu"

	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/AnjaneyaKaushik/docsmart-backend/internal/apierr"
)

// imageToPDFHandler wraps one or more images into a single PDF, one
// page per image in submission order (spec.md §4.3: img2pdf).
type imageToPDFHandler struct{}

func (h *imageToPDFHandler) Handle(ctx context.Context, inputPaths []string, _ map[string]any, report ProgressFunc) (*Output, error) {
	if len(inputPaths) == 0 {
		return nil, apierr.New(apierr.CodeInvalidInput, "img2pdf requires at least 1 image", nil)
	}

	scratch, err := newScratchDir()
	if err != nil {
		return nil, err
	}
	defer scratch.Close()

	report(20)
	outputPath := scratch.Join("images.pdf")
	imp := pdfcpuLib.DefaultImportConfig()
	if err := pdfapi.ImportImagesFile(inputPaths, outputPath, imp, nil); err != nil {
		return nil, apierr.Toolf("img2pdf", err, err.Error())
	}
	report(80)

	buf, err := readFile(outputPath)
	if err != nil {
		return nil, err
	}
	return &Output{
		Buffer:       buf,
		MimeType:     "application/pdf",
		FileNameBase: "images_to_pdf",
		Extension:    ".pdf",
	}, nil
}
