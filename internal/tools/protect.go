package tools

import (
	"context"

	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/AnjaneyaKaushik/docsmart-backend/internal/apierr"
)

// protectHandler encrypts a PDF with a non-empty password using
// AES-256 (spec.md §4.3: protectPdf), matching the source's pikepdf
// R=6 encryption.
type protectHandler struct{}

func (h *protectHandler) Handle(ctx context.Context, inputPaths []string, options map[string]any, report ProgressFunc) (*Output, error) {
	if len(inputPaths) != 1 {
		return nil, apierr.New(apierr.CodeInvalidInput, "protectPdf requires exactly 1 input file", nil)
	}
	password, _ := options["password"].(string)
	if password == "" {
		return nil, apierr.New(apierr.CodeInvalidInput, "protectPdf requires a non-empty password", nil)
	}

	scratch, err := newScratchDir()
	if err != nil {
		return nil, err
	}
	defer scratch.Close()

	conf := model.NewAESConfiguration(password, password, 256)

	report(30)
	outputPath := scratch.Join("protected.pdf")
	if err := pdfapi.EncryptFile(inputPaths[0], outputPath, conf); err != nil {
		return nil, apierr.Toolf("protectPdf", err, err.Error())
	}
	report(80)

	buf, err := readFile(outputPath)
	if err != nil {
		return nil, err
	}
	return &Output{
		Buffer:       buf,
		MimeType:     "application/pdf",
		FileNameBase: "protected_document",
		Extension:    ".pdf",
	}, nil
}
