package tools

import (
	"context"

	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/AnjaneyaKaushik/docsmart-backend/internal/apierr"
)

// unlockHandler decrypts a PDF, accepting an empty password for PDFs
// with no user password set (spec.md §4.3: unlockPdf).
type unlockHandler struct{}

func (h *unlockHandler) Handle(ctx context.Context, inputPaths []string, options map[string]any, report ProgressFunc) (*Output, error) {
	if len(inputPaths) != 1 {
		return nil, apierr.New(apierr.CodeInvalidInput, "unlockPdf requires exactly 1 input file", nil)
	}
	password, _ := options["password"].(string)

	scratch, err := newScratchDir()
	if err != nil {
		return nil, err
	}
	defer scratch.Close()

	conf := model.NewDefaultConfiguration()
	conf.UserPW = password
	conf.OwnerPW = password

	report(30)
	outputPath := scratch.Join("unlocked.pdf")
	if err := pdfapi.DecryptFile(inputPaths[0], outputPath, conf); err != nil {
		return nil, apierr.Toolf("unlockPdf", err, err.Error())
	}
	report(80)

	buf, err := readFile(outputPath)
	if err != nil {
		return nil, err
	}
	return &Output{
		Buffer:       buf,
		MimeType:     "application/pdf",
		FileNameBase: "unlocked_document",
		Extension:    ".pdf",
	}, nil
}
