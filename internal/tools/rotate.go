package tools

import (
	"context"
	"strconv"

	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/AnjaneyaKaushik/docsmart-backend/internal/apierr"
)

// rotateHandler rotates a subset of pages by a multiple of 90 degrees
// (spec.md §4.3: rotate).
type rotateHandler struct{}

func (h *rotateHandler) Handle(ctx context.Context, inputPaths []string, options map[string]any, report ProgressFunc) (*Output, error) {
	if len(inputPaths) != 1 {
		return nil, apierr.New(apierr.CodeInvalidInput, "rotate requires exactly 1 input file", nil)
	}

	angle, err := rotationAngle(options)
	if err != nil {
		return nil, err
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
	outputPath := scratch.Join("rotated.pdf")
	if err := pdfapi.RotateFile(inputPaths[0], outputPath, angle, selected, nil); err != nil {
		return nil, apierr.Toolf("rotate", err, err.Error())
	}
	report(80)

	buf, err := readFile(outputPath)
	if err != nil {
		return nil, err
	}
	return &Output{
		Buffer:       buf,
		MimeType:     "application/pdf",
		FileNameBase: "rotated_document",
		Extension:    ".pdf",
	}, nil
}

func rotationAngle(options map[string]any) (int, error) {
	raw, ok := options["angle"]
	if !ok {
		return 0, apierr.New(apierr.CodeInvalidInput, "rotate requires an angle option", nil)
	}
	f, ok := raw.(float64)
	if !ok {
		return 0, apierr.New(apierr.CodeInvalidInput, "angle must be a number", nil)
	}
	angle := int(f)
	switch angle {
	case 90, 180, 270:
		return angle, nil
	default:
		return 0, apierr.New(apierr.CodeInvalidInput, "angle must be one of 90, 180, 270", nil)
	}
}

func intSliceOption(options map[string]any, key string) ([]int, error) {
	raw, ok := options[key]
	if !ok {
		return nil, apierr.New(apierr.CodeInvalidInput, key+" option is required", nil)
	}
	list, ok := raw.([]any)
	if !ok || len(list) == 0 {
		return nil, apierr.New(apierr.CodeInvalidInput, key+" must be a non-empty array", nil)
	}
	out := make([]int, len(list))
	for i, v := range list {
		f, ok := v.(float64)
		if !ok {
			return nil, apierr.New(apierr.CodeInvalidInput, key+" must contain only numbers", nil)
		}
		out[i] = int(f)
	}
	return out, nil
}
