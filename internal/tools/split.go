package tools

import (
	"context"
	"fmt"

	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/AnjaneyaKaushik/docsmart-backend/internal/apierr"
)

// splitHandler slices a single PDF into the ranges named by the
// pageRange option (spec.md §4.3: split).
type splitHandler struct{}

func (h *splitHandler) Handle(ctx context.Context, inputPaths []string, options map[string]any, report ProgressFunc) (*Output, error) {
	if len(inputPaths) != 1 {
		return nil, apierr.New(apierr.CodeInvalidInput, "split requires exactly 1 input file", nil)
	}
	rawRange, _ := options["pageRange"].(string)
	if rawRange == "" {
		return nil, apierr.New(apierr.CodeInvalidInput, "split requires a pageRange option", nil)
	}

	pageCount, err := pdfapi.PageCountFile(inputPaths[0])
	if err != nil {
		return nil, apierr.New(apierr.CodeUnsupportedPDF, "unable to read page count", err)
	}

	ranges, err := ParsePageRanges(rawRange, pageCount)
	if err != nil {
		return nil, err
	}

	scratch, err := newScratchDir()
	if err != nil {
		return nil, err
	}
	defer scratch.Close()

	entries := make([]zipEntry, 0, len(ranges))
	for i, r := range ranges {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		partPath := scratch.Join(fmt.Sprintf("part-%02d.pdf", i))
		if err := pdfapi.CollectFile(inputPaths[0], partPath, r.PageSelection(), nil); err != nil {
			return nil, apierr.Toolf("split", err, err.Error())
		}
		entries = append(entries, zipEntry{path: partPath, name: r.SplitPartName()})
		report(20 + (60*(i+1))/len(ranges))
	}

	if len(entries) == 1 {
		buf, err := readFile(entries[0].path)
		if err != nil {
			return nil, err
		}
		report(80)
		return &Output{
			Buffer:       buf,
			MimeType:     "application/pdf",
			FileNameBase: "split_document",
			Extension:    ".pdf",
		}, nil
	}

	zipPath := scratch.Join("split.zip")
	if err := buildZip(zipPath, entries); err != nil {
		return nil, err
	}
	buf, err := readFile(zipPath)
	if err != nil {
		return nil, err
	}
	report(80)

	return &Output{
		Buffer:       buf,
		MimeType:     "application/zip",
		FileNameBase: "split_document",
		Extension:    ".zip",
	}, nil
}
