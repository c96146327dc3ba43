package tools

import (
	"math"

	"github.com/AnjaneyaKaushik/docsmart-backend/internal/apierr"
)

// Validate checks a submission against its tool's arity and option
// shape before any file is uploaded (spec.md §4.5 step 1, §7): an
// unknown tool_id, the wrong number of files, or a malformed option
// (bad page range, bad rotation angle, missing password) must be
// surfaced as a 400 at submission and must never reach a worker.
//
// Options bound to file content the worker hasn't seen yet (split's
// pageRange against the real page count) are checked structurally
// here with an unbounded page count; the worker re-validates against
// the true page count when it actually opens the file.
func (r *Registry) Validate(id ID, fileCount int, options map[string]any) error {
	if _, ok := r.handlers[id]; !ok {
		return apierr.New(apierr.CodeInvalidInput, "unknown tool_id: "+string(id), nil)
	}

	switch id {
	case Merge:
		if fileCount < 2 {
			return apierr.New(apierr.CodeInvalidInput, "merge requires at least 2 input files", nil)
		}
	case ImageToPDF:
		if fileCount < 1 {
			return apierr.New(apierr.CodeInvalidInput, "img2pdf requires at least 1 image", nil)
		}
	default:
		if fileCount != 1 {
			return apierr.New(apierr.CodeInvalidInput, string(id)+" requires exactly 1 input file", nil)
		}
	}

	switch id {
	case Split:
		rawRange, _ := options["pageRange"].(string)
		if rawRange == "" {
			return apierr.New(apierr.CodeInvalidInput, "split requires a pageRange option", nil)
		}
		if _, err := ParsePageRanges(rawRange, math.MaxInt32); err != nil {
			return err
		}
	case Rotate:
		if _, err := rotationAngle(options); err != nil {
			return err
		}
		if _, err := intSliceOption(options, "pages"); err != nil {
			return err
		}
	case Remove:
		if _, err := intSliceOption(options, "pages"); err != nil {
			return err
		}
	case ProtectPDF:
		password, _ := options["password"].(string)
		if password == "" {
			return apierr.New(apierr.CodeInvalidInput, "protectPdf requires a non-empty password", nil)
		}
	}

	return nil
}
