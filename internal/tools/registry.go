// Package tools implements the Tool Registry & Handlers: one handler
// per tool_id, each a pure function from (local input paths, options)
// to an output buffer plus naming metadata (spec.md §4.3).
package tools

import (
	"context"
	"fmt"
)

// ID enumerates the tool_id values a job may carry.
type ID string

const (
	Merge          ID = "merge"
	Split          ID = "split"
	Rotate         ID = "rotate"
	Remove         ID = "remove"
	ImageToPDF     ID = "img2pdf"
	PDFToImage     ID = "pdf2img"
	PDFToWord      ID = "pdfToWord"
	DocxToPDF      ID = "docxToPdf"
	ProtectPDF     ID = "protectPdf"
	UnlockPDF      ID = "unlockPdf"
	AddWatermark   ID = "addWatermark"
	AddPageNumbers ID = "addPageNumbers"
	RepairPDF      ID = "repairPdf"
	Compress       ID = "compress"
	ExtractText    ID = "extractText"
)

// Output is what a handler produces: bytes plus enough naming metadata
// for the worker to build the final artifact name.
type Output struct {
	Buffer       []byte
	MimeType     string
	FileNameBase string
	Extension    string
}

// ProgressFunc lets a handler emit synchronous progress updates while
// it runs; the worker maps these onto the job's 20-80% band (spec.md
// §4.5 step 4).
type ProgressFunc func(percent int)

// Handler is the uniform contract every tool implements (spec.md
// §4.3). Handlers are pure with respect to the job repository: they
// only read local input files and options and return bytes. They must
// delete their own scratch files on every exit path and must honor
// ctx cancellation.
type Handler interface {
	Handle(ctx context.Context, inputPaths []string, options map[string]any, report ProgressFunc) (*Output, error)
}

// Registry dispatches a tool_id to its Handler.
type Registry struct {
	handlers map[ID]Handler
}

// ErrUnknownTool is returned by Dispatch for an unregistered tool_id.
type ErrUnknownTool struct{ ToolID string }

func (e *ErrUnknownTool) Error() string {
	return fmt.Sprintf("tools: unknown tool_id %q", e.ToolID)
}

// NewRegistry wires every built-in tool handler.
func NewRegistry(cfg HandlerConfig) *Registry {
	return &Registry{
		handlers: map[ID]Handler{
			Merge:          &mergeHandler{},
			Split:          &splitHandler{},
			Rotate:         &rotateHandler{},
			Remove:         &removeHandler{},
			ImageToPDF:     &imageToPDFHandler{},
			PDFToImage:     &pdfToImageHandler{cfg: cfg},
			PDFToWord:      &officeHandler{cfg: cfg, toDocx: true},
			DocxToPDF:      &officeHandler{cfg: cfg, toDocx: false},
			ProtectPDF:     &protectHandler{},
			UnlockPDF:      &unlockHandler{},
			AddWatermark:   &watermarkHandler{},
			AddPageNumbers: &pageNumbersHandler{},
			RepairPDF:      &repairHandler{},
			Compress:       &compressHandler{cfg: cfg},
			ExtractText:    &extractTextHandler{cfg: cfg},
		},
	}
}

// HandlerConfig carries the ambient settings handlers need (subprocess
// paths) without importing internal/config directly. Per-tool timeouts
// are applied by the worker, not here.
type HandlerConfig struct {
	GhostscriptPath string
	LibreOfficePath string
	PdftotextPath   string
}

// Dispatch resolves and invokes the handler for id.
func (r *Registry) Dispatch(ctx context.Context, id ID, inputPaths []string, options map[string]any, report ProgressFunc) (*Output, error) {
	h, ok := r.handlers[id]
	if !ok {
		return nil, &ErrUnknownTool{ToolID: string(id)}
	}
	return h.Handle(ctx, inputPaths, options, report)
}
