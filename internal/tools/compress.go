package tools

import (
	"bytes"
	"context"
	"os/exec"

	"github.com/AnjaneyaKaushik/docsmart-backend/internal/apierr"
	"github.com/AnjaneyaKaushik/docsmart-backend/internal/compress"
)

// compressHandler shells out to Ghostscript with the argument set the
// Compression Profiler resolves for the requested level (spec.md
// §4.3: compress, §4.4).
type compressHandler struct {
	cfg      HandlerConfig
	profiler *compress.Profiler
}

func (h *compressHandler) profilerOrDefault() *compress.Profiler {
	if h.profiler == nil {
		h.profiler = compress.NewProfiler()
	}
	return h.profiler
}

func (h *compressHandler) Handle(ctx context.Context, inputPaths []string, options map[string]any, report ProgressFunc) (*Output, error) {
	if len(inputPaths) != 1 {
		return nil, apierr.New(apierr.CodeInvalidInput, "compress requires exactly 1 input file", nil)
	}

	rawLevel, _ := options["compressionLevel"].(string)
	level := h.profilerOrDefault().Resolve(rawLevel)

	scratch, err := newScratchDir()
	if err != nil {
		return nil, err
	}
	defer scratch.Close()

	outputPath := scratch.Join("compressed.pdf")
	args := h.profilerOrDefault().BuildArgs(level, false, inputPaths[0], outputPath)

	report(30)
	cmd := exec.CommandContext(ctx, h.cfg.GhostscriptPath, args...)
	var stderr bytes.Buffer
	cmd.Stdout = &stderr
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, apierr.Toolf("compress", err, stderr.String())
	}
	report(80)

	buf, err := readFile(outputPath)
	if err != nil {
		return nil, err
	}
	return &Output{
		Buffer:       buf,
		MimeType:     "application/pdf",
		FileNameBase: "compressed_document",
		Extension:    ".pdf",
	}, nil
}
