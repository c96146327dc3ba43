// Package worker implements the Worker Loop (spec.md §4.5): claim,
// download inputs, dispatch to a tool handler, upload the result,
// advance job state, clean up.
package worker

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/AnjaneyaKaushik/docsmart-backend/internal/apierr"
	"github.com/AnjaneyaKaushik/docsmart-backend/internal/artifact"
	"github.com/AnjaneyaKaushik/docsmart-backend/internal/store"
	"github.com/AnjaneyaKaushik/docsmart-backend/internal/tools"
)

// Wake is satisfied by queue.Consumer; kept as an interface here so
// this package does not import internal/queue directly.
type Wake interface {
	Wake() <-chan struct{}
}

// HandlerTimeouts maps a tool_id to its soft execution deadline
// (spec.md §5). Office tools get the longer of the two defaults.
type HandlerTimeouts struct {
	Default time.Duration
	Office  time.Duration
}

func (t HandlerTimeouts) For(id tools.ID) time.Duration {
	switch id {
	case tools.PDFToWord, tools.DocxToPDF:
		return t.Office
	default:
		return t.Default
	}
}

// Worker runs one poll/claim/dispatch loop. Multiple Workers share one
// Repository and Store; parallelism comes from running several
// Workers, never from concurrency inside one (spec.md §5, §9).
type Worker struct {
	ID           string
	Repo         store.Repository
	Artifacts    artifact.Store
	Registry     *tools.Registry
	PollInterval time.Duration
	Timeouts     HandlerTimeouts
	Wake         Wake
	Logger       *log.Logger
}

// New builds a Worker with a fresh unique id.
func New(repo store.Repository, artifacts artifact.Store, registry *tools.Registry, pollInterval time.Duration, timeouts HandlerTimeouts, wake Wake, logger *log.Logger) *Worker {
	return &Worker{
		ID:           uuid.NewString(),
		Repo:         repo,
		Artifacts:    artifacts,
		Registry:     registry,
		PollInterval: pollInterval,
		Timeouts:     timeouts,
		Wake:         wake,
		Logger:       logger,
	}
}

// Run polls until ctx is cancelled. On an empty queue it sleeps
// PollInterval, waking early if Wake fires (spec.md §4.5 step 1).
func (w *Worker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		job, err := w.Repo.ClaimNext(ctx, w.ID)
		if err != nil {
			w.logf("claim_next error: %v", err)
			w.sleep(ctx)
			continue
		}
		if job == nil {
			w.sleep(ctx)
			continue
		}

		w.process(ctx, job)
	}
}

func (w *Worker) sleep(ctx context.Context) {
	timer := time.NewTimer(w.PollInterval)
	defer timer.Stop()

	var wakeCh <-chan struct{}
	if w.Wake != nil {
		wakeCh = w.Wake.Wake()
	}

	select {
	case <-ctx.Done():
	case <-timer.C:
	case <-wakeCh:
	}
}

func (w *Worker) process(ctx context.Context, job *store.Job) {
	scratchDir, err := newScratch(job.ID)
	if err != nil {
		w.fail(ctx, job.ID, apierr.New(apierr.CodeInternal, "unable to create scratch directory", err))
		return
	}
	defer scratchDir.close()
	defer w.cleanupRawInputs(ctx, job)

	w.reportProgress(ctx, job.ID, 10)

	localPaths, err := w.downloadInputs(ctx, job, scratchDir)
	if err != nil {
		w.fail(ctx, job.ID, err)
		return
	}

	w.reportProgress(ctx, job.ID, 20)

	timeout := w.Timeouts.For(tools.ID(job.ToolID))
	handlerCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	report := func(percent int) {
		if percent < 20 {
			percent = 20
		}
		if percent > 80 {
			percent = 80
		}
		w.reportProgress(ctx, job.ID, percent)
	}

	out, err := w.Registry.Dispatch(handlerCtx, tools.ID(job.ToolID), localPaths, job.Options, report)
	if err != nil {
		if handlerCtx.Err() == context.DeadlineExceeded {
			w.fail(ctx, job.ID, apierr.New(apierr.CodeTimeout, fmt.Sprintf("tool %s exceeded its %s timeout", job.ToolID, timeout), err))
			return
		}
		w.fail(ctx, job.ID, err)
		return
	}

	w.reportProgress(ctx, job.ID, 80)

	finalName := finalOutputName(job.ID, out.FileNameBase, out.Extension)
	outPath := artifact.OutputPath(job.ID, finalName)
	publicURL, err := w.Artifacts.Upload(ctx, artifact.BucketProcessed, outPath, bytes.NewReader(out.Buffer), int64(len(out.Buffer)), out.MimeType)
	if err != nil {
		w.fail(ctx, job.ID, apierr.New(apierr.CodeToolFailure, "failed to upload result artifact", err))
		return
	}

	size := int64(len(out.Buffer))
	if err := w.markSucceeded(ctx, job.ID, finalName, publicURL, outPath, size); err != nil {
		w.logf("job %s: succeeded but state update failed, will retry: %v", job.ID, err)
		_ = w.markSucceeded(ctx, job.ID, finalName, publicURL, outPath, size)
	}
}

func (w *Worker) downloadInputs(ctx context.Context, job *store.Job, scratchDir *scratch) ([]string, error) {
	paths := make([]string, len(job.InputFilePaths))
	for i, p := range job.InputFilePaths {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		rc, err := w.Artifacts.Download(ctx, artifact.BucketRawInputs, p)
		if err != nil {
			return nil, apierr.New(apierr.CodeToolFailure, "failed to download input artifact", err)
		}

		localPath := scratchDir.join(filepath.Base(p))
		if err := scratchDir.writeFrom(localPath, rc); err != nil {
			rc.Close()
			return nil, apierr.New(apierr.CodeToolFailure, "failed to stage input artifact locally", err)
		}
		rc.Close()

		paths[i] = localPath
		w.reportProgress(ctx, job.ID, 10+(10*(i+1))/len(job.InputFilePaths))
	}
	return paths, nil
}

func (w *Worker) cleanupRawInputs(ctx context.Context, job *store.Job) {
	if err := w.Artifacts.DeletePrefix(ctx, artifact.BucketRawInputs, artifact.RawInputPrefix(job.ID)); err != nil {
		w.logf("job %s: failed to clean up raw inputs: %v", job.ID, err)
	}
}

func (w *Worker) reportProgress(ctx context.Context, jobID string, percent int) {
	if err := w.Repo.UpdateProgress(ctx, jobID, store.ProgressUpdate{Status: store.StatusInProgress, Progress: percent}); err != nil {
		w.logf("job %s: progress update failed: %v", jobID, err)
	}
}

func (w *Worker) markSucceeded(ctx context.Context, jobID, fileName, publicURL, outputPath string, size int64) error {
	return w.Repo.UpdateProgress(ctx, jobID, store.ProgressUpdate{
		Status:     store.StatusSucceeded,
		Progress:   100,
		FileName:   &fileName,
		PublicURL:  &publicURL,
		OutputPath: &outputPath,
		FileSize:   &size,
	})
}

// fail marks the job failed with a sanitized error message (spec.md
// §4.5 step 7, §7): tool name, exit-code-bearing cause, truncated
// stderr. Never a password or authorization header.
func (w *Worker) fail(ctx context.Context, jobID string, cause error) {
	msg := cause.Error()
	if apiErr, ok := cause.(*apierr.Error); ok {
		msg = apiErr.Error()
	}
	if err := w.Repo.UpdateProgress(ctx, jobID, store.ProgressUpdate{
		Status:       store.StatusFailed,
		Progress:     0,
		ErrorMessage: &msg,
	}); err != nil {
		w.logf("job %s: failed to record failure state: %v", jobID, err)
	}
}

func (w *Worker) logf(format string, args ...any) {
	if w.Logger != nil {
		w.Logger.Printf(format, args...)
	}
}

// finalOutputName implements the naming rule from spec.md §4.3:
// DocSmart_{baseProcessedFileName}_{first 8 of job id}{extension}.
func finalOutputName(jobID, base, extension string) string {
	shortID := jobID
	if len(shortID) > 8 {
		shortID = shortID[:8]
	}
	return fmt.Sprintf("DocSmart_%s_%s%s", base, shortID, extension)
}
