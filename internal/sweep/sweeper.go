// Package sweep implements the Retention Sweeper (spec.md §4.7):
// terminal jobs older than the retention window lose their processed
// artifact and their record, in that order.
package sweep

import (
	"context"
	"log"
	"time"

	"github.com/AnjaneyaKaushik/docsmart-backend/internal/artifact"
	"github.com/AnjaneyaKaushik/docsmart-backend/internal/store"
)

// Sweeper runs on a fixed interval, started once per process (spec.md
// §4.7). It never touches a job that is not yet terminal, regardless
// of age.
type Sweeper struct {
	Repo            store.Repository
	Artifacts       artifact.Store
	RetentionWindow time.Duration
	Interval        time.Duration
	Logger          *log.Logger
}

func New(repo store.Repository, artifacts artifact.Store, retentionWindow, interval time.Duration, logger *log.Logger) *Sweeper {
	return &Sweeper{
		Repo:            repo,
		Artifacts:       artifacts,
		RetentionWindow: retentionWindow,
		Interval:        interval,
		Logger:          logger,
	}
}

// Start blocks, sweeping every Interval, until ctx is cancelled.
func (s *Sweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.sweepOnce(ctx); err != nil {
				s.logf("sweep error: %v", err)
			}
		}
	}
}

func (s *Sweeper) sweepOnce(ctx context.Context) error {
	jobs, err := s.Repo.SweepTerminalOlderThan(ctx, s.RetentionWindow)
	if err != nil {
		return err
	}

	for _, job := range jobs {
		// Artifact before record: a crash between the two leaves an
		// orphaned record pointing at a deleted file, never a record-less
		// artifact leak (spec.md §4.2, §9).
		if err := s.Artifacts.DeletePrefix(ctx, artifact.BucketProcessed, artifact.OutputPrefix(job.ID)); err != nil {
			s.logf("job %s: failed to delete processed artifact during sweep: %v", job.ID, err)
			continue
		}
		if err := s.Repo.Delete(ctx, job.ID); err != nil {
			s.logf("job %s: failed to delete job record during sweep: %v", job.ID, err)
		}
	}
	return nil
}

func (s *Sweeper) logf(format string, args ...any) {
	if s.Logger != nil {
		s.Logger.Printf(format, args...)
	}
}
