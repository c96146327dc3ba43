package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Repository methods when a job id does not
// exist (already swept, already deleted, or never inserted).
var ErrNotFound = errors.New("job not found")

// DefaultAccessThreshold is the default access-count cap (spec.md
// §4.6). NewMemory and NewRedis take the threshold as an argument and
// fall back to this value when it is zero or negative.
const DefaultAccessThreshold = 3

// Repository is the Job Repository (spec.md §4.1). It exclusively owns
// state transitions; callers never mutate a Job's fields directly.
//
// ClaimNext and IncrementAccessAndMaybeDelete are the only
// read-modify-write primitives and must be implemented as atomic
// operations: no two concurrent callers may observe the same pending
// job as claimed, and the access counter must never exceed its
// threshold across concurrent callers.
type Repository interface {
	InsertPending(ctx context.Context, jobID, toolID string, inputPaths []string, options map[string]any) error
	ClaimNext(ctx context.Context, workerID string) (*Job, error)
	UpdateProgress(ctx context.Context, jobID string, update ProgressUpdate) error
	IncrementAccessAndMaybeDelete(ctx context.Context, jobID string) (AccessResult, error)
	Get(ctx context.Context, jobID string) (*Job, error)
	QueueCounts(ctx context.Context) (QueueCounts, error)
	SweepTerminalOlderThan(ctx context.Context, age time.Duration) ([]*Job, error)
	Delete(ctx context.Context, jobID string) error
}
