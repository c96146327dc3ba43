package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

func insertPending(t *testing.T, repo *Memory, ctx context.Context, toolID string, inputPaths []string) string {
	t.Helper()
	id := uuid.NewString()
	if err := repo.InsertPending(ctx, id, toolID, inputPaths, nil); err != nil {
		t.Fatalf("InsertPending: %v", err)
	}
	return id
}

func TestClaimNextOrdersByCreatedAt(t *testing.T) {
	repo := NewMemory(3)
	ctx := context.Background()

	first := insertPending(t, repo, ctx, "merge", []string{"a"})
	second := insertPending(t, repo, ctx, "merge", []string{"b"})

	claimed, err := repo.ClaimNext(ctx, "worker-1")
	if err != nil {
		t.Fatalf("ClaimNext: %v", err)
	}
	if claimed == nil {
		t.Fatal("expected a claimed job, got nil")
	}
	if claimed.ID != first {
		t.Fatalf("expected oldest job %q claimed first, got %q", first, claimed.ID)
	}
	if claimed.Status != StatusInProgress {
		t.Fatalf("expected status in_progress, got %s", claimed.Status)
	}
	if claimed.WorkerID != "worker-1" {
		t.Fatalf("expected worker_id set, got %q", claimed.WorkerID)
	}

	next, err := repo.ClaimNext(ctx, "worker-2")
	if err != nil {
		t.Fatalf("ClaimNext: %v", err)
	}
	if next == nil || next.ID != second {
		t.Fatalf("expected second job %q claimed next, got %#v", second, next)
	}

	if none, err := repo.ClaimNext(ctx, "worker-3"); err != nil || none != nil {
		t.Fatalf("expected no pending jobs left, got job=%#v err=%v", none, err)
	}
}

// TestClaimNextInjective is the concurrency property from spec §8: for N
// concurrent claimants and a fixed set of pending jobs, every job is
// observed as claimed by exactly one worker.
func TestClaimNextInjective(t *testing.T) {
	repo := NewMemory(3)
	ctx := context.Background()

	const numJobs = 50
	const numWorkers = 10

	ids := make(map[string]bool, numJobs)
	for i := 0; i < numJobs; i++ {
		id := insertPending(t, repo, ctx, "merge", []string{"a"})
		ids[id] = true
	}

	var mu sync.Mutex
	claimedBy := make(map[string]string)

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		workerID := workerName(w)
		go func() {
			defer wg.Done()
			for {
				job, err := repo.ClaimNext(ctx, workerID)
				if err != nil {
					t.Errorf("ClaimNext: %v", err)
					return
				}
				if job == nil {
					return
				}
				mu.Lock()
				if prior, ok := claimedBy[job.ID]; ok {
					t.Errorf("job %s claimed twice: by %s and %s", job.ID, prior, workerID)
				}
				claimedBy[job.ID] = workerID
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(claimedBy) != numJobs {
		t.Fatalf("expected %d jobs claimed, got %d", numJobs, len(claimedBy))
	}
	for id := range ids {
		if _, ok := claimedBy[id]; !ok {
			t.Fatalf("job %s was never claimed", id)
		}
	}
}

func workerName(i int) string {
	const letters = "0123456789abcdefghij"
	return "worker-" + string(letters[i%len(letters)])
}

func TestUpdateProgressMonotone(t *testing.T) {
	repo := NewMemory(3)
	ctx := context.Background()

	id := insertPending(t, repo, ctx, "compress", []string{"a"})
	if _, err := repo.ClaimNext(ctx, "worker-1"); err != nil {
		t.Fatalf("ClaimNext: %v", err)
	}

	if err := repo.UpdateProgress(ctx, id, ProgressUpdate{Status: StatusInProgress, Progress: 40}); err != nil {
		t.Fatalf("UpdateProgress: %v", err)
	}
	if err := repo.UpdateProgress(ctx, id, ProgressUpdate{Status: StatusInProgress, Progress: 20}); err != nil {
		t.Fatalf("UpdateProgress: %v", err)
	}

	job, err := repo.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if job.Progress != 40 {
		t.Fatalf("expected progress to stay at monotone max 40, got %d", job.Progress)
	}

	fileName := "out.pdf"
	if err := repo.UpdateProgress(ctx, id, ProgressUpdate{Status: StatusSucceeded, Progress: 100, FileName: &fileName}); err != nil {
		t.Fatalf("UpdateProgress: %v", err)
	}
	job, _ = repo.Get(ctx, id)
	if job.Progress != 100 || job.Status != StatusSucceeded || job.FileName != fileName {
		t.Fatalf("unexpected job after success update: %#v", job)
	}
	if job.TerminalAt.IsZero() {
		t.Fatal("expected TerminalAt to be set on terminal transition")
	}
}

func TestUpdateProgressFailedResetsToZero(t *testing.T) {
	repo := NewMemory(3)
	ctx := context.Background()

	id := insertPending(t, repo, ctx, "compress", []string{"a"})
	repo.ClaimNext(ctx, "worker-1")
	repo.UpdateProgress(ctx, id, ProgressUpdate{Status: StatusInProgress, Progress: 60})

	errMsg := "tool exit 1"
	if err := repo.UpdateProgress(ctx, id, ProgressUpdate{Status: StatusFailed, Progress: 0, ErrorMessage: &errMsg}); err != nil {
		t.Fatalf("UpdateProgress: %v", err)
	}

	job, _ := repo.Get(ctx, id)
	if job.Status != StatusFailed || job.Progress != 0 {
		t.Fatalf("expected failed job with progress 0, got %#v", job)
	}
	if job.ErrorMessage != errMsg {
		t.Fatalf("expected error message %q, got %q", errMsg, job.ErrorMessage)
	}
}

// TestAccessCountBoundary is the property from spec §8: at most 3
// non-deleted responses across all concurrent invocations for a given
// job, and the 4th (and every later) invocation returns deleted=true.
func TestAccessCountBoundary(t *testing.T) {
	repo := NewMemory(3)
	ctx := context.Background()

	id := insertPending(t, repo, ctx, "merge", []string{"a"})
	repo.ClaimNext(ctx, "worker-1")
	url := "https://example.test/output.pdf"
	name := "out.pdf"
	repo.UpdateProgress(ctx, id, ProgressUpdate{Status: StatusSucceeded, Progress: 100, PublicURL: &url, FileName: &name})

	for i := 1; i <= 3; i++ {
		result, err := repo.IncrementAccessAndMaybeDelete(ctx, id)
		if err != nil {
			t.Fatalf("IncrementAccessAndMaybeDelete #%d: %v", i, err)
		}
		if result.Deleted {
			t.Fatalf("download #%d unexpectedly triggered deletion", i)
		}
		if result.AccessCount != i {
			t.Fatalf("download #%d: expected access count %d, got %d", i, i, result.AccessCount)
		}
	}

	fourth, err := repo.IncrementAccessAndMaybeDelete(ctx, id)
	if err != nil {
		t.Fatalf("IncrementAccessAndMaybeDelete #4: %v", err)
	}
	if !fourth.Deleted {
		t.Fatal("expected 4th download to trigger deletion")
	}

	if job, err := repo.Get(ctx, id); err != nil || job != nil {
		t.Fatalf("expected job to be gone after deletion, got job=%#v err=%v", job, err)
	}

	if _, err := repo.IncrementAccessAndMaybeDelete(ctx, id); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound after deletion, got %v", err)
	}
}

func TestAccessCountBoundaryUnderConcurrency(t *testing.T) {
	repo := NewMemory(3)
	ctx := context.Background()

	id := insertPending(t, repo, ctx, "merge", []string{"a"})
	repo.ClaimNext(ctx, "worker-1")
	url := "https://example.test/output.pdf"
	name := "out.pdf"
	repo.UpdateProgress(ctx, id, ProgressUpdate{Status: StatusSucceeded, Progress: 100, PublicURL: &url, FileName: &name})

	const attempts = 20
	var mu sync.Mutex
	nonDeleted := 0
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := repo.IncrementAccessAndMaybeDelete(ctx, id)
			if err != nil {
				return
			}
			if !result.Deleted {
				mu.Lock()
				nonDeleted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if nonDeleted != 3 {
		t.Fatalf("expected exactly 3 non-deleted responses under concurrency, got %d", nonDeleted)
	}
}

func TestQueueCounts(t *testing.T) {
	repo := NewMemory(3)
	ctx := context.Background()

	insertPending(t, repo, ctx, "merge", []string{"a"})
	insertPending(t, repo, ctx, "merge", []string{"a"})
	repo.ClaimNext(ctx, "worker-1")

	counts, err := repo.QueueCounts(ctx)
	if err != nil {
		t.Fatalf("QueueCounts: %v", err)
	}
	if counts.Pending != 1 || counts.InProgress != 1 {
		t.Fatalf("unexpected queue counts: %#v", counts)
	}
}

func TestSweepTerminalOlderThan(t *testing.T) {
	repo := NewMemory(3)
	ctx := context.Background()

	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return clock }

	oldID := insertPending(t, repo, ctx, "compress", []string{"a"})
	repo.ClaimNext(ctx, "worker-1")
	repo.UpdateProgress(ctx, oldID, ProgressUpdate{Status: StatusFailed, Progress: 0})

	freshID := insertPending(t, repo, ctx, "compress", []string{"a"})
	repo.ClaimNext(ctx, "worker-1")

	clock = clock.Add(15 * time.Minute)
	repo.UpdateProgress(ctx, freshID, ProgressUpdate{Status: StatusFailed, Progress: 0})

	swept, err := repo.SweepTerminalOlderThan(ctx, 10*time.Minute)
	if err != nil {
		t.Fatalf("SweepTerminalOlderThan: %v", err)
	}
	if len(swept) != 1 || swept[0].ID != oldID {
		t.Fatalf("expected only %q swept, got %#v", oldID, swept)
	}

	if err := repo.Delete(ctx, oldID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if job, err := repo.Get(ctx, oldID); err != nil || job != nil {
		t.Fatalf("expected job removed after Delete, got job=%#v err=%v", job, err)
	}
	if job, err := repo.Get(ctx, freshID); err != nil || job == nil {
		t.Fatalf("expected recent terminal job untouched, got job=%#v err=%v", job, err)
	}
}
