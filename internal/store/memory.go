package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Memory is an in-process Repository backed by a mutex-guarded map. It
// implements the exact same atomicity contract as the Redis-backed
// Repository and is used for local development without a Redis
// instance and for the property tests in memory_test.go.
type Memory struct {
	mu              sync.Mutex
	jobs            map[string]*Job
	accessThreshold int
	now             func() time.Time
}

// NewMemory creates an empty in-memory Repository.
func NewMemory(accessThreshold int) *Memory {
	if accessThreshold <= 0 {
		accessThreshold = DefaultAccessThreshold
	}
	return &Memory{
		jobs:            make(map[string]*Job),
		accessThreshold: accessThreshold,
		now:             time.Now,
	}
}

func (m *Memory) InsertPending(_ context.Context, jobID, toolID string, inputPaths []string, options map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now().UTC()
	m.jobs[jobID] = &Job{
		ID:             jobID,
		ToolID:         toolID,
		Status:         StatusPending,
		Progress:       0,
		InputFilePaths: append([]string(nil), inputPaths...),
		Options:        options,
		AccessCount:    0,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	return nil
}

func (m *Memory) ClaimNext(_ context.Context, workerID string) (*Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var candidates []*Job
	for _, j := range m.jobs {
		if j.Status == StatusPending {
			candidates = append(candidates, j)
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	sort.Slice(candidates, func(i, k int) bool {
		return candidates[i].CreatedAt.Before(candidates[k].CreatedAt)
	})

	claimed := candidates[0]
	claimed.Status = StatusInProgress
	claimed.WorkerID = workerID
	claimed.Progress = 0
	claimed.UpdatedAt = m.now().UTC()

	cp := *claimed
	cp.InputFilePaths = append([]string(nil), claimed.InputFilePaths...)
	return &cp, nil
}

func (m *Memory) UpdateProgress(_ context.Context, jobID string, update ProgressUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	j, ok := m.jobs[jobID]
	if !ok {
		return ErrNotFound
	}
	applyProgressUpdate(j, update)
	j.UpdatedAt = m.now().UTC()
	if j.Status == StatusSucceeded || j.Status == StatusFailed {
		j.TerminalAt = j.UpdatedAt
	}
	return nil
}

func (m *Memory) IncrementAccessAndMaybeDelete(_ context.Context, jobID string) (AccessResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	j, ok := m.jobs[jobID]
	if !ok {
		return AccessResult{}, ErrNotFound
	}
	j.AccessCount++
	j.UpdatedAt = m.now().UTC()
	if j.AccessCount > m.accessThreshold {
		delete(m.jobs, jobID)
		return AccessResult{Deleted: true, AccessCount: j.AccessCount}, nil
	}
	return AccessResult{Deleted: false, AccessCount: j.AccessCount}, nil
}

func (m *Memory) Get(_ context.Context, jobID string) (*Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	j, ok := m.jobs[jobID]
	if !ok {
		return nil, nil
	}
	cp := *j
	cp.InputFilePaths = append([]string(nil), j.InputFilePaths...)
	return &cp, nil
}

func (m *Memory) QueueCounts(_ context.Context) (QueueCounts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var qc QueueCounts
	for _, j := range m.jobs {
		switch j.Status {
		case StatusPending:
			qc.Pending++
		case StatusInProgress:
			qc.InProgress++
		}
	}
	return qc, nil
}

func (m *Memory) SweepTerminalOlderThan(_ context.Context, age time.Duration) ([]*Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().UTC().Add(-age)
	var out []*Job
	for _, j := range m.jobs {
		if (j.Status == StatusSucceeded || j.Status == StatusFailed) && j.TerminalAt.Before(cutoff) {
			cp := *j
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *Memory) Delete(_ context.Context, jobID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.jobs, jobID)
	return nil
}

// applyProgressUpdate mutates j in place per update, rejecting a lower
// progress value than the one already recorded (spec.md §5: progress is
// monotone within a status).
func applyProgressUpdate(j *Job, update ProgressUpdate) {
	if update.Status != "" {
		j.Status = update.Status
	}
	if update.Progress > j.Progress || j.Status == StatusPending {
		j.Progress = update.Progress
	}
	if update.FileName != nil {
		j.FileName = *update.FileName
	}
	if update.PublicURL != nil {
		j.PublicURL = *update.PublicURL
	}
	if update.OutputPath != nil {
		j.OutputPath = *update.OutputPath
	}
	if update.ErrorMessage != nil {
		j.ErrorMessage = *update.ErrorMessage
	}
	if update.FileSize != nil {
		j.FileSize = *update.FileSize
	}
	switch j.Status {
	case StatusSucceeded:
		j.Progress = 100
	case StatusFailed:
		j.Progress = 0
	}
}
