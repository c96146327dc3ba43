package store

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	jobKeyPrefix   = "job:"
	pendingSetKey  = "jobs:pending"
	inProgressKey  = "jobs:inprogress"
	terminalSetKey = "jobs:terminal"
)

// Redis is the production Repository. Job records live as JSON blobs
// under job:{id}; jobs:pending and jobs:inprogress are sorted sets used
// as FIFO/membership indexes, and jobs:terminal is a sorted set scored
// by terminal-transition time that the retention sweeper scans.
//
// ClaimNext and IncrementAccessAndMaybeDelete use WATCH/MULTI on the
// job key so a losing concurrent caller sees redis.TxFailedErr and
// retries against the now-current state, rather than blindly
// overwriting whatever another caller just wrote.
type Redis struct {
	rdb             *redis.Client
	accessThreshold int
}

// NewRedis wraps an existing *redis.Client as a Repository.
func NewRedis(rdb *redis.Client, accessThreshold int) *Redis {
	if accessThreshold <= 0 {
		accessThreshold = DefaultAccessThreshold
	}
	return &Redis{rdb: rdb, accessThreshold: accessThreshold}
}

func jobKey(id string) string {
	return jobKeyPrefix + id
}

func (r *Redis) InsertPending(ctx context.Context, jobID, toolID string, inputPaths []string, options map[string]any) error {
	now := time.Now().UTC()
	j := &Job{
		ID:             jobID,
		ToolID:         toolID,
		Status:         StatusPending,
		Progress:       0,
		InputFilePaths: append([]string(nil), inputPaths...),
		Options:        options,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	payload, err := json.Marshal(j)
	if err != nil {
		return err
	}

	pipe := r.rdb.TxPipeline()
	pipe.Set(ctx, jobKey(jobID), payload, 0)
	pipe.ZAdd(ctx, pendingSetKey, redis.Z{Score: float64(now.UnixNano()), Member: jobID})
	_, err = pipe.Exec(ctx)
	return err
}

// ClaimNext pops the oldest pending job id and transitions it to
// in_progress, retrying against the live job data whenever a
// concurrent claimant wins the race for the same id.
func (r *Redis) ClaimNext(ctx context.Context, workerID string) (*Job, error) {
	for {
		ids, err := r.rdb.ZRangeWithScores(ctx, pendingSetKey, 0, 0).Result()
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			return nil, nil
		}
		id, _ := ids[0].Member.(string)
		key := jobKey(id)

		var claimed *Job
		var staleEntry bool

		txf := func(tx *redis.Tx) error {
			claimed = nil
			staleEntry = false

			data, err := tx.Get(ctx, key).Bytes()
			if err == redis.Nil {
				staleEntry = true
				_, err := tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
					p.ZRem(ctx, pendingSetKey, id)
					return nil
				})
				return err
			}
			if err != nil {
				return err
			}

			var j Job
			if err := json.Unmarshal(data, &j); err != nil {
				return err
			}
			if j.Status != StatusPending {
				staleEntry = true
				_, err := tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
					p.ZRem(ctx, pendingSetKey, id)
					return nil
				})
				return err
			}

			j.Status = StatusInProgress
			j.WorkerID = workerID
			j.Progress = 0
			j.UpdatedAt = time.Now().UTC()
			payload, err := json.Marshal(&j)
			if err != nil {
				return err
			}
			_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
				p.Set(ctx, key, payload, 0)
				p.ZRem(ctx, pendingSetKey, id)
				p.ZAdd(ctx, inProgressKey, redis.Z{Score: float64(j.UpdatedAt.UnixNano()), Member: id})
				return nil
			})
			if err != nil {
				return err
			}
			claimed = &j
			return nil
		}

		err = r.rdb.Watch(ctx, txf, key)
		if err == redis.TxFailedErr {
			continue
		}
		if err != nil {
			return nil, err
		}
		if staleEntry {
			continue
		}
		return claimed, nil
	}
}

func (r *Redis) UpdateProgress(ctx context.Context, jobID string, update ProgressUpdate) error {
	key := jobKey(jobID)
	for {
		var notFound bool

		txf := func(tx *redis.Tx) error {
			notFound = false
			data, err := tx.Get(ctx, key).Bytes()
			if err == redis.Nil {
				notFound = true
				return nil
			}
			if err != nil {
				return err
			}
			var j Job
			if err := json.Unmarshal(data, &j); err != nil {
				return err
			}
			wasTerminal := j.Status == StatusSucceeded || j.Status == StatusFailed
			applyProgressUpdate(&j, update)
			j.UpdatedAt = time.Now().UTC()
			nowTerminal := j.Status == StatusSucceeded || j.Status == StatusFailed
			if nowTerminal && !wasTerminal {
				j.TerminalAt = j.UpdatedAt
			}
			payload, err := json.Marshal(&j)
			if err != nil {
				return err
			}
			_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
				p.Set(ctx, key, payload, 0)
				if nowTerminal && !wasTerminal {
					p.ZRem(ctx, inProgressKey, jobID)
					p.ZAdd(ctx, terminalSetKey, redis.Z{Score: float64(j.TerminalAt.UnixNano()), Member: jobID})
				}
				return nil
			})
			return err
		}

		err := r.rdb.Watch(ctx, txf, key)
		if err == redis.TxFailedErr {
			continue
		}
		if err != nil {
			return err
		}
		if notFound {
			return ErrNotFound
		}
		return nil
	}
}

func (r *Redis) IncrementAccessAndMaybeDelete(ctx context.Context, jobID string) (AccessResult, error) {
	key := jobKey(jobID)
	for {
		var result AccessResult
		var notFound bool

		txf := func(tx *redis.Tx) error {
			notFound = false
			data, err := tx.Get(ctx, key).Bytes()
			if err == redis.Nil {
				notFound = true
				return nil
			}
			if err != nil {
				return err
			}
			var j Job
			if err := json.Unmarshal(data, &j); err != nil {
				return err
			}
			j.AccessCount++
			j.UpdatedAt = time.Now().UTC()

			if j.AccessCount > r.accessThreshold {
				_, err := tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
					p.Del(ctx, key)
					p.ZRem(ctx, terminalSetKey, jobID)
					p.ZRem(ctx, inProgressKey, jobID)
					p.ZRem(ctx, pendingSetKey, jobID)
					return nil
				})
				if err != nil {
					return err
				}
				result = AccessResult{Deleted: true, AccessCount: j.AccessCount}
				return nil
			}

			payload, err := json.Marshal(&j)
			if err != nil {
				return err
			}
			_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
				p.Set(ctx, key, payload, 0)
				return nil
			})
			if err != nil {
				return err
			}
			result = AccessResult{Deleted: false, AccessCount: j.AccessCount}
			return nil
		}

		err := r.rdb.Watch(ctx, txf, key)
		if err == redis.TxFailedErr {
			continue
		}
		if err != nil {
			return AccessResult{}, err
		}
		if notFound {
			return AccessResult{}, ErrNotFound
		}
		return result, nil
	}
}

func (r *Redis) Get(ctx context.Context, jobID string) (*Job, error) {
	data, err := r.rdb.Get(ctx, jobKey(jobID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var j Job
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, err
	}
	return &j, nil
}

func (r *Redis) QueueCounts(ctx context.Context) (QueueCounts, error) {
	pipe := r.rdb.Pipeline()
	pendingCard := pipe.ZCard(ctx, pendingSetKey)
	inProgressCard := pipe.ZCard(ctx, inProgressKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return QueueCounts{}, err
	}
	return QueueCounts{
		Pending:    int(pendingCard.Val()),
		InProgress: int(inProgressCard.Val()),
	}, nil
}

func (r *Redis) SweepTerminalOlderThan(ctx context.Context, age time.Duration) ([]*Job, error) {
	cutoff := time.Now().UTC().Add(-age).UnixNano()
	ids, err := r.rdb.ZRangeByScore(ctx, terminalSetKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(cutoff, 10),
	}).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = jobKey(id)
	}
	values, err := r.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	out := make([]*Job, 0, len(values))
	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var j Job
		if err := json.Unmarshal([]byte(s), &j); err != nil {
			continue
		}
		out = append(out, &j)
	}
	return out, nil
}

func (r *Redis) Delete(ctx context.Context, jobID string) error {
	pipe := r.rdb.TxPipeline()
	pipe.Del(ctx, jobKey(jobID))
	pipe.ZRem(ctx, pendingSetKey, jobID)
	pipe.ZRem(ctx, inProgressKey, jobID)
	pipe.ZRem(ctx, terminalSetKey, jobID)
	_, err := pipe.Exec(ctx)
	return err
}
