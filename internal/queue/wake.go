// Package queue layers an optional wake notification on top of the
// worker loop's poll (spec.md §4.5 still governs the literal poll
// interval; this only shortens the wait when a job was just
// submitted). It is not the job queue itself — that is
// internal/store's pending sorted set.
package queue

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
)

const wakeTaskType = "jobs:wake"

// Publisher enqueues a wake task whenever a job is inserted, so an
// idle worker does not have to wait out a full poll_interval before
// noticing new work.
type Publisher struct {
	client *asynq.Client
}

// NewPublisher parses a redis://... URL the same way the rest of the
// service does (config.QueueRedisURL) and builds an asynq client.
func NewPublisher(redisURL string) (*Publisher, error) {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse queue redis url: %w", err)
	}
	return &Publisher{client: asynq.NewClient(opt)}, nil
}

// Notify enqueues a best-effort wake signal. Failure to enqueue is not
// fatal: the worker will still see the job on its next poll tick.
func (p *Publisher) Notify(ctx context.Context) error {
	task := asynq.NewTask(wakeTaskType, nil)
	_, err := p.client.EnqueueContext(ctx, task, asynq.MaxRetry(0), asynq.Queue("wake"))
	return err
}

func (p *Publisher) Close() error {
	return p.client.Close()
}

// Consumer runs an asynq server whose sole handler forwards each wake
// task onto a channel a worker loop selects on alongside its poll
// ticker.
type Consumer struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	wakeCh chan struct{}
}

// NewConsumer builds a Consumer. Concurrency is 1: the handler does no
// real work, it only signals wakeCh, so there is nothing to
// parallelize.
func NewConsumer(redisURL string) (*Consumer, error) {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse queue redis url: %w", err)
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: 1,
		Queues:      map[string]int{"wake": 1},
	})
	mux := asynq.NewServeMux()

	c := &Consumer{server: server, mux: mux, wakeCh: make(chan struct{}, 1)}
	mux.HandleFunc(wakeTaskType, c.handleWake)
	return c, nil
}

func (c *Consumer) handleWake(ctx context.Context, _ *asynq.Task) error {
	select {
	case c.wakeCh <- struct{}{}:
	default:
	}
	return nil
}

// Wake fires whenever a wake task is processed. It is buffered by one
// so a burst of submissions coalesces into a single early wakeup.
func (c *Consumer) Wake() <-chan struct{} {
	return c.wakeCh
}

// Start runs the asynq server until ctx is cancelled.
func (c *Consumer) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- c.server.Run(c.mux)
	}()

	select {
	case <-ctx.Done():
		c.server.Shutdown()
		return nil
	case err := <-errCh:
		if err == asynq.ErrServerClosed {
			return nil
		}
		return err
	}
}
