// Package mailqueue moves composed admin messages through a Redis list so
// that HTTP handlers never wait on mail delivery.
package mailqueue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/bighelpmob/missionhub/internal/email"
)

const DefaultKey = "missionhub:mail"

// maxAttempts counts the first try; a failed job is re-queued once.
const maxAttempts = 2

type Kind string

const (
	KindBulk      Kind = "bulk"
	KindTemplated Kind = "templated"
)

type Job struct {
	ID        string                  `json:"id"`
	Kind      Kind                    `json:"kind"`
	Attempts  int                     `json:"attempts"`
	QueuedAt  time.Time               `json:"queuedAt"`
	Bulk      *email.BulkMessage      `json:"bulk,omitempty"`
	Templated *email.TemplatedMessage `json:"templated,omitempty"`
}

// client is the subset of *redis.Client the queue uses.
type client interface {
	LPush(ctx context.Context, key string, values ...any) *redis.IntCmd
	BRPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd
}

// Queue implements email.Delivery on top of a Redis list.
type Queue struct {
	rdb client
	key string
}

func New(rdb client, key string) *Queue {
	if key == "" {
		key = DefaultKey
	}
	return &Queue{rdb: rdb, key: key}
}

func (q *Queue) QueueBulk(ctx context.Context, msg email.BulkMessage) error {
	return q.push(ctx, Job{Kind: KindBulk, Bulk: &msg})
}

func (q *Queue) QueueTemplated(ctx context.Context, msg email.TemplatedMessage) error {
	return q.push(ctx, Job{Kind: KindTemplated, Templated: &msg})
}

func (q *Queue) push(ctx context.Context, job Job) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.QueuedAt.IsZero() {
		job.QueuedAt = time.Now().UTC()
	}
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encoding job: %w", err)
	}
	if err := q.rdb.LPush(ctx, q.key, data).Err(); err != nil {
		return fmt.Errorf("pushing job %s: %w", job.ID, err)
	}
	return nil
}

// Handler delivers dequeued messages.
type Handler interface {
	DeliverBulk(ctx context.Context, msg email.BulkMessage) error
	DeliverTemplated(ctx context.Context, msg email.TemplatedMessage) error
}

type Worker struct {
	queue   *Queue
	handler Handler
	logger  *slog.Logger
	wait    time.Duration
}

func NewWorker(q *Queue, h Handler, logger *slog.Logger) *Worker {
	return &Worker{queue: q, handler: h, logger: logger, wait: 5 * time.Second}
}

// Run pops jobs until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		res, err := w.queue.rdb.BRPop(ctx, w.wait, w.queue.key).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			w.logger.Error("popping mail job", "error", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
			continue
		}
		// BRPOP replies with [key, value].
		if len(res) != 2 {
			continue
		}
		w.handle(ctx, []byte(res[1]))
	}
}

func (w *Worker) handle(ctx context.Context, data []byte) {
	var job Job
	if err := json.Unmarshal(data, &job); err != nil {
		w.logger.Error("dropping malformed mail job", "error", err)
		return
	}
	job.Attempts++

	err := w.deliver(ctx, job)
	if err == nil {
		w.logger.Info("mail job delivered", "id", job.ID, "kind", job.Kind, "attempts", job.Attempts)
		return
	}
	var bad *email.TemplateError
	if job.Attempts >= maxAttempts || errors.As(err, &bad) {
		w.logger.Error("dropping mail job", "id", job.ID, "kind", job.Kind, "attempts", job.Attempts, "error", err)
		return
	}
	job.narrow(err)
	w.logger.Warn("re-queueing mail job", "id", job.ID, "kind", job.Kind, "error", err)
	if err := w.queue.push(ctx, job); err != nil {
		w.logger.Error("re-queueing mail job failed", "id", job.ID, "error", err)
	}
}

// narrow keeps only the part of the job that err reports as undelivered,
// so a retry never reaches an address twice.
func (j *Job) narrow(err error) {
	var undelivered *email.UndeliveredError
	if !errors.As(err, &undelivered) {
		return
	}
	switch {
	case j.Bulk != nil:
		j.Bulk.Emails = undelivered.Emails
	case j.Templated != nil:
		j.Templated.Recipients = undelivered.Recipients
	}
}

func (w *Worker) deliver(ctx context.Context, job Job) error {
	switch job.Kind {
	case KindBulk:
		if job.Bulk == nil {
			return errors.New("bulk job without message")
		}
		return w.handler.DeliverBulk(ctx, *job.Bulk)
	case KindTemplated:
		if job.Templated == nil {
			return errors.New("templated job without message")
		}
		return w.handler.DeliverTemplated(ctx, *job.Templated)
	}
	return fmt.Errorf("unknown job kind %q", job.Kind)
}
