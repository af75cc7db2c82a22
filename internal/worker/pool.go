package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bamskydbest/pharm-back/internal/service"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueLoyalty      = "jobs:loyalty"
	QueueReceiptEmail = "jobs:receipt_email"
)

// Job is the generic envelope for all async tasks.
type Job struct {
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload"`
	Attempts int             `json:"attempts"`
}

// HandlerFunc processes one job payload. Returning an error wrapped with
// Permanent sends the job straight to the DLQ; any other error is retried.
type HandlerFunc func(ctx context.Context, payload json.RawMessage) error

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

func isPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

// Dispatcher enqueues async jobs into Redis lists; the worker pool dequeues
// them via BRPOP. With a nil client jobs run in-process on a goroutine.
type Dispatcher struct {
	rdb         *redis.Client
	maxAttempts int

	mu       sync.RWMutex
	handlers map[string]HandlerFunc
	inflight sync.WaitGroup
}

func NewDispatcher(rdb *redis.Client, maxAttempts int) *Dispatcher {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &Dispatcher{rdb: rdb, maxAttempts: maxAttempts, handlers: map[string]HandlerFunc{}}
}

// Register binds the handler of a queue.
func (d *Dispatcher) Register(queue string, h HandlerFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[queue] = h
}

func (d *Dispatcher) handler(queue string) (HandlerFunc, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	h, ok := d.handlers[queue]
	return h, ok
}

// PublishSaleCompleted fans a committed sale out to the loyalty queue and,
// when the customer left an email address, to the receipt email queue.
func (d *Dispatcher) PublishSaleCompleted(ctx context.Context, ev service.SaleCompleted) error {
	if ev.Customer == nil {
		return nil
	}
	var errs []error
	if err := d.enqueue(ctx, QueueLoyalty, "loyalty", ev); err != nil {
		errs = append(errs, err)
	}
	if ev.Customer.Email != nil && strings.TrimSpace(*ev.Customer.Email) != "" {
		payload := ReceiptEmailPayload{
			SaleID:    ev.SaleID.String(),
			BranchID:  ev.BranchID.String(),
			ReceiptNo: ev.ReceiptNo,
			ToEmail:   strings.TrimSpace(*ev.Customer.Email),
			Name:      ev.Customer.Name,
		}
		if err := d.enqueue(ctx, QueueReceiptEmail, "receipt_email", payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var _ service.SaleEventPublisher = (*Dispatcher)(nil)

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	job := Job{Type: jobType, Payload: data}

	if d.rdb == nil {
		d.inflight.Add(1)
		go func() {
			defer d.inflight.Done()
			d.runInline(queue, job)
		}()
		return nil
	}

	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	if err := d.rdb.LPush(ctx, queue, encoded).Err(); err != nil {
		return fmt.Errorf("enqueue %s: %w", queue, err)
	}
	return nil
}

// runInline is the no-Redis path: the job is retried in-process with backoff
// and dropped (logged) once attempts are exhausted.
func (d *Dispatcher) runInline(queue string, job Job) {
	h, ok := d.handler(queue)
	if !ok {
		log.Error().Str("queue", queue).Msg("worker: no handler registered, job dropped")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	err := withRetry(ctx, d.maxAttempts, func(attempt int) error {
		err := h(ctx, job.Payload)
		if err != nil && !isPermanent(err) {
			log.Warn().Err(err).Str("queue", queue).Int("attempt", attempt+1).Msg("worker: inline job failed")
		}
		return err
	})
	if err != nil {
		log.Error().Err(err).Str("queue", queue).Str("type", job.Type).Msg("worker: inline job abandoned")
	}
}

// Wait blocks until in-process jobs have finished.
func (d *Dispatcher) Wait() { d.inflight.Wait() }

// StartWorkerPool launches numWorkers goroutines consuming every queue.
// Each goroutine blocks on BRPOP, zero CPU when idle.
func (d *Dispatcher) StartWorkerPool(ctx context.Context, numWorkers int) {
	if d.rdb == nil {
		log.Warn().Msg("worker pool disabled: no redis, jobs run in-process")
		return
	}
	for i := 0; i < numWorkers; i++ {
		go d.runWorker(ctx, i)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
}

func (d *Dispatcher) runWorker(ctx context.Context, id int) {
	queues := []string{QueueLoyalty, QueueReceiptEmail}
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// Blocking pop, waits up to 5s then loops to check ctx
			result, err := d.rdb.BRPop(ctx, 5*time.Second, queues...).Result()
			if err != nil {
				continue // timeout or context cancelled
			}
			if len(result) < 2 {
				continue
			}
			d.processJob(ctx, result[0], result[1])
		}
	}
}

func (d *Dispatcher) processJob(ctx context.Context, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		SendToDLQ(ctx, d.rdb, queue, "unknown", json.RawMessage(raw), "malformed job: "+err.Error(), 0)
		return
	}
	h, ok := d.handler(queue)
	if !ok {
		SendToDLQ(ctx, d.rdb, queue, job.Type, job.Payload, "no handler registered", job.Attempts)
		return
	}

	err := h(ctx, job.Payload)
	if err == nil {
		log.Debug().Str("type", job.Type).Str("queue", queue).Msg("job processed")
		return
	}

	job.Attempts++
	switch {
	case isPermanent(err):
		SendToDLQ(ctx, d.rdb, queue, job.Type, job.Payload, err.Error(), job.Attempts)
	case job.Attempts >= d.maxAttempts:
		SendToDLQ(ctx, d.rdb, queue, job.Type, job.Payload,
			fmt.Sprintf("max attempts (%d) exceeded: %v", d.maxAttempts, err), job.Attempts)
	default:
		if serr := scheduleRetry(ctx, d.rdb, queue, job, time.Now()); serr != nil {
			log.Error().Err(serr).Str("queue", queue).Msg("worker: failed to schedule retry")
			SendToDLQ(ctx, d.rdb, queue, job.Type, job.Payload, err.Error(), job.Attempts)
			return
		}
		log.Warn().Err(err).
			Str("queue", queue).
			Str("type", job.Type).
			Int("attempt", job.Attempts).
			Msg("worker: job failed, retry scheduled")
	}
}

// withRetry calls fn up to maxAttempts times with exponential backoff
// (1s, 2s, 4s ...). Permanent errors stop immediately.
func withRetry(ctx context.Context, maxAttempts int, fn func(attempt int) error) error {
	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		if i > 0 {
			wait := time.Duration(1<<uint(i-1)) * time.Second
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
		err := fn(i)
		if err == nil {
			return nil
		}
		lastErr = err
		if isPermanent(err) {
			return err
		}
	}
	return lastErr
}
