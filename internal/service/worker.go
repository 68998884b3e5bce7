package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/vixomaix/reel-to-recipe-api/internal/domain"
	"github.com/vixomaix/reel-to-recipe-api/internal/infrastructure/logger"
	"github.com/vixomaix/reel-to-recipe-api/internal/port"
)

const claimBlock = 5 * time.Second

// WorkerPool drives the AI-processing stage: each worker claims VideoData
// messages from the consumer group, runs recipe extraction and settles the
// job, acknowledging only after the outcome is durably recorded.
//
// Retry policy is an explicit decision table rather than a blanket ack:
//   - malformed payload     -> log, ack, drop (poison is never retried)
//   - extraction failure    -> fallback recipe stored, job failed, ack
//   - store/broker failure  -> no ack; the pending entry is reclaimed and
//     retried, with a delivery-count ceiling routing repeat offenders to
//     the dead-letter stream
type WorkerPool struct {
	queue     port.WorkQueue
	jobs      port.JobStore
	recipes   port.RecipeStore
	extractor *Extractor
	archive   port.Archive  // optional
	notifier  port.Notifier // optional

	group               string
	workers             int
	deadLetterThreshold int64
	reclaimMinIdle      time.Duration
	reclaimInterval     time.Duration
	backoff             *Backoff
}

type WorkerPoolOptions struct {
	Group               string
	Workers             int
	DeadLetterThreshold int64
	ReclaimMinIdle      time.Duration
	ReclaimInterval     time.Duration
}

func NewWorkerPool(
	queue port.WorkQueue,
	jobs port.JobStore,
	recipes port.RecipeStore,
	extractor *Extractor,
	archive port.Archive,
	notifier port.Notifier,
	opts WorkerPoolOptions,
) *WorkerPool {
	return &WorkerPool{
		queue:               queue,
		jobs:                jobs,
		recipes:             recipes,
		extractor:           extractor,
		archive:             archive,
		notifier:            notifier,
		group:               opts.Group,
		workers:             opts.Workers,
		deadLetterThreshold: opts.DeadLetterThreshold,
		reclaimMinIdle:      opts.ReclaimMinIdle,
		reclaimInterval:     opts.ReclaimInterval,
		backoff:             NewBackoff(time.Second, 30*time.Second, 2.0),
	}
}

func (wp *WorkerPool) Start(ctx context.Context) error {
	if err := wp.queue.EnsureGroup(ctx, port.StreamAIProcessing, wp.group); err != nil {
		return fmt.Errorf("bootstrap consumer group: %w", err)
	}

	for i := 0; i < wp.workers; i++ {
		go wp.runWorker(ctx, i)
	}
	go wp.runReclaimer(ctx)

	logger.Info.Printf("started %d workers in group %s", wp.workers, wp.group)
	return nil
}

func (wp *WorkerPool) runWorker(ctx context.Context, id int) {
	consumer := fmt.Sprintf("consumer-%d-%d", os.Getpid(), id)
	failures := 0

	for {
		select {
		case <-ctx.Done():
			logger.Info.Printf("worker %d shutting down", id)
			return
		default:
		}

		messages, err := wp.queue.Claim(ctx, port.StreamAIProcessing, wp.group, consumer, 1, claimBlock)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			// Broker trouble is transient by assumption; the worker
			// process never exits over it.
			failures++
			delay := wp.backoff.Duration(failures)
			logger.Error.Printf("worker %d: claim failed (attempt %d, retrying in %s): %v", id, failures, delay, err)
			sleep(ctx, delay)
			continue
		}
		failures = 0

		for _, msg := range messages {
			wp.process(ctx, msg)
		}
	}
}

// runReclaimer periodically sweeps the group's pending list for messages
// whose consumer died mid-flight. Delivery counts past the threshold mark a
// message as poison and park it on the dead-letter stream.
func (wp *WorkerPool) runReclaimer(ctx context.Context) {
	consumer := fmt.Sprintf("reclaimer-%d", os.Getpid())
	ticker := time.NewTicker(wp.reclaimInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		wp.sweep(ctx, consumer)
	}
}

func (wp *WorkerPool) sweep(ctx context.Context, consumer string) {
	messages, err := wp.queue.ReclaimStale(ctx, port.StreamAIProcessing, wp.group, consumer, wp.reclaimMinIdle, 10)
	if err != nil {
		if ctx.Err() == nil {
			logger.Error.Printf("reclaim sweep failed: %v", err)
		}
		return
	}

	for _, msg := range messages {
		if msg.DeliveryCount > wp.deadLetterThreshold {
			logger.Warn.Printf("message %s (job %s) exceeded %d deliveries, dead-lettering", msg.ID, msg.JobID, wp.deadLetterThreshold)
			if err := wp.queue.DeadLetter(ctx, port.StreamAIProcessing, msg); err != nil {
				logger.Error.Printf("dead-letter failed for %s: %v", msg.ID, err)
				continue
			}
			wp.ack(ctx, msg)
			continue
		}
		wp.process(ctx, msg)
	}
}

func (wp *WorkerPool) process(ctx context.Context, msg port.Message) {
	video, err := parseVideoData(msg)
	if err != nil {
		// Poison: re-delivering an unparseable message can never succeed.
		logger.Error.Printf("dropping malformed message %s: %v", msg.ID, err)
		wp.ack(ctx, msg)
		return
	}

	job, err := wp.jobs.Get(ctx, msg.JobID)
	if errors.Is(err, domain.ErrNotFound) {
		logger.Error.Printf("dropping message %s: job %s has no record", msg.ID, msg.JobID)
		wp.ack(ctx, msg)
		return
	}
	if err != nil {
		logger.Error.Printf("job %s: store unavailable, leaving message pending: %v", msg.JobID, err)
		return
	}
	if job.Status.Terminal() {
		// Redelivery of an already-settled job is a no-op.
		wp.ack(ctx, msg)
		return
	}

	logger.Info.Printf("processing job %s (url=%s)", job.ID, logger.SanitizeForLog(job.URL))

	if err := wp.jobs.UpdateStatus(ctx, job.ID, domain.JobStatusProcessing, job.Progress, ""); err != nil {
		if errors.Is(err, domain.ErrJobTerminal) {
			wp.ack(ctx, msg)
			return
		}
		logger.Error.Printf("job %s: status update failed, leaving message pending: %v", job.ID, err)
		return
	}

	recipe, extractErr := wp.extractor.Extract(ctx, job.ID, video)
	if extractErr != nil {
		logger.Error.Printf("job %s: extraction failed: %v", job.ID, extractErr)
		recipe = domain.FallbackRecipe(job.ID, video.SourceURL)
		wp.settle(ctx, msg, job, recipe, extractErr)
		return
	}

	wp.settle(ctx, msg, job, recipe, nil)
}

// settle records the outcome: recipe first, then the terminal status, then
// the best-effort mirrors. The message is acked only once the job record is
// terminal; any earlier failure leaves it pending for reclaim.
func (wp *WorkerPool) settle(ctx context.Context, msg port.Message, job *domain.Job, recipe *domain.Recipe, extractErr error) {
	if err := wp.recipes.Put(ctx, recipe); err != nil {
		logger.Error.Printf("job %s: recipe store failed, leaving message pending: %v", job.ID, err)
		return
	}

	status := domain.JobStatusCompleted
	progress := 100
	errMsg := ""
	if extractErr != nil {
		status = domain.JobStatusFailed
		// Progress stays where the pipeline left it on failure.
		progress = job.Progress
		errMsg = extractErr.Error()
	}

	if err := wp.jobs.UpdateStatus(ctx, job.ID, status, progress, errMsg); err != nil {
		if !errors.Is(err, domain.ErrJobTerminal) {
			logger.Error.Printf("job %s: terminal status update failed, leaving message pending: %v", job.ID, err)
			return
		}
	}

	job.Status = status
	job.Progress = progress
	job.ErrorMessage = errMsg
	job.UpdatedAt = time.Now().UTC()

	if wp.archive != nil {
		if err := wp.archive.SaveExtraction(ctx, job, recipe); err != nil {
			logger.Warn.Printf("job %s: archive write failed: %v", job.ID, err)
		}
	}
	if wp.notifier != nil {
		if err := wp.notifier.NotifyResult(ctx, job, recipe); err != nil {
			logger.Warn.Printf("job %s: webhook notification failed: %v", job.ID, err)
		}
	}

	wp.ack(ctx, msg)
	logger.Info.Printf("job %s settled as %s", job.ID, status)
}

func (wp *WorkerPool) ack(ctx context.Context, msg port.Message) {
	if err := wp.queue.Ack(ctx, port.StreamAIProcessing, wp.group, msg.ID); err != nil {
		// The reclaim sweep will see it again; processing is idempotent.
		logger.Error.Printf("ack failed for message %s: %v", msg.ID, err)
	}
}

func parseVideoData(msg port.Message) (*domain.VideoData, error) {
	if msg.JobID == "" {
		return nil, errors.New("message missing job_id")
	}
	var video domain.VideoData
	if err := json.Unmarshal(msg.Payload, &video); err != nil {
		return nil, fmt.Errorf("decode video data: %w", err)
	}
	if video.JobID == "" {
		video.JobID = msg.JobID
	}
	return &video, nil
}

func sleep(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
