package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/vixomaix/reel-to-recipe-api/internal/domain"
	"github.com/vixomaix/reel-to-recipe-api/internal/infrastructure/logger"
	"github.com/vixomaix/reel-to-recipe-api/internal/port"
)

// Ingest is the admission path: it gates new work behind the rate limiter,
// records the job and hands it to the video-processing stage. The HTTP
// surface in front of it is an external collaborator.
type Ingest struct {
	jobs    port.JobStore
	recipes port.RecipeStore
	queue   port.WorkQueue
	limiter port.RateLimiter
}

func NewIngest(jobs port.JobStore, recipes port.RecipeStore, queue port.WorkQueue, limiter port.RateLimiter) *Ingest {
	return &Ingest{jobs: jobs, recipes: recipes, queue: queue, limiter: limiter}
}

type SubmitRequest struct {
	URL               string
	Platform          domain.Platform
	PreferredLanguage string
	UserID            string
	Tier              string
	WebhookURL        string
}

// Submit admits one extraction request. A denied request never creates a
// job.
func (s *Ingest) Submit(ctx context.Context, req SubmitRequest) (*domain.Job, error) {
	decision := s.limiter.Check(ctx, req.UserID, req.Tier)
	if !decision.Allowed {
		return nil, fmt.Errorf("%w: %d requests per minute", domain.ErrRateLimited, decision.Limit)
	}

	job := domain.NewJob(req.URL, req.Platform, req.PreferredLanguage, req.UserID, req.WebhookURL)
	if err := s.jobs.Put(ctx, job); err != nil {
		return nil, fmt.Errorf("record job: %w", err)
	}
	if err := s.enqueue(ctx, job); err != nil {
		return nil, err
	}

	logger.Info.Printf("admitted job %s (platform=%s, url=%s)", job.ID, job.Platform, logger.SanitizeForLog(job.URL))
	return job, nil
}

// SubmitBatch admits a set of URLs as independent jobs, bounded by the
// tier's batch ceiling. Admission is checked once per URL so batches count
// against the same sliding window as single submissions.
func (s *Ingest) SubmitBatch(ctx context.Context, urls []string, req SubmitRequest) ([]*domain.Job, error) {
	if limit := s.limiter.BatchLimit(req.Tier); len(urls) > limit {
		return nil, fmt.Errorf("%w: %d urls, tier allows %d", domain.ErrBatchTooLarge, len(urls), limit)
	}

	jobs := make([]*domain.Job, 0, len(urls))
	for _, url := range urls {
		one := req
		one.URL = url
		one.Platform = ""
		job, err := s.Submit(ctx, one)
		if err != nil {
			return jobs, err
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func (s *Ingest) enqueue(ctx context.Context, job *domain.Job) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job payload: %w", err)
	}
	if _, err := s.queue.Enqueue(ctx, port.StreamVideoProcessing, job.ID, payload); err != nil {
		return fmt.Errorf("enqueue job %s: %w", job.ID, err)
	}
	return nil
}

// Status returns the caller-visible job record.
func (s *Ingest) Status(ctx context.Context, jobID string) (*domain.Job, error) {
	return s.jobs.Get(ctx, jobID)
}

// Result returns the extracted recipe for a job. The fallback recipe of a
// failed extraction is retrievable the same way.
func (s *Ingest) Result(ctx context.Context, jobID string) (*domain.Recipe, error) {
	return s.recipes.Get(ctx, jobID)
}

// Cancel marks a pending job as failed with a cancellation reason. A job
// already claimed by a worker runs to completion; it cannot be preempted.
func (s *Ingest) Cancel(ctx context.Context, jobID string) error {
	job, err := s.jobs.Get(ctx, jobID)
	if err != nil {
		return err
	}
	if job.Status != domain.JobStatusPending {
		return domain.ErrNotCancellable
	}
	return s.jobs.UpdateStatus(ctx, jobID, domain.JobStatusFailed, job.Progress, "cancelled by user")
}

// Reprocess starts a forced re-extraction of an existing job's URL under a
// new job id. The original record stays untouched.
func (s *Ingest) Reprocess(ctx context.Context, jobID string) (*domain.Job, error) {
	prev, err := s.jobs.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}

	job := prev.Reprocess()
	if err := s.jobs.Put(ctx, job); err != nil {
		return nil, fmt.Errorf("record job: %w", err)
	}
	if err := s.enqueue(ctx, job); err != nil {
		return nil, err
	}

	logger.Info.Printf("reprocessing job %s as %s", prev.ID, job.ID)
	return job, nil
}
