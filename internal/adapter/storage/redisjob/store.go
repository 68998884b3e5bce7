package redisjob

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vixomaix/reel-to-recipe-api/internal/domain"
	"github.com/vixomaix/reel-to-recipe-api/internal/port"
)

// Store keeps job lifecycle records and extracted recipes as JSON values
// keyed by job id. Status updates run under an optimistic WATCH transaction
// so that status and progress always move together even with concurrent
// writers from different pipeline stages.
type Store struct {
	client *redis.Client
}

const txRetries = 5

func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

func jobKey(jobID string) string    { return "job:" + jobID }
func recipeKey(jobID string) string { return "recipe:" + jobID }

func (s *Store) Put(ctx context.Context, job *domain.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if err := s.client.Set(ctx, jobKey(job.ID), data, 0).Err(); err != nil {
		return fmt.Errorf("store job %s: %w", job.ID, err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, jobID string) (*domain.Job, error) {
	data, err := s.client.Get(ctx, jobKey(jobID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job %s: %w", jobID, err)
	}
	var job domain.Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("decode job %s: %w", jobID, err)
	}
	return &job, nil
}

func (s *Store) UpdateStatus(ctx context.Context, jobID string, status domain.JobStatus, progress int, errMsg string) error {
	key := jobKey(jobID)

	update := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return domain.ErrNotFound
		}
		if err != nil {
			return err
		}

		var job domain.Job
		if err := json.Unmarshal(data, &job); err != nil {
			return fmt.Errorf("decode job %s: %w", jobID, err)
		}
		if job.Status.Terminal() {
			return domain.ErrJobTerminal
		}

		job.Status = status
		// Progress never moves backwards while the job advances.
		if progress > job.Progress {
			job.Progress = progress
		}
		if status == domain.JobStatusFailed {
			job.ErrorMessage = errMsg
		} else {
			job.ErrorMessage = ""
		}
		job.UpdatedAt = time.Now().UTC()

		updated, err := json.Marshal(&job)
		if err != nil {
			return fmt.Errorf("marshal job %s: %w", jobID, err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, updated, 0)
			return nil
		})
		return err
	}

	for i := 0; i < txRetries; i++ {
		err := s.client.Watch(ctx, update, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("update job %s: transaction contention after %d attempts", jobID, txRetries)
}

func (s *Store) PutRecipe(ctx context.Context, recipe *domain.Recipe) error {
	data, err := json.Marshal(recipe)
	if err != nil {
		return fmt.Errorf("marshal recipe: %w", err)
	}
	if err := s.client.Set(ctx, recipeKey(recipe.JobID), data, 0).Err(); err != nil {
		return fmt.Errorf("store recipe %s: %w", recipe.JobID, err)
	}
	return nil
}

func (s *Store) GetRecipe(ctx context.Context, jobID string) (*domain.Recipe, error) {
	data, err := s.client.Get(ctx, recipeKey(jobID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get recipe %s: %w", jobID, err)
	}
	var recipe domain.Recipe
	if err := json.Unmarshal(data, &recipe); err != nil {
		return nil, fmt.Errorf("decode recipe %s: %w", jobID, err)
	}
	return &recipe, nil
}

// Recipes adapts the store to port.RecipeStore.
type Recipes struct{ *Store }

func (r Recipes) Put(ctx context.Context, recipe *domain.Recipe) error {
	return r.PutRecipe(ctx, recipe)
}

func (r Recipes) Get(ctx context.Context, jobID string) (*domain.Recipe, error) {
	return r.GetRecipe(ctx, jobID)
}

var (
	_ port.JobStore    = (*Store)(nil)
	_ port.RecipeStore = Recipes{}
)
