// Package mocks holds hand-written testify mocks for the port interfaces.
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/vixomaix/reel-to-recipe-api/internal/domain"
	"github.com/vixomaix/reel-to-recipe-api/internal/port"
)

type JobStoreMock struct {
	mock.Mock
}

func (m *JobStoreMock) Put(ctx context.Context, job *domain.Job) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *JobStoreMock) Get(ctx context.Context, jobID string) (*domain.Job, error) {
	args := m.Called(ctx, jobID)
	if job, ok := args.Get(0).(*domain.Job); ok {
		return job, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *JobStoreMock) UpdateStatus(ctx context.Context, jobID string, status domain.JobStatus, progress int, errMsg string) error {
	args := m.Called(ctx, jobID, status, progress, errMsg)
	return args.Error(0)
}

type RecipeStoreMock struct {
	mock.Mock
}

func (m *RecipeStoreMock) Put(ctx context.Context, recipe *domain.Recipe) error {
	args := m.Called(ctx, recipe)
	return args.Error(0)
}

func (m *RecipeStoreMock) Get(ctx context.Context, jobID string) (*domain.Recipe, error) {
	args := m.Called(ctx, jobID)
	if recipe, ok := args.Get(0).(*domain.Recipe); ok {
		return recipe, args.Error(1)
	}
	return nil, args.Error(1)
}

type WorkQueueMock struct {
	mock.Mock
}

func (m *WorkQueueMock) Enqueue(ctx context.Context, stream, jobID string, payload []byte) (string, error) {
	args := m.Called(ctx, stream, jobID, payload)
	return args.String(0), args.Error(1)
}

func (m *WorkQueueMock) EnsureGroup(ctx context.Context, stream, group string) error {
	args := m.Called(ctx, stream, group)
	return args.Error(0)
}

func (m *WorkQueueMock) Claim(ctx context.Context, stream, group, consumer string, count int64, block time.Duration) ([]port.Message, error) {
	args := m.Called(ctx, stream, group, consumer, count, block)
	if messages, ok := args.Get(0).([]port.Message); ok {
		return messages, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *WorkQueueMock) Ack(ctx context.Context, stream, group, messageID string) error {
	args := m.Called(ctx, stream, group, messageID)
	return args.Error(0)
}

func (m *WorkQueueMock) ReclaimStale(ctx context.Context, stream, group, consumer string, minIdle time.Duration, count int64) ([]port.Message, error) {
	args := m.Called(ctx, stream, group, consumer, minIdle, count)
	if messages, ok := args.Get(0).([]port.Message); ok {
		return messages, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *WorkQueueMock) DeadLetter(ctx context.Context, stream string, msg port.Message) error {
	args := m.Called(ctx, stream, msg)
	return args.Error(0)
}

type RateLimiterMock struct {
	mock.Mock
}

func (m *RateLimiterMock) Check(ctx context.Context, userID, tier string) port.Decision {
	args := m.Called(ctx, userID, tier)
	return args.Get(0).(port.Decision)
}

func (m *RateLimiterMock) Usage(ctx context.Context, userID string) (port.Usage, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(port.Usage), args.Error(1)
}

func (m *RateLimiterMock) BatchLimit(tier string) int {
	args := m.Called(tier)
	return args.Int(0)
}

type ProviderMock struct {
	mock.Mock
}

func (m *ProviderMock) GenerateJSON(ctx context.Context, systemPrompt, userPrompt string, temperature float64) (map[string]any, error) {
	args := m.Called(ctx, systemPrompt, userPrompt, temperature)
	if out, ok := args.Get(0).(map[string]any); ok {
		return out, args.Error(1)
	}
	return nil, args.Error(1)
}

type ArchiveMock struct {
	mock.Mock
}

func (m *ArchiveMock) SaveExtraction(ctx context.Context, job *domain.Job, recipe *domain.Recipe) error {
	args := m.Called(ctx, job, recipe)
	return args.Error(0)
}

type NotifierMock struct {
	mock.Mock
}

func (m *NotifierMock) NotifyResult(ctx context.Context, job *domain.Job, recipe *domain.Recipe) error {
	args := m.Called(ctx, job, recipe)
	return args.Error(0)
}

var (
	_ port.JobStore    = (*JobStoreMock)(nil)
	_ port.RecipeStore = (*RecipeStoreMock)(nil)
	_ port.WorkQueue   = (*WorkQueueMock)(nil)
	_ port.RateLimiter = (*RateLimiterMock)(nil)
	_ port.Provider    = (*ProviderMock)(nil)
	_ port.Archive     = (*ArchiveMock)(nil)
	_ port.Notifier    = (*NotifierMock)(nil)
)
