package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vixomaix/reel-to-recipe-api/internal/domain"
	"github.com/vixomaix/reel-to-recipe-api/internal/port"
	"github.com/vixomaix/reel-to-recipe-api/internal/port/mocks"
)

type ingestFixture struct {
	jobs    *mocks.JobStoreMock
	recipes *mocks.RecipeStoreMock
	queue   *mocks.WorkQueueMock
	limiter *mocks.RateLimiterMock
	ingest  *Ingest
}

func newIngestFixture(t *testing.T) *ingestFixture {
	t.Helper()
	f := &ingestFixture{
		jobs:    new(mocks.JobStoreMock),
		recipes: new(mocks.RecipeStoreMock),
		queue:   new(mocks.WorkQueueMock),
		limiter: new(mocks.RateLimiterMock),
	}
	f.ingest = NewIngest(f.jobs, f.recipes, f.queue, f.limiter)
	return f
}

func TestIngest_Submit_AdmitsAndEnqueues(t *testing.T) {
	f := newIngestFixture(t)

	f.limiter.On("Check", mock.Anything, "user-1", "pro").Return(port.Decision{Allowed: true, Limit: 100, Remaining: 42}).Once()
	f.jobs.On("Put", mock.Anything, mock.AnythingOfType("*domain.Job")).Return(nil).Once()
	f.queue.On("Enqueue", mock.Anything, port.StreamVideoProcessing, mock.AnythingOfType("string"), mock.Anything).Return("1-0", nil).Once()

	job, err := f.ingest.Submit(context.Background(), SubmitRequest{
		URL:    "https://www.instagram.com/reel/Cxyz/",
		UserID: "user-1",
		Tier:   "pro",
	})

	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusPending, job.Status)
	assert.Equal(t, domain.PlatformInstagram, job.Platform)
	assert.Equal(t, "user-1", job.UserID)
	f.limiter.AssertExpectations(t)
	f.queue.AssertExpectations(t)
}

func TestIngest_Submit_DeniedCreatesNoJob(t *testing.T) {
	f := newIngestFixture(t)

	f.limiter.On("Check", mock.Anything, "user-1", "free").Return(port.Decision{Allowed: false, Limit: 10}).Once()

	_, err := f.ingest.Submit(context.Background(), SubmitRequest{
		URL:    "https://www.tiktok.com/@chef/video/1",
		UserID: "user-1",
		Tier:   "free",
	})

	require.ErrorIs(t, err, domain.ErrRateLimited)
	f.jobs.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
	f.queue.AssertNotCalled(t, "Enqueue", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestIngest_Submit_EnqueueFailureSurfaces(t *testing.T) {
	f := newIngestFixture(t)

	f.limiter.On("Check", mock.Anything, mock.Anything, mock.Anything).Return(port.Decision{Allowed: true, Limit: 10, Remaining: 9}).Once()
	f.jobs.On("Put", mock.Anything, mock.Anything).Return(nil).Once()
	f.queue.On("Enqueue", mock.Anything, port.StreamVideoProcessing, mock.Anything, mock.Anything).Return("", errors.New("broker unavailable")).Once()

	_, err := f.ingest.Submit(context.Background(), SubmitRequest{
		URL:    "https://www.tiktok.com/@chef/video/1",
		UserID: "user-1",
		Tier:   "free",
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker unavailable")
}

func TestIngest_SubmitBatch_RejectsOversizedBatch(t *testing.T) {
	f := newIngestFixture(t)

	f.limiter.On("BatchLimit", "free").Return(5).Once()

	urls := make([]string, 6)
	for i := range urls {
		urls[i] = "https://www.tiktok.com/@chef/video/1"
	}

	_, err := f.ingest.SubmitBatch(context.Background(), urls, SubmitRequest{UserID: "user-1", Tier: "free"})

	require.ErrorIs(t, err, domain.ErrBatchTooLarge)
	f.limiter.AssertNotCalled(t, "Check", mock.Anything, mock.Anything, mock.Anything)
}

func TestIngest_SubmitBatch_EachURLCountsAgainstWindow(t *testing.T) {
	f := newIngestFixture(t)

	f.limiter.On("BatchLimit", "basic").Return(20).Once()
	f.limiter.On("Check", mock.Anything, "user-1", "basic").Return(port.Decision{Allowed: true, Limit: 30, Remaining: 1}).Times(3)
	f.jobs.On("Put", mock.Anything, mock.Anything).Return(nil).Times(3)
	f.queue.On("Enqueue", mock.Anything, port.StreamVideoProcessing, mock.Anything, mock.Anything).Return("1-0", nil).Times(3)

	jobs, err := f.ingest.SubmitBatch(context.Background(), []string{
		"https://www.tiktok.com/@chef/video/1",
		"https://www.instagram.com/reel/a/",
		"https://youtu.be/xyz",
	}, SubmitRequest{UserID: "user-1", Tier: "basic"})

	require.NoError(t, err)
	require.Len(t, jobs, 3)
	assert.Equal(t, domain.PlatformTikTok, jobs[0].Platform)
	assert.Equal(t, domain.PlatformInstagram, jobs[1].Platform)
	assert.Equal(t, domain.PlatformYouTubeShorts, jobs[2].Platform)
	f.limiter.AssertExpectations(t)
}

func TestIngest_Cancel_PendingOnly(t *testing.T) {
	f := newIngestFixture(t)
	pending := domain.NewJob("https://www.tiktok.com/@chef/video/1", "", "", "user-1", "")

	f.jobs.On("Get", mock.Anything, pending.ID).Return(pending, nil).Once()
	f.jobs.On("UpdateStatus", mock.Anything, pending.ID, domain.JobStatusFailed, 0, "cancelled by user").Return(nil).Once()

	require.NoError(t, f.ingest.Cancel(context.Background(), pending.ID))
	f.jobs.AssertExpectations(t)
}

func TestIngest_Cancel_ClaimedJobNotPreemptable(t *testing.T) {
	f := newIngestFixture(t)
	claimed := domain.NewJob("https://www.tiktok.com/@chef/video/1", "", "", "user-1", "")
	claimed.Status = domain.JobStatusProcessing

	f.jobs.On("Get", mock.Anything, claimed.ID).Return(claimed, nil).Once()

	err := f.ingest.Cancel(context.Background(), claimed.ID)

	require.ErrorIs(t, err, domain.ErrNotCancellable)
	f.jobs.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestIngest_Reprocess_StartsFreshJob(t *testing.T) {
	f := newIngestFixture(t)
	done := domain.NewJob("https://www.instagram.com/reel/abc/", "", "", "user-1", "")
	done.Status = domain.JobStatusCompleted
	done.Progress = 100

	f.jobs.On("Get", mock.Anything, done.ID).Return(done, nil).Once()
	f.jobs.On("Put", mock.Anything, mock.AnythingOfType("*domain.Job")).Return(nil).Once()
	f.queue.On("Enqueue", mock.Anything, port.StreamVideoProcessing, mock.Anything, mock.Anything).Return("2-0", nil).Once()

	fresh, err := f.ingest.Reprocess(context.Background(), done.ID)

	require.NoError(t, err)
	assert.NotEqual(t, done.ID, fresh.ID)
	assert.Equal(t, done.URL, fresh.URL)
	assert.Equal(t, domain.JobStatusPending, fresh.Status)
	assert.Equal(t, 0, fresh.Progress)
}

func TestIngest_Status_NotFound(t *testing.T) {
	f := newIngestFixture(t)

	f.jobs.On("Get", mock.Anything, "missing").Return(nil, domain.ErrNotFound).Once()

	_, err := f.ingest.Status(context.Background(), "missing")
	require.ErrorIs(t, err, domain.ErrNotFound)
}
