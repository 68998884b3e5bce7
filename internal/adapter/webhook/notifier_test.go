package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vixomaix/reel-to-recipe-api/internal/domain"
)

func TestNotifier_NotifyResult_DeliversPayload(t *testing.T) {
	var (
		gotBody        []byte
		gotContentType string
		gotSignature   string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotContentType = r.Header.Get("Content-Type")
		gotSignature = r.Header.Get("X-Webhook-Signature")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	job := &domain.Job{
		ID:         "job-1",
		Status:     domain.JobStatusCompleted,
		WebhookURL: server.URL,
	}
	recipe := &domain.Recipe{JobID: "job-1", Title: "Pad Thai"}

	n := NewNotifier("s3cret", 5*time.Second)
	require.NoError(t, n.NotifyResult(context.Background(), job, recipe))

	assert.Equal(t, "application/json", gotContentType)

	var decoded struct {
		JobID  string         `json:"job_id"`
		Status string         `json:"status"`
		Recipe *domain.Recipe `json:"recipe"`
		Error  string         `json:"error"`
	}
	require.NoError(t, json.Unmarshal(gotBody, &decoded))
	assert.Equal(t, "job-1", decoded.JobID)
	assert.Equal(t, "completed", decoded.Status)
	require.NotNil(t, decoded.Recipe)
	assert.Equal(t, "Pad Thai", decoded.Recipe.Title)
	assert.Empty(t, decoded.Error)

	mac := hmac.New(sha256.New, []byte("s3cret"))
	mac.Write(gotBody)
	assert.Equal(t, hex.EncodeToString(mac.Sum(nil)), gotSignature)
}

func TestNotifier_NotifyResult_NoSignatureWithoutSecret(t *testing.T) {
	var gotSignature string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSignature = r.Header.Get("X-Webhook-Signature")
	}))
	defer server.Close()

	job := &domain.Job{ID: "job-1", Status: domain.JobStatusCompleted, WebhookURL: server.URL}

	n := NewNotifier("", 5*time.Second)
	require.NoError(t, n.NotifyResult(context.Background(), job, nil))
	assert.Empty(t, gotSignature)
}

func TestNotifier_NotifyResult_FailedJobCarriesError(t *testing.T) {
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
	}))
	defer server.Close()

	job := &domain.Job{
		ID:           "job-1",
		Status:       domain.JobStatusFailed,
		ErrorMessage: "model timeout",
		WebhookURL:   server.URL,
	}

	n := NewNotifier("", 5*time.Second)
	require.NoError(t, n.NotifyResult(context.Background(), job, nil))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(gotBody, &decoded))
	assert.Equal(t, "failed", decoded["status"])
	assert.Equal(t, "model timeout", decoded["error"])
	assert.NotContains(t, decoded, "recipe")
}

func TestNotifier_NotifyResult_NoURLIsNoOp(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	job := &domain.Job{ID: "job-1", Status: domain.JobStatusCompleted}

	n := NewNotifier("s3cret", 5*time.Second)
	require.NoError(t, n.NotifyResult(context.Background(), job, nil))
	assert.False(t, called)
}

func TestNotifier_NotifyResult_RejectedStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	job := &domain.Job{ID: "job-1", Status: domain.JobStatusCompleted, WebhookURL: server.URL}

	n := NewNotifier("", 5*time.Second)
	err := n.NotifyResult(context.Background(), job, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestNotifier_NotifyResult_ConnectionFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	job := &domain.Job{ID: "job-1", Status: domain.JobStatusCompleted, WebhookURL: server.URL}

	n := NewNotifier("", time.Second)
	assert.Error(t, n.NotifyResult(context.Background(), job, nil))
}
