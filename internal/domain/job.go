package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Terminal reports whether the status admits no further transitions.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

type Platform string

const (
	PlatformInstagram     Platform = "instagram"
	PlatformTikTok        Platform = "tiktok"
	PlatformYouTubeShorts Platform = "youtube_shorts"
	PlatformUnknown       Platform = "unknown"
)

type Job struct {
	ID                string    `json:"job_id"`
	URL               string    `json:"url"`
	Platform          Platform  `json:"platform"`
	PreferredLanguage string    `json:"preferred_language"`
	Status            JobStatus `json:"status"`
	Progress          int       `json:"progress"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
	ErrorMessage      string    `json:"error_message,omitempty"`
	UserID            string    `json:"user_id,omitempty"`
	WebhookURL        string    `json:"webhook_url,omitempty"`
}

func NewJob(url string, platform Platform, language, userID, webhookURL string) *Job {
	if platform == "" {
		platform = DetectPlatform(url)
	}
	if language == "" {
		language = "en"
	}
	now := time.Now().UTC()
	return &Job{
		ID:                uuid.NewString(),
		URL:               url,
		Platform:          platform,
		PreferredLanguage: language,
		Status:            JobStatusPending,
		CreatedAt:         now,
		UpdatedAt:         now,
		UserID:            userID,
		WebhookURL:        webhookURL,
	}
}

// Reprocess returns a fresh pending job for the same source URL. Terminal
// jobs are never mutated in place; a forced re-extraction starts over under
// a new id.
func (j *Job) Reprocess() *Job {
	return NewJob(j.URL, j.Platform, j.PreferredLanguage, j.UserID, j.WebhookURL)
}

func DetectPlatform(url string) Platform {
	lower := strings.ToLower(url)
	switch {
	case strings.Contains(lower, "instagram.com"), strings.Contains(lower, "instagr.am"):
		return PlatformInstagram
	case strings.Contains(lower, "tiktok.com"), strings.Contains(lower, "vm.tiktok"):
		return PlatformTikTok
	case strings.Contains(lower, "youtube.com/shorts"), strings.Contains(lower, "youtu.be"):
		return PlatformYouTubeShorts
	default:
		return PlatformUnknown
	}
}
