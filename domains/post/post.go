package post

import (
	"context"
	"time"

	"github.com/AzielCF/fedisched/platforms"
)

// Status is the lifecycle state of a scheduled post.
type Status string

const (
	// StatusScheduled means the post is waiting for its due time (or a retry).
	StatusScheduled Status = "scheduled"
	// StatusPublishing means one dispatch attempt is in flight. The state
	// doubles as the claim lock: at most one dispatcher holds it per post.
	StatusPublishing Status = "publishing"
	// StatusPublished is the terminal success state.
	StatusPublished Status = "published"
	// StatusFailed is the terminal exhaustion state; only a manual retry
	// leaves it.
	StatusFailed Status = "failed"
)

func ValidStatus(s string) bool {
	switch Status(s) {
	case StatusScheduled, StatusPublishing, StatusPublished, StatusFailed:
		return true
	}
	return false
}

// ScheduledPost is the durable record of one pending (or delivered) post.
type ScheduledPost struct {
	ID             string         `json:"id"`
	AccountID      string         `json:"account_id"`
	Platform       platforms.Kind `json:"platform"`
	Content        string         `json:"content"`
	ScheduledAt    time.Time      `json:"scheduled_at"`
	NextAttemptAt  time.Time      `json:"next_attempt_at"`
	Status         Status         `json:"status"`
	AttemptCount   int            `json:"attempt_count"`
	LastError      string         `json:"last_error,omitempty"`
	PublishedAt    *time.Time     `json:"published_at,omitempty"`
	ExternalPostID string         `json:"external_post_id,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

type CreateRequest struct {
	Content     string     `json:"content"`
	AccountIDs  []string   `json:"account_ids"`
	ScheduledAt *time.Time `json:"scheduled_at"` // nil means publish now
}

type ListFilter struct {
	Status string
	Limit  int
	Offset int
}

type IPostUsecase interface {
	Create(ctx context.Context, request CreateRequest) ([]ScheduledPost, error)
	List(ctx context.Context, filter ListFilter) ([]ScheduledPost, error)
	Retry(ctx context.Context, id string) (ScheduledPost, error)
	Delete(ctx context.Context, id string) error
}

// IPostRepository is the durable store for scheduled posts. Every status
// transition is a conditional update on the current status, so a stale caller
// simply loses the race instead of clobbering newer state.
type IPostRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, p ScheduledPost) error
	GetByID(ctx context.Context, id string) (ScheduledPost, error)
	List(ctx context.Context, filter ListFilter) ([]ScheduledPost, error)
	Delete(ctx context.Context, id string) error
	CountPendingByAccount(ctx context.Context, accountID string) (int64, error)

	// DueBefore returns scheduled posts with next_attempt_at <= now, earliest
	// first (ties broken by id).
	DueBefore(ctx context.Context, now time.Time) ([]ScheduledPost, error)

	// ClaimForPublishing atomically moves id from scheduled to publishing.
	// Returns false when the post was not in scheduled state (claim race lost).
	ClaimForPublishing(ctx context.Context, id string) (bool, error)

	// MarkPublished moves a publishing post to published, recording the
	// external post id and publish time and clearing last_error.
	MarkPublished(ctx context.Context, id, externalPostID string, publishedAt time.Time) error

	// RescheduleRetry moves a publishing post back to scheduled with the given
	// attempt count, next attempt time and error message.
	RescheduleRetry(ctx context.Context, id string, attemptCount int, nextAttemptAt time.Time, lastError string) error

	// MarkFailed moves a publishing post to the terminal failed state.
	MarkFailed(ctx context.Context, id string, attemptCount int, lastError string) error

	// ReleaseClaim moves a publishing post back to scheduled without touching
	// attempt bookkeeping. Used when no delivery attempt was actually made.
	ReleaseClaim(ctx context.Context, id string, nextAttemptAt time.Time) error

	// ResetStuckPublishing returns every publishing post to scheduled with
	// next_attempt_at = now. Crash recovery; a no-op when nothing is stuck.
	ResetStuckPublishing(ctx context.Context, now time.Time) (int64, error)

	// Rearm moves a failed post back to scheduled with attempt_count reset to
	// zero and next_attempt_at = now. Returns false when the post was not in
	// failed state.
	Rearm(ctx context.Context, id string, now time.Time) (bool, error)
}
