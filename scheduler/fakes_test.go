package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	domainAccount "github.com/AzielCF/fedisched/domains/account"
	domainPost "github.com/AzielCF/fedisched/domains/post"
	pkgError "github.com/AzielCF/fedisched/pkg/error"
	"github.com/AzielCF/fedisched/platforms"
)

// fakePostStore is an in-memory IPostRepository with the same conditional
// transition semantics as the gorm repository.
type fakePostStore struct {
	mu    sync.Mutex
	posts map[string]domainPost.ScheduledPost
}

func newFakePostStore(posts ...domainPost.ScheduledPost) *fakePostStore {
	s := &fakePostStore{posts: make(map[string]domainPost.ScheduledPost)}
	for _, p := range posts {
		s.posts[p.ID] = p
	}
	return s
}

func (s *fakePostStore) get(id string) domainPost.ScheduledPost {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.posts[id]
}

func (s *fakePostStore) Init(ctx context.Context) error { return nil }

func (s *fakePostStore) Create(ctx context.Context, p domainPost.ScheduledPost) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts[p.ID] = p
	return nil
}

func (s *fakePostStore) GetByID(ctx context.Context, id string) (domainPost.ScheduledPost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok {
		return domainPost.ScheduledPost{}, pkgError.NotFoundError("post not found")
	}
	return p, nil
}

func (s *fakePostStore) List(ctx context.Context, filter domainPost.ListFilter) ([]domainPost.ScheduledPost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []domainPost.ScheduledPost
	for _, p := range s.posts {
		if filter.Status == "" || string(p.Status) == filter.Status {
			result = append(result, p)
		}
	}
	return result, nil
}

func (s *fakePostStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.posts[id]; !ok {
		return pkgError.NotFoundError("post not found")
	}
	delete(s.posts, id)
	return nil
}

func (s *fakePostStore) CountPendingByAccount(ctx context.Context, accountID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for _, p := range s.posts {
		if p.AccountID == accountID &&
			(p.Status == domainPost.StatusScheduled || p.Status == domainPost.StatusPublishing) {
			count++
		}
	}
	return count, nil
}

func (s *fakePostStore) DueBefore(ctx context.Context, now time.Time) ([]domainPost.ScheduledPost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var due []domainPost.ScheduledPost
	for _, p := range s.posts {
		if p.Status == domainPost.StatusScheduled && !p.NextAttemptAt.After(now) {
			due = append(due, p)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].NextAttemptAt.Equal(due[j].NextAttemptAt) {
			return due[i].ID < due[j].ID
		}
		return due[i].NextAttemptAt.Before(due[j].NextAttemptAt)
	})
	return due, nil
}

func (s *fakePostStore) ClaimForPublishing(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok || p.Status != domainPost.StatusScheduled {
		return false, nil
	}
	p.Status = domainPost.StatusPublishing
	s.posts[id] = p
	return true, nil
}

func (s *fakePostStore) MarkPublished(ctx context.Context, id, externalPostID string, publishedAt time.Time) error {
	return s.fromPublishing(id, func(p *domainPost.ScheduledPost) {
		p.Status = domainPost.StatusPublished
		p.ExternalPostID = externalPostID
		p.PublishedAt = &publishedAt
		p.LastError = ""
	})
}

func (s *fakePostStore) RescheduleRetry(ctx context.Context, id string, attemptCount int, nextAttemptAt time.Time, lastError string) error {
	return s.fromPublishing(id, func(p *domainPost.ScheduledPost) {
		p.Status = domainPost.StatusScheduled
		p.AttemptCount = attemptCount
		p.NextAttemptAt = nextAttemptAt
		p.LastError = lastError
	})
}

func (s *fakePostStore) MarkFailed(ctx context.Context, id string, attemptCount int, lastError string) error {
	return s.fromPublishing(id, func(p *domainPost.ScheduledPost) {
		p.Status = domainPost.StatusFailed
		p.AttemptCount = attemptCount
		p.LastError = lastError
	})
}

func (s *fakePostStore) ReleaseClaim(ctx context.Context, id string, nextAttemptAt time.Time) error {
	return s.fromPublishing(id, func(p *domainPost.ScheduledPost) {
		p.Status = domainPost.StatusScheduled
		p.NextAttemptAt = nextAttemptAt
	})
}

func (s *fakePostStore) fromPublishing(id string, mutate func(*domainPost.ScheduledPost)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok || p.Status != domainPost.StatusPublishing {
		return pkgError.NotFoundError("post not found in publishing state")
	}
	mutate(&p)
	s.posts[id] = p
	return nil
}

func (s *fakePostStore) ResetStuckPublishing(ctx context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var reset int64
	for id, p := range s.posts {
		if p.Status == domainPost.StatusPublishing {
			p.Status = domainPost.StatusScheduled
			p.NextAttemptAt = now
			s.posts[id] = p
			reset++
		}
	}
	return reset, nil
}

func (s *fakePostStore) Rearm(ctx context.Context, id string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok || p.Status != domainPost.StatusFailed {
		return false, nil
	}
	p.Status = domainPost.StatusScheduled
	p.AttemptCount = 0
	p.NextAttemptAt = now
	s.posts[id] = p
	return true, nil
}

// fakeResolver returns a fixed kind/credential or a canned error.
type fakeResolver struct {
	kind platforms.Kind
	cred platforms.Credential
	err  error
}

func (r *fakeResolver) ResolveCredential(ctx context.Context, accountID string) (platforms.Kind, platforms.Credential, error) {
	if r.err != nil {
		return "", platforms.Credential{}, r.err
	}
	return r.kind, r.cred, nil
}

var _ domainAccount.ICredentialResolver = (*fakeResolver)(nil)

// fakeClient records publish calls and returns a scripted outcome.
type fakeClient struct {
	kind platforms.Kind

	mu         sync.Mutex
	calls      int
	externalID string
	err        error
}

func (c *fakeClient) Kind() platforms.Kind { return c.kind }

func (c *fakeClient) Publish(ctx context.Context, cred platforms.Credential, content string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.err != nil {
		return "", c.err
	}
	if c.externalID != "" {
		return c.externalID, nil
	}
	return fmt.Sprintf("external-%d", c.calls), nil
}

func (c *fakeClient) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}
