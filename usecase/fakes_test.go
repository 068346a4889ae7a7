package usecase

import (
	"context"
	"sync"
	"time"

	domainAccount "github.com/AzielCF/fedisched/domains/account"
	domainPost "github.com/AzielCF/fedisched/domains/post"
	pkgError "github.com/AzielCF/fedisched/pkg/error"
)

type fakePostRepo struct {
	mu         sync.Mutex
	posts      map[string]domainPost.ScheduledPost
	lastFilter domainPost.ListFilter
}

func newFakePostRepo() *fakePostRepo {
	return &fakePostRepo{posts: make(map[string]domainPost.ScheduledPost)}
}

func (r *fakePostRepo) Init(ctx context.Context) error { return nil }

func (r *fakePostRepo) Create(ctx context.Context, p domainPost.ScheduledPost) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.posts[p.ID] = p
	return nil
}

func (r *fakePostRepo) GetByID(ctx context.Context, id string) (domainPost.ScheduledPost, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok {
		return domainPost.ScheduledPost{}, pkgError.NotFoundError("post not found")
	}
	return p, nil
}

func (r *fakePostRepo) List(ctx context.Context, filter domainPost.ListFilter) ([]domainPost.ScheduledPost, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastFilter = filter
	var result []domainPost.ScheduledPost
	for _, p := range r.posts {
		if filter.Status == "" || string(p.Status) == filter.Status {
			result = append(result, p)
		}
	}
	return result, nil
}

func (r *fakePostRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.posts[id]; !ok {
		return pkgError.NotFoundError("post not found")
	}
	delete(r.posts, id)
	return nil
}

func (r *fakePostRepo) CountPendingByAccount(ctx context.Context, accountID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, p := range r.posts {
		if p.AccountID == accountID &&
			(p.Status == domainPost.StatusScheduled || p.Status == domainPost.StatusPublishing) {
			count++
		}
	}
	return count, nil
}

func (r *fakePostRepo) DueBefore(ctx context.Context, now time.Time) ([]domainPost.ScheduledPost, error) {
	return nil, nil
}

func (r *fakePostRepo) ClaimForPublishing(ctx context.Context, id string) (bool, error) {
	return false, nil
}

func (r *fakePostRepo) MarkPublished(ctx context.Context, id, externalPostID string, publishedAt time.Time) error {
	return nil
}

func (r *fakePostRepo) RescheduleRetry(ctx context.Context, id string, attemptCount int, nextAttemptAt time.Time, lastError string) error {
	return nil
}

func (r *fakePostRepo) MarkFailed(ctx context.Context, id string, attemptCount int, lastError string) error {
	return nil
}

func (r *fakePostRepo) ReleaseClaim(ctx context.Context, id string, nextAttemptAt time.Time) error {
	return nil
}

func (r *fakePostRepo) ResetStuckPublishing(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}

func (r *fakePostRepo) Rearm(ctx context.Context, id string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok || p.Status != domainPost.StatusFailed {
		return false, nil
	}
	p.Status = domainPost.StatusScheduled
	p.AttemptCount = 0
	p.NextAttemptAt = now
	r.posts[id] = p
	return true, nil
}

type fakeAccountRepo struct {
	mu       sync.Mutex
	accounts map[string]domainAccount.Account
}

func newFakeAccountRepo(accounts ...domainAccount.Account) *fakeAccountRepo {
	r := &fakeAccountRepo{accounts: make(map[string]domainAccount.Account)}
	for _, a := range accounts {
		r.accounts[a.ID] = a
	}
	return r
}

func (r *fakeAccountRepo) Init(ctx context.Context) error { return nil }

func (r *fakeAccountRepo) Create(ctx context.Context, a domainAccount.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.accounts[a.ID] = a
	return nil
}

func (r *fakeAccountRepo) GetByID(ctx context.Context, id string) (domainAccount.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return domainAccount.Account{}, pkgError.NotFoundError("account not found")
	}
	return a, nil
}

func (r *fakeAccountRepo) List(ctx context.Context) ([]domainAccount.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domainAccount.Account
	for _, a := range r.accounts {
		result = append(result, a)
	}
	return result, nil
}

func (r *fakeAccountRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[id]; !ok {
		return pkgError.NotFoundError("account not found")
	}
	delete(r.accounts, id)
	return nil
}
