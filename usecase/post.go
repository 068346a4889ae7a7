package usecase

import (
	"context"
	"fmt"
	"time"

	domainAccount "github.com/AzielCF/fedisched/domains/account"
	domainPost "github.com/AzielCF/fedisched/domains/post"
	pkgError "github.com/AzielCF/fedisched/pkg/error"
	"github.com/AzielCF/fedisched/validations"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	defaultListLimit = 50
	maxListLimit     = 100
)

type postService struct {
	posts    domainPost.IPostRepository
	accounts domainAccount.IAccountRepository
}

func NewPostService(posts domainPost.IPostRepository, accounts domainAccount.IAccountRepository) domainPost.IPostUsecase {
	return &postService{posts: posts, accounts: accounts}
}

// Create fans the content out into one scheduled post per target account.
// A nil scheduled_at means "publish now": the post is created due immediately
// and the next scheduler tick delivers it.
func (s *postService) Create(ctx context.Context, request domainPost.CreateRequest) ([]domainPost.ScheduledPost, error) {
	if err := validations.ValidateCreatePost(ctx, request); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	scheduledAt := now
	if request.ScheduledAt != nil {
		scheduledAt = request.ScheduledAt.UTC()
	}

	// Validate all accounts up front so a bad id creates nothing.
	accounts := make([]domainAccount.Account, 0, len(request.AccountIDs))
	for _, accountID := range request.AccountIDs {
		account, err := s.accounts.GetByID(ctx, accountID)
		if err != nil {
			if pkgError.IsNotFound(err) {
				return nil, pkgError.NotFoundError(fmt.Sprintf("account not found: %s", accountID))
			}
			return nil, err
		}
		accounts = append(accounts, account)
	}

	created := make([]domainPost.ScheduledPost, 0, len(accounts))
	for _, account := range accounts {
		p := domainPost.ScheduledPost{
			ID:            uuid.NewString(),
			AccountID:     account.ID,
			Platform:      account.Platform,
			Content:       request.Content,
			ScheduledAt:   scheduledAt,
			NextAttemptAt: scheduledAt,
			Status:        domainPost.StatusScheduled,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := s.posts.Create(ctx, p); err != nil {
			return nil, fmt.Errorf("failed to create post for account %s: %w", account.ID, err)
		}
		created = append(created, p)
	}

	logrus.Infof("[Post] created %d post(s) scheduled at %s", len(created), scheduledAt.Format(time.RFC3339))
	return created, nil
}

func (s *postService) List(ctx context.Context, filter domainPost.ListFilter) ([]domainPost.ScheduledPost, error) {
	if filter.Status != "" && !domainPost.ValidStatus(filter.Status) {
		return nil, pkgError.ValidationError(fmt.Sprintf("unknown status filter: %s", filter.Status))
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.posts.List(ctx, filter)
}

// Retry re-arms a failed post for immediate delivery with a fresh attempt
// budget. Rejected for any other state.
func (s *postService) Retry(ctx context.Context, id string) (domainPost.ScheduledPost, error) {
	rearmed, err := s.posts.Rearm(ctx, id, time.Now().UTC())
	if err != nil {
		return domainPost.ScheduledPost{}, err
	}
	if !rearmed {
		current, err := s.posts.GetByID(ctx, id)
		if err != nil {
			return domainPost.ScheduledPost{}, err
		}
		return domainPost.ScheduledPost{}, pkgError.ValidationError(
			fmt.Sprintf("cannot retry post with status %q, only failed posts can be retried", current.Status))
	}
	logrus.Infof("[Post] post %s re-armed for retry", id)
	return s.posts.GetByID(ctx, id)
}

func (s *postService) Delete(ctx context.Context, id string) error {
	if err := s.posts.Delete(ctx, id); err != nil {
		return err
	}
	logrus.Infof("[Post] post %s deleted", id)
	return nil
}
