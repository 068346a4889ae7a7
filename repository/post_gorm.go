package repository

import (
	"context"
	"errors"
	"time"

	domainPost "github.com/AzielCF/fedisched/domains/post"
	pkgError "github.com/AzielCF/fedisched/pkg/error"
	"github.com/AzielCF/fedisched/platforms"
	"gorm.io/gorm"
)

// postModel is the persistence model. Keeps the domain struct free of GORM tags.
type postModel struct {
	ID             string     `gorm:"primaryKey"`
	AccountID      string     `gorm:"column:account_id;index;not null"`
	Platform       string     `gorm:"not null"`
	Content        string     `gorm:"not null"`
	ScheduledAt    time.Time  `gorm:"column:scheduled_at;index"`
	NextAttemptAt  time.Time  `gorm:"column:next_attempt_at;index"`
	Status         string     `gorm:"index;not null"`
	AttemptCount   int        `gorm:"column:attempt_count;not null;default:0"`
	LastError      string     `gorm:"column:last_error"`
	PublishedAt    *time.Time `gorm:"column:published_at"`
	ExternalPostID string     `gorm:"column:external_post_id"`
	CreatedAt      time.Time  `gorm:"autoCreateTime"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime"`
}

func (postModel) TableName() string {
	return "scheduled_posts"
}

func toPostModel(p domainPost.ScheduledPost) postModel {
	return postModel{
		ID:             p.ID,
		AccountID:      p.AccountID,
		Platform:       string(p.Platform),
		Content:        p.Content,
		ScheduledAt:    p.ScheduledAt,
		NextAttemptAt:  p.NextAttemptAt,
		Status:         string(p.Status),
		AttemptCount:   p.AttemptCount,
		LastError:      p.LastError,
		PublishedAt:    p.PublishedAt,
		ExternalPostID: p.ExternalPostID,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func fromPostModel(m postModel) domainPost.ScheduledPost {
	return domainPost.ScheduledPost{
		ID:             m.ID,
		AccountID:      m.AccountID,
		Platform:       platforms.Kind(m.Platform),
		Content:        m.Content,
		ScheduledAt:    m.ScheduledAt,
		NextAttemptAt:  m.NextAttemptAt,
		Status:         domainPost.Status(m.Status),
		AttemptCount:   m.AttemptCount,
		LastError:      m.LastError,
		PublishedAt:    m.PublishedAt,
		ExternalPostID: m.ExternalPostID,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

// PostGormRepository implements IPostRepository on GORM. Every transition is a
// single conditional UPDATE guarded by the current status, which is what makes
// the publishing claim atomic on both SQLite and Postgres.
type PostGormRepository struct {
	db *gorm.DB
}

func NewPostGormRepository(db *gorm.DB) *PostGormRepository {
	return &PostGormRepository{db: db}
}

func (r *PostGormRepository) Init(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&postModel{})
}

func (r *PostGormRepository) Create(ctx context.Context, p domainPost.ScheduledPost) error {
	model := toPostModel(p)
	return r.db.WithContext(ctx).Create(&model).Error
}

func (r *PostGormRepository) GetByID(ctx context.Context, id string) (domainPost.ScheduledPost, error) {
	var model postModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domainPost.ScheduledPost{}, pkgError.NotFoundError("post not found")
		}
		return domainPost.ScheduledPost{}, err
	}
	return fromPostModel(model), nil
}

func (r *PostGormRepository) List(ctx context.Context, filter domainPost.ListFilter) ([]domainPost.ScheduledPost, error) {
	query := r.db.WithContext(ctx).Model(&postModel{}).Order("scheduled_at DESC")
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var models []postModel
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}

	result := make([]domainPost.ScheduledPost, len(models))
	for i, m := range models {
		result[i] = fromPostModel(m)
	}
	return result, nil
}

func (r *PostGormRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&postModel{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkgError.NotFoundError("post not found")
	}
	return nil
}

func (r *PostGormRepository) CountPendingByAccount(ctx context.Context, accountID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&postModel{}).
		Where("account_id = ? AND status IN ?", accountID,
			[]string{string(domainPost.StatusScheduled), string(domainPost.StatusPublishing)}).
		Count(&count).Error
	return count, err
}

func (r *PostGormRepository) DueBefore(ctx context.Context, now time.Time) ([]domainPost.ScheduledPost, error) {
	var models []postModel
	err := r.db.WithContext(ctx).
		Where("status = ? AND next_attempt_at <= ?", string(domainPost.StatusScheduled), now).
		Order("next_attempt_at ASC, id ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	result := make([]domainPost.ScheduledPost, len(models))
	for i, m := range models {
		result[i] = fromPostModel(m)
	}
	return result, nil
}

func (r *PostGormRepository) ClaimForPublishing(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&postModel{}).
		Where("id = ? AND status = ?", id, string(domainPost.StatusScheduled)).
		Updates(map[string]any{
			"status":     string(domainPost.StatusPublishing),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *PostGormRepository) MarkPublished(ctx context.Context, id, externalPostID string, publishedAt time.Time) error {
	return r.transitionFromPublishing(ctx, id, map[string]any{
		"status":           string(domainPost.StatusPublished),
		"published_at":     publishedAt,
		"external_post_id": externalPostID,
		"last_error":       "",
		"updated_at":       time.Now().UTC(),
	})
}

func (r *PostGormRepository) RescheduleRetry(ctx context.Context, id string, attemptCount int, nextAttemptAt time.Time, lastError string) error {
	return r.transitionFromPublishing(ctx, id, map[string]any{
		"status":          string(domainPost.StatusScheduled),
		"attempt_count":   attemptCount,
		"next_attempt_at": nextAttemptAt,
		"last_error":      lastError,
		"updated_at":      time.Now().UTC(),
	})
}

func (r *PostGormRepository) MarkFailed(ctx context.Context, id string, attemptCount int, lastError string) error {
	return r.transitionFromPublishing(ctx, id, map[string]any{
		"status":        string(domainPost.StatusFailed),
		"attempt_count": attemptCount,
		"last_error":    lastError,
		"updated_at":    time.Now().UTC(),
	})
}

func (r *PostGormRepository) ReleaseClaim(ctx context.Context, id string, nextAttemptAt time.Time) error {
	return r.transitionFromPublishing(ctx, id, map[string]any{
		"status":          string(domainPost.StatusScheduled),
		"next_attempt_at": nextAttemptAt,
		"updated_at":      time.Now().UTC(),
	})
}

func (r *PostGormRepository) transitionFromPublishing(ctx context.Context, id string, updates map[string]any) error {
	res := r.db.WithContext(ctx).Model(&postModel{}).
		Where("id = ? AND status = ?", id, string(domainPost.StatusPublishing)).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkgError.NotFoundError("post not found in publishing state")
	}
	return nil
}

func (r *PostGormRepository) ResetStuckPublishing(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&postModel{}).
		Where("status = ?", string(domainPost.StatusPublishing)).
		Updates(map[string]any{
			"status":          string(domainPost.StatusScheduled),
			"next_attempt_at": now,
			"updated_at":      now,
		})
	return res.RowsAffected, res.Error
}

func (r *PostGormRepository) Rearm(ctx context.Context, id string, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&postModel{}).
		Where("id = ? AND status = ?", id, string(domainPost.StatusFailed)).
		Updates(map[string]any{
			"status":          string(domainPost.StatusScheduled),
			"attempt_count":   0,
			"next_attempt_at": now,
			"updated_at":      now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
