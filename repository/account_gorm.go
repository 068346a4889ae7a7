package repository

import (
	"context"
	"errors"
	"time"

	domainAccount "github.com/AzielCF/fedisched/domains/account"
	pkgError "github.com/AzielCF/fedisched/pkg/error"
	"github.com/AzielCF/fedisched/platforms"
	"gorm.io/gorm"
)

type accountModel struct {
	ID                  string    `gorm:"primaryKey"`
	Platform            string    `gorm:"not null"`
	AccountID           string    `gorm:"column:account_id;not null"`
	DisplayName         string    `gorm:"column:display_name"`
	InstanceURL         string    `gorm:"column:instance_url"`
	BlueskyHandle       string    `gorm:"column:bluesky_handle"`
	EncryptedCredential string    `gorm:"column:encrypted_credential;not null"`
	IsActive            bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt           time.Time `gorm:"autoCreateTime"`
	UpdatedAt           time.Time `gorm:"autoUpdateTime"`
}

func (accountModel) TableName() string {
	return "accounts"
}

func toAccountModel(a domainAccount.Account) accountModel {
	return accountModel{
		ID:                  a.ID,
		Platform:            string(a.Platform),
		AccountID:           a.AccountID,
		DisplayName:         a.DisplayName,
		InstanceURL:         a.InstanceURL,
		BlueskyHandle:       a.BlueskyHandle,
		EncryptedCredential: a.EncryptedCredential,
		IsActive:            a.IsActive,
		CreatedAt:           a.CreatedAt,
		UpdatedAt:           a.UpdatedAt,
	}
}

func fromAccountModel(m accountModel) domainAccount.Account {
	return domainAccount.Account{
		ID:                  m.ID,
		Platform:            platforms.Kind(m.Platform),
		AccountID:           m.AccountID,
		DisplayName:         m.DisplayName,
		InstanceURL:         m.InstanceURL,
		BlueskyHandle:       m.BlueskyHandle,
		EncryptedCredential: m.EncryptedCredential,
		IsActive:            m.IsActive,
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.UpdatedAt,
	}
}

// AccountGormRepository implements IAccountRepository using GORM.
type AccountGormRepository struct {
	db *gorm.DB
}

func NewAccountGormRepository(db *gorm.DB) *AccountGormRepository {
	return &AccountGormRepository{db: db}
}

func (r *AccountGormRepository) Init(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&accountModel{})
}

func (r *AccountGormRepository) Create(ctx context.Context, a domainAccount.Account) error {
	model := toAccountModel(a)
	return r.db.WithContext(ctx).Create(&model).Error
}

func (r *AccountGormRepository) GetByID(ctx context.Context, id string) (domainAccount.Account, error) {
	var model accountModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domainAccount.Account{}, pkgError.NotFoundError("account not found")
		}
		return domainAccount.Account{}, err
	}
	return fromAccountModel(model), nil
}

func (r *AccountGormRepository) List(ctx context.Context) ([]domainAccount.Account, error) {
	var models []accountModel
	err := r.db.WithContext(ctx).Order("created_at ASC").Find(&models).Error
	if err != nil {
		return nil, err
	}

	result := make([]domainAccount.Account, len(models))
	for i, m := range models {
		result[i] = fromAccountModel(m)
	}
	return result, nil
}

func (r *AccountGormRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&accountModel{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkgError.NotFoundError("account not found")
	}
	return nil
}
