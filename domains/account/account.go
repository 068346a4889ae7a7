package account

import (
	"context"
	"time"

	"github.com/AzielCF/fedisched/platforms"
)

// Account is a connected social network account. The credential is stored
// encrypted and never leaves the resolver in serialized form.
type Account struct {
	ID                  string         `json:"id"`
	Platform            platforms.Kind `json:"platform"`
	AccountID           string         `json:"account_id"` // platform handle, e.g. user@instance.social
	DisplayName         string         `json:"display_name,omitempty"`
	InstanceURL         string         `json:"instance_url,omitempty"`    // Mastodon only
	BlueskyHandle       string         `json:"bluesky_handle,omitempty"`  // Bluesky only
	EncryptedCredential string         `json:"-"`
	IsActive            bool           `json:"is_active"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
}

// ConnectRequest supplies the credentials for a new account. Credential is
// the Mastodon access token or the Bluesky app password.
type ConnectRequest struct {
	Platform    string `json:"platform"`
	InstanceURL string `json:"instance_url"`
	Handle      string `json:"handle"`
	DisplayName string `json:"display_name"`
	Credential  string `json:"credential"`
}

type IAccountUsecase interface {
	Connect(ctx context.Context, request ConnectRequest) (Account, error)
	List(ctx context.Context) ([]Account, error)
	Delete(ctx context.Context, id string) error
}

// ICredentialResolver turns an account reference into the platform kind and
// usable credential the dispatcher needs. Implementations must return
// pkg/error.CredentialInvalidError when the stored credential is unusable so
// the dispatcher can classify the failure as terminal.
type ICredentialResolver interface {
	ResolveCredential(ctx context.Context, accountID string) (platforms.Kind, platforms.Credential, error)
}

type IAccountRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, a Account) error
	GetByID(ctx context.Context, id string) (Account, error)
	List(ctx context.Context) ([]Account, error)
	Delete(ctx context.Context, id string) error
}
