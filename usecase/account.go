package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	domainAccount "github.com/AzielCF/fedisched/domains/account"
	domainPost "github.com/AzielCF/fedisched/domains/post"
	"github.com/AzielCF/fedisched/pkg/crypto"
	pkgError "github.com/AzielCF/fedisched/pkg/error"
	"github.com/AzielCF/fedisched/platforms"
	"github.com/AzielCF/fedisched/validations"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// AccountService implements IAccountUsecase and, through ResolveCredential,
// the ICredentialResolver contract consumed by the dispatcher.
type AccountService struct {
	accounts domainAccount.IAccountRepository
	posts    domainPost.IPostRepository
}

var (
	_ domainAccount.IAccountUsecase     = (*AccountService)(nil)
	_ domainAccount.ICredentialResolver = (*AccountService)(nil)
)

func NewAccountService(accounts domainAccount.IAccountRepository, posts domainPost.IPostRepository) *AccountService {
	return &AccountService{accounts: accounts, posts: posts}
}

func (s *AccountService) Connect(ctx context.Context, request domainAccount.ConnectRequest) (domainAccount.Account, error) {
	if err := validations.ValidateConnectAccount(ctx, request); err != nil {
		return domainAccount.Account{}, err
	}

	encrypted, err := crypto.Encrypt(request.Credential)
	if err != nil {
		return domainAccount.Account{}, fmt.Errorf("failed to encrypt credential: %w", err)
	}

	now := time.Now().UTC()
	account := domainAccount.Account{
		ID:                  uuid.NewString(),
		Platform:            platforms.Kind(request.Platform),
		DisplayName:         request.DisplayName,
		EncryptedCredential: encrypted,
		IsActive:            true,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	switch account.Platform {
	case platforms.KindMastodon:
		account.InstanceURL = request.InstanceURL
		account.AccountID = fmt.Sprintf("%s@%s", request.Handle, hostOf(request.InstanceURL))
	case platforms.KindBluesky:
		account.BlueskyHandle = request.Handle
		account.AccountID = request.Handle
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		return domainAccount.Account{}, err
	}
	logrus.Infof("[Account] connected %s account %s", account.Platform, account.AccountID)
	return account, nil
}

func (s *AccountService) List(ctx context.Context) ([]domainAccount.Account, error) {
	return s.accounts.List(ctx)
}

// Delete removes an account unless it still has pending posts; dropping the
// account under a scheduled post would strand the post in a permanent
// account-not-found loop.
func (s *AccountService) Delete(ctx context.Context, id string) error {
	if _, err := s.accounts.GetByID(ctx, id); err != nil {
		return err
	}

	pending, err := s.posts.CountPendingByAccount(ctx, id)
	if err != nil {
		return err
	}
	if pending > 0 {
		return pkgError.ValidationError(
			fmt.Sprintf("account has %d pending post(s); delete or wait for them first", pending))
	}

	if err := s.accounts.Delete(ctx, id); err != nil {
		return err
	}
	logrus.Infof("[Account] account %s deleted", id)
	return nil
}

// ResolveCredential returns the platform kind and decrypted credential for an
// account. Undecryptable or deactivated credentials surface as
// CredentialInvalidError so the dispatcher treats them as terminal.
func (s *AccountService) ResolveCredential(ctx context.Context, accountID string) (platforms.Kind, platforms.Credential, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return "", platforms.Credential{}, err
	}
	if !account.IsActive {
		return "", platforms.Credential{}, pkgError.CredentialInvalidError("account is deactivated")
	}

	token, err := crypto.Decrypt(account.EncryptedCredential)
	if err != nil {
		return "", platforms.Credential{}, pkgError.CredentialInvalidError(
			fmt.Sprintf("stored credential cannot be decrypted: %v", err))
	}

	cred := platforms.Credential{Token: token}
	switch account.Platform {
	case platforms.KindMastodon:
		cred.InstanceURL = account.InstanceURL
	case platforms.KindBluesky:
		cred.Handle = account.BlueskyHandle
	}
	return account.Platform, cred, nil
}

func hostOf(instanceURL string) string {
	host := instanceURL
	if i := strings.Index(host, "://"); i >= 0 {
		host = host[i+3:]
	}
	if i := strings.Index(host, "/"); i >= 0 {
		host = host[:i]
	}
	return host
}
