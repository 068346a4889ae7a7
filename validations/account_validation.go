package validations

import (
	"context"

	domainAccount "github.com/AzielCF/fedisched/domains/account"
	pkgError "github.com/AzielCF/fedisched/pkg/error"
	"github.com/AzielCF/fedisched/platforms"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

func ValidateConnectAccount(ctx context.Context, request domainAccount.ConnectRequest) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.Platform, validation.Required,
			validation.By(func(value interface{}) error {
				if !platforms.ValidKind(value.(string)) {
					return validation.NewError("platform_kind", "must be one of: mastodon, bluesky")
				}
				return nil
			})),
		validation.Field(&request.Handle, validation.Required),
		validation.Field(&request.Credential, validation.Required),
		validation.Field(&request.InstanceURL,
			validation.Required.When(request.Platform == string(platforms.KindMastodon))),
	)

	if err != nil {
		return pkgError.ValidationError(err.Error())
	}

	return nil
}
