package validations

import (
	"context"

	domainPost "github.com/AzielCF/fedisched/domains/post"
	pkgError "github.com/AzielCF/fedisched/pkg/error"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// maxContentLength mirrors the strictest network limit among the supported
// platforms (Mastodon's default 500 characters).
const maxContentLength = 500

func ValidateCreatePost(ctx context.Context, request domainPost.CreateRequest) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.Content, validation.Required, validation.RuneLength(1, maxContentLength)),
		validation.Field(&request.AccountIDs, validation.Required, validation.Length(1, 0)),
	)

	if err != nil {
		return pkgError.ValidationError(err.Error())
	}

	return nil
}
