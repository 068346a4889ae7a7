package error

import (
	"errors"
	"net/http"
)

// CredentialInvalidError marks a credential as unusable (revoked, expired or
// undecryptable). The dispatcher treats it as a terminal delivery failure.
type CredentialInvalidError string

func (err CredentialInvalidError) Error() string {
	return string(err)
}

func (err CredentialInvalidError) ErrCode() string {
	return "CREDENTIAL_INVALID_ERROR"
}

func (err CredentialInvalidError) StatusCode() int {
	return http.StatusUnprocessableEntity
}

func IsCredentialInvalid(err error) bool {
	var ce CredentialInvalidError
	return errors.As(err, &ce)
}
