package error

// GenericError is implemented by every error type in this package so the
// REST recovery middleware can translate panics into HTTP responses.
type GenericError interface {
	Error() string
	ErrCode() string
	StatusCode() int
}
