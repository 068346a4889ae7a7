package error

import (
	"errors"
	"net/http"
)

type NotFoundError string

func (err NotFoundError) Error() string {
	return string(err)
}

func (err NotFoundError) ErrCode() string {
	return "NOT_FOUND_ERROR"
}

func (err NotFoundError) StatusCode() int {
	return http.StatusNotFound
}

func IsNotFound(err error) bool {
	var ne NotFoundError
	return errors.As(err, &ne)
}
