package apperror

import "net/http"

// GenericError is implemented by every typed error in this package so the
// recovery middleware can map panics to stable HTTP responses.
type GenericError interface {
	error
	ErrCode() string
	StatusCode() int
}

type ValidationError string

func (err ValidationError) Error() string {
	return string(err)
}

func (err ValidationError) ErrCode() string {
	return "VALIDATION_ERROR"
}

func (err ValidationError) StatusCode() int {
	return http.StatusBadRequest
}

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

type WebhookError string

func (err WebhookError) Error() string {
	return string(err)
}

func (err WebhookError) ErrCode() string {
	return "WEBHOOK_ERROR"
}

func (err WebhookError) StatusCode() int {
	return http.StatusBadRequest
}

type InternalServerError string

func (err InternalServerError) Error() string {
	return string(err)
}

func (err InternalServerError) ErrCode() string {
	return "INTERNAL_SERVER_ERROR"
}

func (err InternalServerError) StatusCode() int {
	return http.StatusInternalServerError
}

// UpstreamError reports a failure of the messaging provider itself, not of
// the request that triggered it.
type UpstreamError string

func (err UpstreamError) Error() string {
	return string(err)
}

func (err UpstreamError) ErrCode() string {
	return "UPSTREAM_ERROR"
}

func (err UpstreamError) StatusCode() int {
	return http.StatusBadGateway
}
