package app

import "errors"

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrTenantNotFound   = errors.New("tenant not found")
	ErrCaseNotFound     = errors.New("case not found")
	ErrFileNotFound     = errors.New("file not found")
	ErrResponseNotFound = errors.New("response not found")
	ErrQueueDisabled    = errors.New("case job queue is disabled")
)
