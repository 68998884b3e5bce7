package domain

import "errors"

var (
	ErrNotFound       = errors.New("resource not found")
	ErrRateLimited    = errors.New("rate limit exceeded")
	ErrJobTerminal    = errors.New("job already in a terminal state")
	ErrNotCancellable = errors.New("job can only be cancelled while pending")
	ErrBatchTooLarge  = errors.New("batch exceeds tier limit")
)
