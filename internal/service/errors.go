package service

import "errors"

var (
	// ErrInvalidInput marks a request the caller must fix before retrying.
	ErrInvalidInput = errors.New("invalid input")

	// ErrModelRequest marks a failed call to the model provider.
	ErrModelRequest = errors.New("model request failed")
)
