package router

import "errors"

// Domain-specific errors for topic binding.
var (
	// ErrDuplicateBinding is returned when a topic is bound twice on one connection.
	ErrDuplicateBinding = errors.New("router: topic already bound")

	// ErrInvalidTopic is returned for an empty topic.
	ErrInvalidTopic = errors.New("router: topic cannot be empty")

	// ErrInvalidHandler is returned for a nil handler.
	ErrInvalidHandler = errors.New("router: handler cannot be nil")
)
