package domain

import "errors"

// Sentinel errors for domain operations
var (
	// ErrNotFound indicates the requested entity does not exist
	ErrNotFound = errors.New("not found")

	// ErrServerOffline indicates the API server is unreachable
	ErrServerOffline = errors.New("API server is unreachable")

	// ErrBadRequest indicates the server rejected the request as invalid
	ErrBadRequest = errors.New("request rejected by server")

	// ErrServerError indicates the server failed while handling the request
	ErrServerError = errors.New("server error")

	// ErrGenerationUnavailable indicates the AI service is not configured or down
	ErrGenerationUnavailable = errors.New("AI generation service unavailable")

	// ErrEmptyNote indicates a note with no content
	ErrEmptyNote = errors.New("note content cannot be empty")

	// ErrEmptyQuery indicates a search with no query text
	ErrEmptyQuery = errors.New("search query cannot be empty")
)
