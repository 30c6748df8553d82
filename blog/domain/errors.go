package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrRepositoryUnavailable is returned on transport failures talking to the content repository.
	// Callers may retry.
	ErrRepositoryUnavailable = errors.New("content repository unavailable")

	// ErrNotFound is returned when the requested identifier does not exist.
	ErrNotFound = errors.New("not found")

	// ErrMalformedDocument is returned when a live document lacks a required field.
	ErrMalformedDocument = errors.New("malformed document")

	// ErrDuplicateHeading is returned when two content blocks of one post share a heading.
	ErrDuplicateHeading = fmt.Errorf("%w: duplicate content heading", ErrMalformedDocument)

	// ErrInvalidCursor is returned when a pagination cursor does not point at the configured repository.
	ErrInvalidCursor = errors.New("invalid pagination cursor")
)
