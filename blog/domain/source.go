package domain

import (
	"context"
	"fmt"
)

// At builds an equality predicate, e.g. At("document.type", "posts").
func At(path string, value string) string {
	return fmt.Sprintf("[at(%s, %q)]", path, value)
}

// Query describes a typed document search against the content repository.
// Fetch lists the data fields to project; an empty Fetch returns every field.
type Query struct {
	DocumentType string
	Predicates   []string
	Fetch        []string
	PageSize     int
}

// ContentRepository defines the interface for reading documents from the external content store.
// Implementations never retain fetched data.
type ContentRepository interface {
	// Query runs a search and returns the first page of results.
	Query(ctx context.Context, q Query) (*PostPage, error)

	// GetByUID returns the single document of the given type with the given uid.
	// It fails with ErrNotFound when nothing matches.
	GetByUID(ctx context.Context, documentType string, uid string) (*Post, error)

	// FetchPage fetches the page a NextPage cursor points at. The response has the same shape as Query's.
	FetchPage(ctx context.Context, cursor string) (*PostPage, error)
}
