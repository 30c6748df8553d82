package domain

import (
	"context"
	"strings"
	"time"
)

// PageKind distinguishes the landing list page from individual post pages.
type PageKind string

const (
	PageKindList PageKind = "list"
	PageKindPost PageKind = "post"
)

const (
	// ListPath is the path of the landing page.
	ListPath = "/"

	postPathPrefix = "/post/"
)

// PostPath returns the page path for a post uid.
func PostPath(uid string) string {
	return postPathPrefix + uid
}

// UIDFromPath extracts the post uid from a post page path.
// Example: "/post/my-first-post" -> "my-first-post"
func UIDFromPath(path string) (string, bool) {
	uid, found := strings.CutPrefix(path, postPathPrefix)
	if !found || uid == "" || strings.Contains(uid, "/") {
		return "", false
	}
	return uid, true
}

// Page is a generated page. Exactly one of List and Post is set, matching Kind.
type Page struct {
	Path        string    `json:"path"`
	Kind        PageKind  `json:"kind"`
	List        *ListPage `json:"list,omitempty"`
	Post        *PostView `json:"post,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
}

// IsStale reports whether the page is older than window at now.
func (p *Page) IsStale(now time.Time, window time.Duration) bool {
	return now.Sub(p.GeneratedAt) >= window
}

// PostSummary is a list entry with its publication date already formatted.
type PostSummary struct {
	UID                  string `json:"uid"`
	FirstPublicationDate string `json:"first_publication_date"`
	Title                string `json:"title"`
	Subtitle             string `json:"subtitle"`
	Author               string `json:"author"`
}

// ListPage is the landing page payload: the first page of summaries and the
// cursor the client continues from.
type ListPage struct {
	Results  []PostSummary `json:"results"`
	NextPage *string       `json:"next_page"`
	Page     int           `json:"page"`
}

// PostView is a post rendered for display.
type PostView struct {
	UID          string          `json:"uid"`
	Title        string          `json:"title"`
	Subtitle     string          `json:"subtitle"`
	Author       string          `json:"author"`
	BannerURL    string          `json:"banner_url"`
	PublishedOn  string          `json:"published_on"`
	ReadingTime  int             `json:"reading_time"`
	ReadingLabel string          `json:"reading_label"`
	Blocks       []RenderedBlock `json:"content"`
}

// RenderedBlock is a content block whose body has been rendered to HTML.
type RenderedBlock struct {
	Key     string `json:"key"`
	Heading string `json:"heading"`
	HTML    string `json:"html"`
}

// PageRepository stores generated pages keyed by path.
type PageRepository interface {
	SavePage(ctx context.Context, p *Page) error
	// GetPage returns ErrNotFound when no page has been generated for path.
	GetPage(ctx context.Context, path string) (*Page, error)
	DeletePage(ctx context.Context, path string) error
	ListPaths(ctx context.Context) ([]string, error)
}
