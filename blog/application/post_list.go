package application

import (
	"context"
	"fmt"
	"sync"

	"github.com/dfryer1193/spacetraveling/blog/domain"
)

// PageFetcher fetches the page a pagination cursor points at.
// domain.ContentRepository satisfies it.
type PageFetcher interface {
	FetchPage(ctx context.Context, cursor string) (*domain.PostPage, error)
}

// PostList holds one viewing session's list state: the summaries loaded so
// far in arrival order, the cursor to the next page, and the page ordinal.
// Transitions are all-or-nothing. A cursor is fetched at most once per session.
type PostList struct {
	fetcher PageFetcher
	dates   *DateFormatter

	mu       sync.Mutex
	posts    []domain.PostSummary
	seen     map[string]struct{}
	cursors  map[string]struct{}
	nextPage *string
	page     int
	loading  bool
}

func NewPostList(fetcher PageFetcher, dates *DateFormatter) *PostList {
	return &PostList{
		fetcher: fetcher,
		dates:   dates,
		seen:    make(map[string]struct{}),
		cursors: make(map[string]struct{}),
	}
}

// Initialize resets the session to the landing page's first page. Results
// are expected to be formatted already.
func (l *PostList) Initialize(initial domain.ListPage) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.posts = make([]domain.PostSummary, 0, len(initial.Results))
	l.seen = make(map[string]struct{}, len(initial.Results))
	l.cursors = make(map[string]struct{})
	l.appendLocked(initial.Results)
	l.nextPage = nil
	if initial.NextPage != nil && *initial.NextPage != "" {
		next := *initial.NextPage
		l.nextPage = &next
	}
	l.page = 1
}

// LoadMore fetches the page at the cursor and appends its posts. It returns
// the number of posts appended. When there is no further page, or another
// LoadMore is in flight, it returns immediately without touching state. On
// failure state is left unchanged and the error is returned for retry. A page
// whose next cursor leads back to a page already fetched fails with
// domain.ErrInvalidCursor, and its cursor is never fetched again.
func (l *PostList) LoadMore(ctx context.Context) (int, error) {
	l.mu.Lock()
	if l.nextPage == nil || l.loading {
		l.mu.Unlock()
		return 0, nil
	}
	cursor := *l.nextPage
	if _, done := l.cursors[cursor]; done {
		l.mu.Unlock()
		return 0, fmt.Errorf("%w: page %s was already fetched", domain.ErrInvalidCursor, cursor)
	}
	l.loading = true
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		l.loading = false
		l.mu.Unlock()
	}()

	fetched, err := l.fetcher.FetchPage(ctx, cursor)
	if err != nil {
		return 0, fmt.Errorf("failed to load page %s: %w", cursor, err)
	}

	summaries := make([]domain.PostSummary, 0, len(fetched.Results))
	for _, post := range fetched.Results {
		summary, err := l.dates.Summarize(post)
		if err != nil {
			return 0, fmt.Errorf("failed to load page %s: %w", cursor, err)
		}
		summaries = append(summaries, summary)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if fetched.HasNext() {
		next := *fetched.NextPage
		_, cycle := l.cursors[next]
		if cycle || next == cursor {
			l.cursors[cursor] = struct{}{}
			return 0, fmt.Errorf("%w: page %s leads back to %s", domain.ErrInvalidCursor, cursor, next)
		}
	}

	l.cursors[cursor] = struct{}{}
	added := l.appendLocked(summaries)
	l.nextPage = nil
	if fetched.HasNext() {
		next := *fetched.NextPage
		l.nextPage = &next
	}
	// Trust the server's ordinal; only count locally when it omits one.
	if fetched.Page > 0 {
		l.page = fetched.Page
	} else {
		l.page++
	}

	return added, nil
}

// appendLocked appends summaries whose uid is not already present.
func (l *PostList) appendLocked(summaries []domain.PostSummary) int {
	added := 0
	for _, s := range summaries {
		if _, dup := l.seen[s.UID]; dup {
			continue
		}
		l.seen[s.UID] = struct{}{}
		l.posts = append(l.posts, s)
		added++
	}
	return added
}

// Posts returns a copy of the loaded summaries in arrival order.
func (l *PostList) Posts() []domain.PostSummary {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]domain.PostSummary, len(l.posts))
	copy(out, l.posts)
	return out
}

// NextPage returns the cursor to the next page, or "" when there is none.
func (l *PostList) NextPage() string {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.nextPage == nil {
		return ""
	}
	return *l.nextPage
}

// HasMore reports whether LoadMore can make progress; the list shows its
// "load more" control only while it does.
func (l *PostList) HasMore() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.nextPage == nil {
		return false
	}
	_, done := l.cursors[*l.nextPage]
	return !done
}

// Page returns the ordinal of the last page loaded.
func (l *PostList) Page() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.page
}

// LoadAll calls LoadMore until the cursor runs out or a page fails. It must
// not race other LoadMore callers on the same list.
func (l *PostList) LoadAll(ctx context.Context) error {
	for l.HasMore() {
		if _, err := l.LoadMore(ctx); err != nil {
			return err
		}
	}
	return nil
}
