package application

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dfryer1193/spacetraveling/blog/domain"
)

func publishedPost(uid string, title string) *domain.Post {
	published := time.Date(2021, time.March, 19, 12, 0, 0, 0, time.UTC)
	return &domain.Post{
		UID:                  uid,
		FirstPublicationDate: &published,
		Data: domain.PostData{
			Title:    title,
			Subtitle: title + " subtitle",
			Author:   "Joseph Oliveira",
			Content: []domain.ContentBlock{{
				Heading: "Intro",
				Body:    []domain.RichTextSpan{{Type: domain.SpanParagraph, Text: "Body of " + title}},
			}},
		},
	}
}

func cursor(s string) *string {
	return &s
}

// fakeContent is an in-memory content repository. Pages maps a cursor to the
// page it returns; First is returned by Query.
type fakeContent struct {
	mu      sync.Mutex
	first   *domain.PostPage
	pages   map[string]*domain.PostPage
	posts   map[string]*domain.Post
	errs    map[string]error
	queries []domain.Query
	fetches []string
}

func newFakeContent() *fakeContent {
	return &fakeContent{
		first: &domain.PostPage{Page: 1},
		pages: make(map[string]*domain.PostPage),
		posts: make(map[string]*domain.Post),
		errs:  make(map[string]error),
	}
}

func (f *fakeContent) setPost(p *domain.Post) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posts[p.UID] = p
}

func (f *fakeContent) removePost(uid string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.posts, uid)
}

// failOn makes the call identified by key fail: "query", a cursor, or "uid:<uid>".
func (f *fakeContent) failOn(key string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.errs, key)
		return
	}
	f.errs[key] = err
}

func (f *fakeContent) Query(_ context.Context, q domain.Query) (*domain.PostPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.queries = append(f.queries, q)
	if err := f.errs["query"]; err != nil {
		return nil, err
	}

	if q.PageSize >= len(f.first.Results) {
		return f.first, nil
	}
	// Mimic the list page's smaller page size by truncating.
	return &domain.PostPage{
		Page:     f.first.Page,
		Results:  f.first.Results[:q.PageSize],
		NextPage: f.first.NextPage,
	}, nil
}

func (f *fakeContent) GetByUID(_ context.Context, documentType string, uid string) (*domain.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.errs["uid:"+uid]; err != nil {
		return nil, err
	}
	post, ok := f.posts[uid]
	if !ok {
		return nil, fmt.Errorf("%w: %s %q", domain.ErrNotFound, documentType, uid)
	}
	return post, nil
}

func (f *fakeContent) FetchPage(_ context.Context, c string) (*domain.PostPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.fetches = append(f.fetches, c)
	if err := f.errs[c]; err != nil {
		return nil, err
	}
	page, ok := f.pages[c]
	if !ok {
		return nil, fmt.Errorf("%w: unknown cursor %s", domain.ErrInvalidCursor, c)
	}
	return page, nil
}

// fakePageStore is an in-memory page repository.
type fakePageStore struct {
	mu      sync.Mutex
	pages   map[string]*domain.Page
	saveErr error
	getErr  error
}

func newFakePageStore() *fakePageStore {
	return &fakePageStore{pages: make(map[string]*domain.Page)}
}

func (s *fakePageStore) SavePage(_ context.Context, p *domain.Page) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.saveErr != nil {
		return s.saveErr
	}
	stored := *p
	s.pages[p.Path] = &stored
	return nil
}

func (s *fakePageStore) GetPage(_ context.Context, path string) (*domain.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.getErr != nil {
		return nil, s.getErr
	}
	p, ok := s.pages[path]
	if !ok {
		return nil, fmt.Errorf("%w: page %s", domain.ErrNotFound, path)
	}
	stored := *p
	return &stored, nil
}

func (s *fakePageStore) DeletePage(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.pages, path)
	return nil
}

func (s *fakePageStore) ListPaths(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	paths := make([]string, 0, len(s.pages))
	for p := range s.pages {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths, nil
}

func (s *fakePageStore) get(path string) (*domain.Page, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.pages[path]
	return p, ok
}

// recordingObserver counts events by trigger and outcome.
type recordingObserver struct {
	mu        sync.Mutex
	generated map[string]int
	failed    map[string]int
	served    map[string]int
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{
		generated: make(map[string]int),
		failed:    make(map[string]int),
		served:    make(map[string]int),
	}
}

func (o *recordingObserver) PageGenerated(_ domain.PageKind, trigger string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.generated[trigger]++
}

func (o *recordingObserver) PageFailed(trigger string, _ error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.failed[trigger]++
}

func (o *recordingObserver) PageServed(outcome string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.served[outcome]++
}

func (o *recordingObserver) count(m map[string]int, key string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return m[key]
}
