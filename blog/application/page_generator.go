package application

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dfryer1193/spacetraveling/blog/domain"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	// RevalidateAfter is how long a generated page stays fresh. Tunable only
	// at compile time.
	RevalidateAfter = 1800 * time.Second

	// ListPageSize is the number of posts on the landing page.
	ListPageSize = 1

	enumeratePageSize  = 100
	defaultConcurrency = 4
)

var listFields = []string{"posts.title", "posts.subtitle", "posts.author"}

// BuildReport summarizes a Prebuild run.
type BuildReport struct {
	Built  []string
	Failed map[string]error
}

// Option configures a PageGenerator.
type Option func(*PageGenerator)

// WithConcurrency bounds the number of pages generated in parallel by Prebuild.
func WithConcurrency(n int) Option {
	return func(g *PageGenerator) {
		if n > 0 {
			g.concurrency = n
		}
	}
}

// WithObserver reports generation events to o.
func WithObserver(o Observer) Option {
	return func(g *PageGenerator) {
		g.observer = o
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(g *PageGenerator) {
		g.now = now
	}
}

// PageGenerator decides, per page, whether it is served from the page
// store, generated on first request, or regenerated after RevalidateAfter.
type PageGenerator struct {
	content  domain.ContentRepository
	pages    domain.PageRepository
	renderer *PostRenderer
	dates    *DateFormatter

	observer    Observer
	concurrency int
	now         func() time.Time

	// Service lifecycle context - cancelled when Close() is called
	ctx    context.Context
	cancel context.CancelFunc
	wg     *sync.WaitGroup

	mu       sync.Mutex
	prebuilt map[string]struct{}
}

func NewPageGenerator(content domain.ContentRepository, pages domain.PageRepository, renderer *PostRenderer, dates *DateFormatter, opts ...Option) *PageGenerator {
	ctx, cancel := context.WithCancel(context.Background())
	g := &PageGenerator{
		content:     content,
		pages:       pages,
		renderer:    renderer,
		dates:       dates,
		observer:    nopObserver{},
		concurrency: defaultConcurrency,
		now:         time.Now,
		ctx:         ctx,
		cancel:      cancel,
		wg:          &sync.WaitGroup{},
		prebuilt:    make(map[string]struct{}),
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// Close cancels background regeneration and waits for it to finish
func (g *PageGenerator) Close() error {
	g.cancel()
	g.wg.Wait()

	return nil
}

// Enumerate walks every post in the repository and marks its page path as
// pre-buildable. It returns the post paths in repository order. Each cursor is
// fetched once; a cursor that comes round again fails with
// domain.ErrInvalidCursor.
func (g *PageGenerator) Enumerate(ctx context.Context) ([]string, error) {
	page, err := g.content.Query(ctx, domain.Query{
		DocumentType: domain.DocumentTypePosts,
		Predicates:   []string{domain.At("document.type", domain.DocumentTypePosts)},
		Fetch:        []string{"posts.title"},
		PageSize:     enumeratePageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate posts: %w", err)
	}

	var paths []string
	visited := make(map[string]struct{})
	cursors := make(map[string]struct{})
	for {
		for _, post := range page.Results {
			if post.UID == "" {
				continue
			}
			path := domain.PostPath(post.UID)
			if _, dup := visited[path]; dup {
				continue
			}
			visited[path] = struct{}{}
			paths = append(paths, path)
		}

		if !page.HasNext() {
			break
		}

		cursor := *page.NextPage
		if _, done := cursors[cursor]; done {
			return nil, fmt.Errorf("%w: enumeration came back to page %s", domain.ErrInvalidCursor, cursor)
		}
		cursors[cursor] = struct{}{}

		page, err = g.content.FetchPage(ctx, cursor)
		if err != nil {
			return nil, fmt.Errorf("failed to enumerate posts at %s: %w", cursor, err)
		}
	}

	g.mu.Lock()
	for _, p := range paths {
		g.prebuilt[p] = struct{}{}
	}
	g.mu.Unlock()

	return paths, nil
}

// IsPrebuilt reports whether path was found by the last enumeration. The
// landing page always is.
func (g *PageGenerator) IsPrebuilt(path string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if path == domain.ListPath {
		return true
	}
	_, ok := g.prebuilt[path]
	return ok
}

// Prebuild enumerates all posts and generates the landing page and every
// post page in parallel. A failed page is recorded in the report and never
// stops the others; only a failed enumeration returns an error.
func (g *PageGenerator) Prebuild(ctx context.Context) (*BuildReport, error) {
	paths, err := g.Enumerate(ctx)
	if err != nil {
		return nil, err
	}
	paths = append([]string{domain.ListPath}, paths...)

	report := &BuildReport{Failed: make(map[string]error)}
	var mu sync.Mutex

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.concurrency)
	for _, path := range paths {
		eg.Go(func() error {
			_, err := g.generate(egCtx, path, TriggerBuild)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Error().Err(err).Str("path", path).Msg("Failed to prebuild page")
				report.Failed[path] = err
				return nil
			}
			report.Built = append(report.Built, path)
			return nil
		})
	}
	_ = eg.Wait()

	sort.Strings(report.Built)
	log.Info().Int("built", len(report.Built)).Int("failed", len(report.Failed)).Msg("Prebuild finished")

	return report, nil
}

// Generate builds the page at path from the repository and stores it.
// It fails with domain.ErrNotFound for unknown paths or posts.
func (g *PageGenerator) Generate(ctx context.Context, path string) (*domain.Page, error) {
	return g.generate(ctx, path, TriggerFallback)
}

// Serve returns the page at path. A stored page is served as is; once it is
// older than RevalidateAfter it is still served while a background
// regeneration replaces it. A page that was never generated is generated
// synchronously and any failure is returned instead of content. Such a page
// is reported as a fallback when the last enumeration knew its path, and as
// unlisted otherwise.
func (g *PageGenerator) Serve(ctx context.Context, path string) (*domain.Page, error) {
	page, err := g.pages.GetPage(ctx, path)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			log.Warn().Err(err).Str("path", path).Msg("Failed to read stored page, generating")
		}

		page, err = g.generate(ctx, path, TriggerFallback)
		if err != nil {
			return nil, err
		}
		if g.IsPrebuilt(path) {
			g.observer.PageServed(ServedFallback)
		} else {
			log.Debug().Str("path", path).Msg("Generated page missing from last enumeration")
			g.observer.PageServed(ServedUnlisted)
		}
		return page, nil
	}

	if page.IsStale(g.now(), RevalidateAfter) {
		g.regenerateAsync(path, TriggerRevalidate)
		g.observer.PageServed(ServedStale)
		return page, nil
	}

	g.observer.PageServed(ServedFresh)
	return page, nil
}

// Revalidate regenerates the given paths in the background, or every stored
// path when none are given. It returns immediately.
func (g *PageGenerator) Revalidate(ctx context.Context, paths ...string) error {
	if len(paths) == 0 {
		stored, err := g.pages.ListPaths(ctx)
		if err != nil {
			return fmt.Errorf("failed to list stored pages: %w", err)
		}
		paths = stored
	}

	for _, path := range paths {
		g.regenerateAsync(path, TriggerWebhook)
	}

	return nil
}

// regenerateAsync runs on the generator's lifecycle context, not the
// request's. On failure the stored page stays in place, unless the document
// no longer exists upstream.
func (g *PageGenerator) regenerateAsync(path string, trigger string) {
	g.wg.Go(func() {
		if _, err := g.generate(g.ctx, path, trigger); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				if delErr := g.pages.DeletePage(g.ctx, path); delErr != nil {
					log.Error().Err(delErr).Str("path", path).Msg("Failed to delete page of removed post")
				}
				return
			}
			log.Error().Err(err).Str("path", path).Str("trigger", trigger).Msg("Failed to regenerate page, keeping previous version")
		}
	})
}

func (g *PageGenerator) generate(ctx context.Context, path string, trigger string) (*domain.Page, error) {
	start := g.now()

	page, err := g.buildPage(ctx, path)
	if err != nil {
		g.observer.PageFailed(trigger, err)
		return nil, err
	}
	page.GeneratedAt = g.now().UTC()

	if err := g.pages.SavePage(ctx, page); err != nil {
		// The page is still good to serve; the next request will retry the store.
		log.Error().Err(err).Str("path", path).Msg("Failed to store generated page")
	}

	took := g.now().Sub(start)
	g.observer.PageGenerated(page.Kind, trigger, took)
	log.Debug().Str("path", path).Str("trigger", trigger).Dur("took", took).Msg("Generated page")

	return page, nil
}

func (g *PageGenerator) buildPage(ctx context.Context, path string) (*domain.Page, error) {
	if path == domain.ListPath {
		return g.buildListPage(ctx)
	}

	uid, ok := domain.UIDFromPath(path)
	if !ok {
		return nil, fmt.Errorf("%w: no page at %s", domain.ErrNotFound, path)
	}
	return g.buildPostPage(ctx, uid)
}

func (g *PageGenerator) buildListPage(ctx context.Context) (*domain.Page, error) {
	first, err := g.content.Query(ctx, domain.Query{
		DocumentType: domain.DocumentTypePosts,
		Predicates:   []string{domain.At("document.type", domain.DocumentTypePosts)},
		Fetch:        listFields,
		PageSize:     ListPageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query posts: %w", err)
	}

	list, err := g.ListPageFrom(first)
	if err != nil {
		return nil, err
	}
	list.Page = 1

	return &domain.Page{
		Path: domain.ListPath,
		Kind: domain.PageKindList,
		List: list,
	}, nil
}

// ListPageFrom formats a fetched page of posts into list entries.
func (g *PageGenerator) ListPageFrom(fetched *domain.PostPage) (*domain.ListPage, error) {
	results := make([]domain.PostSummary, 0, len(fetched.Results))
	for _, post := range fetched.Results {
		summary, err := g.dates.Summarize(post)
		if err != nil {
			return nil, err
		}
		results = append(results, summary)
	}

	list := &domain.ListPage{
		Results: results,
		Page:    fetched.Page,
	}
	if fetched.HasNext() {
		next := *fetched.NextPage
		list.NextPage = &next
	}

	return list, nil
}

func (g *PageGenerator) buildPostPage(ctx context.Context, uid string) (*domain.Page, error) {
	post, err := g.content.GetByUID(ctx, domain.DocumentTypePosts, uid)
	if err != nil {
		return nil, fmt.Errorf("failed to get post %q: %w", uid, err)
	}

	view, err := g.renderer.RenderPost(post)
	if err != nil {
		return nil, err
	}

	return &domain.Page{
		Path: domain.PostPath(uid),
		Kind: domain.PageKindPost,
		Post: view,
	}, nil
}
