package prismic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dfryer1193/spacetraveling/blog/domain"
)

const (
	searchPath = "/documents/search"

	// maxErrorBody bounds how much of a failed response is kept in the error message.
	maxErrorBody = 512
)

// publicationLayouts are the timestamp formats documents carry.
var publicationLayouts = []string{
	"2006-01-02T15:04:05-0700",
	time.RFC3339,
}

// Client is an implementation of domain.ContentRepository that uses the Prismic REST API.
type Client struct {
	httpClient  *http.Client
	endpoint    *url.URL
	accessToken string
}

var _ domain.ContentRepository = (*Client)(nil)

// NewClient creates a new Client for an API endpoint such as
// "https://my-repo.cdn.prismic.io/api/v2". accessToken may be empty for public repositories.
func NewClient(httpClient *http.Client, endpoint string, accessToken string) (*Client, error) {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	u, err := url.Parse(strings.TrimSuffix(endpoint, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid prismic endpoint %q: %w", endpoint, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid prismic endpoint %q: scheme must be http or https", endpoint)
	}

	return &Client{
		httpClient:  httpClient,
		endpoint:    u,
		accessToken: accessToken,
	}, nil
}

// Query runs a search against the master ref and returns its first page.
func (c *Client) Query(ctx context.Context, q domain.Query) (*domain.PostPage, error) {
	op := fmt.Sprintf("querying %s documents", q.DocumentType)
	if q.PageSize < 1 {
		return nil, fmt.Errorf("prismic: %s: page size must be at least 1, got %d", op, q.PageSize)
	}

	resp, err := c.search(ctx, op, q.Predicates, q.Fetch, q.PageSize)
	if err != nil {
		return nil, err
	}
	return resp.toDomain(op)
}

// GetByUID fetches a single document by its uid.
func (c *Client) GetByUID(ctx context.Context, documentType string, uid string) (*domain.Post, error) {
	op := fmt.Sprintf("getting %s %q", documentType, uid)
	predicates := []string{domain.At(fmt.Sprintf("my.%s.uid", documentType), uid)}

	resp, err := c.search(ctx, op, predicates, nil, 1)
	if err != nil {
		return nil, err
	}

	if len(resp.Results) == 0 {
		return nil, fmt.Errorf("prismic: %s: %w", op, domain.ErrNotFound)
	}

	return resp.Results[0].toDomain(op)
}

// FetchPage fetches a next_page locator returned by an earlier search.
func (c *Client) FetchPage(ctx context.Context, cursor string) (*domain.PostPage, error) {
	op := "fetching next page"

	u, err := c.validateCursor(cursor)
	if err != nil {
		return nil, err
	}

	var resp searchResponse
	if err := c.get(ctx, op, u, &resp); err != nil {
		return nil, err
	}
	return resp.toDomain(op)
}

// validateCursor only lets cursors through that point at the configured endpoint's host,
// so a client-supplied cursor can't make the server fetch arbitrary URLs.
func (c *Client) validateCursor(cursor string) (*url.URL, error) {
	u, err := url.Parse(cursor)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidCursor, err)
	}

	if u.Scheme != c.endpoint.Scheme || u.Host != c.endpoint.Host || !strings.HasPrefix(u.Path, c.endpoint.Path+searchPath) {
		return nil, fmt.Errorf("%w: %s is not a search on %s", domain.ErrInvalidCursor, cursor, c.endpoint.Host)
	}

	return c.withToken(u), nil
}

func (c *Client) withToken(u *url.URL) *url.URL {
	if c.accessToken == "" {
		return u
	}

	out := *u
	values := out.Query()
	if values.Get("access_token") == "" {
		values.Set("access_token", c.accessToken)
	}
	out.RawQuery = values.Encode()
	return &out
}

// masterRef fetches the API root and returns the ref of the live content.
func (c *Client) masterRef(ctx context.Context) (string, error) {
	op := "getting master ref"

	var api apiResponse
	if err := c.get(ctx, op, c.withToken(c.endpoint), &api); err != nil {
		return "", err
	}

	for _, ref := range api.Refs {
		if ref.IsMasterRef {
			return ref.Ref, nil
		}
	}

	return "", fmt.Errorf("prismic: %s: no master ref: %w", op, domain.ErrRepositoryUnavailable)
}

func (c *Client) search(ctx context.Context, op string, predicates []string, fetch []string, pageSize int) (*searchResponse, error) {
	ref, err := c.masterRef(ctx)
	if err != nil {
		return nil, err
	}

	u := c.endpoint.JoinPath(searchPath)
	values := url.Values{}
	values.Set("ref", ref)
	if len(predicates) > 0 {
		values.Set("q", "["+strings.Join(predicates, "")+"]")
	}
	if len(fetch) > 0 {
		values.Set("fetch", strings.Join(fetch, ","))
	}
	values.Set("pageSize", strconv.Itoa(pageSize))
	u.RawQuery = values.Encode()

	var resp searchResponse
	if err := c.get(ctx, op, c.withToken(u), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) get(ctx context.Context, op string, u *url.URL, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("prismic: %s: failed to build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return handlePrismicError(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return handlePrismicError(op, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))})
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("prismic: %s: failed to decode response: %w: %w", op, domain.ErrRepositoryUnavailable, err)
	}

	return nil
}

// StatusError is a non-200 response from the API.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// handlePrismicError classifies a failed call: a 404 means the document does
// not exist, anything else means the repository could not serve the request.
func handlePrismicError(op string, err error) error {
	if err == nil {
		return nil
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
		return fmt.Errorf("prismic: %s: %w: %w", op, domain.ErrNotFound, err)
	}

	return fmt.Errorf("prismic: %s failed: %w: %w", op, domain.ErrRepositoryUnavailable, err)
}

func parsePublicationDate(value string) (time.Time, error) {
	var lastErr error
	for _, layout := range publicationLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
