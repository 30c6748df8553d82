package rest

import (
	"context"
	"html/template"
	"net/http"
	"strings"

	"github.com/dfryer1193/spacetraveling/api"
	"github.com/dfryer1193/spacetraveling/blog/application"
	"github.com/dfryer1193/spacetraveling/blog/domain"
	"github.com/gin-gonic/gin"
	"golang.org/x/text/language"
)

// PageServer serves generated pages. *application.PageGenerator implements it.
type PageServer interface {
	Serve(ctx context.Context, path string) (*domain.Page, error)
	ListPageFrom(fetched *domain.PostPage) (*domain.ListPage, error)
}

var _ PageServer = (*application.PageGenerator)(nil)

type PostsHandler struct {
	pages   PageServer
	fetcher application.PageFetcher
	lang    string
}

// NewPostsHandler serves pages whose dates are rendered in locale.
func NewPostsHandler(pages PageServer, fetcher application.PageFetcher, locale language.Tag) *PostsHandler {
	return &PostsHandler{
		pages:   pages,
		fetcher: fetcher,
		lang:    locale.String(),
	}
}

type postTemplateData struct {
	*domain.PostView
	Blocks []renderedBlock
}

type renderedBlock struct {
	Key     string
	Heading string
	HTML    template.HTML
}

// GetIndex renders the landing page
func (h *PostsHandler) GetIndex(c *gin.Context) {
	page, err := h.pages.Serve(c.Request.Context(), domain.ListPath)
	if err != nil {
		renderHTMLError(c, err)
		return
	}

	c.HTML(http.StatusOK, "index.html", page.List)
}

// GetPost renders a post page, generating it on first request
func (h *PostsHandler) GetPost(c *gin.Context) {
	slug := c.Param("slug")

	page, err := h.pages.Serve(c.Request.Context(), domain.PostPath(slug))
	if err != nil {
		renderHTMLError(c, err)
		return
	}

	view := page.Post
	blocks := make([]renderedBlock, 0, len(view.Blocks))
	for _, b := range view.Blocks {
		// The HTML was produced by the rich text renderer, which escapes span text.
		blocks = append(blocks, renderedBlock{Key: b.Key, Heading: b.Heading, HTML: template.HTML(b.HTML)})
	}

	c.HTML(http.StatusOK, "post.html", postTemplateData{PostView: view, Blocks: blocks})
}

// GetPostsPage fetches the page a list cursor points at. The landing page's
// "load more" button calls it with the last next_page it received.
func (h *PostsHandler) GetPostsPage(c *gin.Context) {
	cursor := c.Query("cursor")
	if cursor == "" {
		c.JSON(http.StatusBadRequest, api.Error{Error: "cursor is required", RequestID: requestID(c)})
		return
	}

	fetched, err := h.fetcher.FetchPage(c.Request.Context(), cursor)
	if err != nil {
		renderJSONError(c, err)
		return
	}

	list, err := h.pages.ListPageFrom(fetched)
	if err != nil {
		renderJSONError(c, err)
		return
	}

	c.JSON(http.StatusOK, toAPIPage(list))
}

// GetPage returns a generated page as JSON
func (h *PostsHandler) GetPage(c *gin.Context) {
	path := c.Param("path")
	if path == "" {
		path = domain.ListPath
	}
	if path != domain.ListPath {
		path = strings.TrimSuffix(path, "/")
	}

	page, err := h.pages.Serve(c.Request.Context(), path)
	if err != nil {
		renderJSONError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

func toAPIPage(list *domain.ListPage) api.PostsPage {
	out := api.PostsPage{
		Results:  make([]api.PostSummary, 0, len(list.Results)),
		NextPage: list.NextPage,
		Page:     list.Page,
	}
	for _, s := range list.Results {
		var summary api.PostSummary
		summary.UID = s.UID
		summary.FirstPublicationDate = s.FirstPublicationDate
		summary.Data.Title = s.Title
		summary.Data.Subtitle = s.Subtitle
		summary.Data.Author = s.Author
		out.Results = append(out.Results, summary)
	}
	return out
}
