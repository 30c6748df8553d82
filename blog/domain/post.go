package domain

import (
	"time"
)

// DocumentTypePosts is the repository document type every post is stored under.
const DocumentTypePosts = "posts"

// Post represents a blog post as delivered by the content repository.
// Posts are immutable once fetched; FirstPublicationDate is nil only for
// documents that were never published.
type Post struct {
	UID                  string     `json:"uid"`
	FirstPublicationDate *time.Time `json:"first_publication_date"`
	Data                 PostData   `json:"data"`
}

// PostData is the post's document payload. List queries project only
// Title, Subtitle and Author; Banner and Content are populated on a
// single-post lookup.
type PostData struct {
	Title    string         `json:"title"`
	Subtitle string         `json:"subtitle"`
	Author   string         `json:"author"`
	Banner   Image          `json:"banner"`
	Content  []ContentBlock `json:"content"`
}

// ContentBlock is one section of a post body. Heading is used as the block's
// key when rendering and must be unique within a post.
type ContentBlock struct {
	Heading string         `json:"heading"`
	Body    []RichTextSpan `json:"body"`
}

// RichTextSpan is a block-level run of text with optional inline formatting.
type RichTextSpan struct {
	Type    string         `json:"type"`
	Text    string         `json:"text"`
	Formats []InlineFormat `json:"spans,omitempty"`
}

// InlineFormat marks the range [Start, End) of a span's text, counted in
// UTF-16 code units as the repository reports it.
type InlineFormat struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Type  string `json:"type"`
	URL   string `json:"url,omitempty"`
}

// Rich text span types understood by the renderer. Unknown types render as
// paragraphs.
const (
	SpanParagraph    = "paragraph"
	SpanPreformatted = "preformatted"
	SpanListItem     = "list-item"
	SpanOListItem    = "o-list-item"
	SpanHeading1     = "heading1"
	SpanHeading6     = "heading6"
)

// Inline format types.
const (
	FormatStrong    = "strong"
	FormatEm        = "em"
	FormatHyperlink = "hyperlink"
)

// PostPage is one page of a posts query together with its pagination cursor.
// NextPage is nil when there are no further pages.
type PostPage struct {
	Page     int     `json:"page"`
	Results  []*Post `json:"results"`
	NextPage *string `json:"next_page"`
}

// HasNext reports whether a further page can be fetched.
func (p *PostPage) HasNext() bool {
	return p != nil && p.NextPage != nil && *p.NextPage != ""
}
