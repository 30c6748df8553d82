package prismic

import (
	"fmt"

	"github.com/dfryer1193/spacetraveling/blog/domain"
)

type apiResponse struct {
	Refs []struct {
		ID          string `json:"id"`
		Ref         string `json:"ref"`
		IsMasterRef bool   `json:"isMasterRef"`
	} `json:"refs"`
}

type searchResponse struct {
	Page     int        `json:"page"`
	NextPage *string    `json:"next_page"`
	Results  []document `json:"results"`
}

type document struct {
	ID                   string       `json:"id"`
	UID                  string       `json:"uid"`
	Type                 string       `json:"type"`
	FirstPublicationDate *string      `json:"first_publication_date"`
	Data                 documentData `json:"data"`
}

type documentData struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Author   string `json:"author"`
	Banner   struct {
		URL string `json:"url"`
		Alt string `json:"alt"`
	} `json:"banner"`
	Content []struct {
		Heading string         `json:"heading"`
		Body    []richTextNode `json:"body"`
	} `json:"content"`
}

type richTextNode struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Spans []struct {
		Start int    `json:"start"`
		End   int    `json:"end"`
		Type  string `json:"type"`
		Data  struct {
			URL string `json:"url"`
		} `json:"data"`
	} `json:"spans"`
}

func (r *searchResponse) toDomain(op string) (*domain.PostPage, error) {
	page := &domain.PostPage{
		Page:    r.Page,
		Results: make([]*domain.Post, 0, len(r.Results)),
	}
	if r.NextPage != nil && *r.NextPage != "" {
		next := *r.NextPage
		page.NextPage = &next
	}

	for _, doc := range r.Results {
		post, err := doc.toDomain(op)
		if err != nil {
			return nil, err
		}
		page.Results = append(page.Results, post)
	}

	return page, nil
}

func (d *document) toDomain(op string) (*domain.Post, error) {
	post := &domain.Post{
		UID: d.UID,
		Data: domain.PostData{
			Title:    d.Data.Title,
			Subtitle: d.Data.Subtitle,
			Author:   d.Data.Author,
			Banner: domain.Image{
				URL: d.Data.Banner.URL,
				Alt: d.Data.Banner.Alt,
			},
		},
	}

	if d.FirstPublicationDate != nil {
		t, err := parsePublicationDate(*d.FirstPublicationDate)
		if err != nil {
			return nil, fmt.Errorf("prismic: %s: document %q has unreadable first_publication_date %q: %w",
				op, d.ID, *d.FirstPublicationDate, domain.ErrMalformedDocument)
		}
		post.FirstPublicationDate = &t
	}

	if len(d.Data.Content) > 0 {
		post.Data.Content = make([]domain.ContentBlock, 0, len(d.Data.Content))
	}
	for _, c := range d.Data.Content {
		block := domain.ContentBlock{
			Heading: c.Heading,
			Body:    make([]domain.RichTextSpan, 0, len(c.Body)),
		}
		for _, node := range c.Body {
			block.Body = append(block.Body, node.toDomain())
		}
		post.Data.Content = append(post.Data.Content, block)
	}

	return post, nil
}

func (n richTextNode) toDomain() domain.RichTextSpan {
	span := domain.RichTextSpan{
		Type: n.Type,
		Text: n.Text,
	}
	for _, s := range n.Spans {
		span.Formats = append(span.Formats, domain.InlineFormat{
			Start: s.Start,
			End:   s.End,
			Type:  s.Type,
			URL:   s.Data.URL,
		})
	}
	return span
}
