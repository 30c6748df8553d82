package application

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dfryer1193/spacetraveling/blog/domain"
)

func postWithWords(n int) *domain.Post {
	published := time.Date(2021, time.March, 19, 15, 0, 0, 0, time.UTC)
	post := &domain.Post{UID: "words", FirstPublicationDate: &published}
	if n == 0 {
		return post
	}

	post.Data.Content = []domain.ContentBlock{{
		Body: []domain.RichTextSpan{{Type: domain.SpanParagraph, Text: strings.TrimSpace(strings.Repeat("word ", n))}},
	}}
	return post
}

func newTestRenderer(t *testing.T) *PostRenderer {
	t.Helper()

	richText, err := NewRichTextRenderer("")
	if err != nil {
		t.Fatalf("NewRichTextRenderer() error = %v", err)
	}
	return NewPostRenderer(NewDateFormatter("en"), richText)
}

func TestEstimateReadingTime(t *testing.T) {
	tests := []struct {
		name     string
		words    int
		expected int
	}{
		{name: "Empty post", words: 0, expected: 0},
		{name: "One word", words: 1, expected: 1},
		{name: "Exactly one minute", words: 200, expected: 1},
		{name: "Just over one minute", words: 201, expected: 2},
		{name: "Exactly two minutes", words: 400, expected: 2},
		{name: "Just over two minutes", words: 401, expected: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EstimateReadingTime(postWithWords(tt.words)); got != tt.expected {
				t.Errorf("EstimateReadingTime(%d words) = %d, want %d", tt.words, got, tt.expected)
			}
		})
	}
}

func TestCountWords(t *testing.T) {
	post := &domain.Post{
		Data: domain.PostData{
			Content: []domain.ContentBlock{
				{
					Heading: "Getting  started",
					Body: []domain.RichTextSpan{
						{Text: "one two\tthree"},
						{Text: "  four\nfive  "},
					},
				},
				{
					Heading: "",
					Body:    []domain.RichTextSpan{{Text: ""}, {Text: "six"}},
				},
			},
		},
	}

	if got := CountWords(post); got != 8 {
		t.Errorf("CountWords() = %d, want 8", got)
	}
}

func TestPostRenderer_FormatDate(t *testing.T) {
	r := newTestRenderer(t)

	published := time.Date(2021, time.March, 19, 23, 30, 0, 0, time.FixedZone("BRT", -3*60*60))
	post := &domain.Post{UID: "a", FirstPublicationDate: &published}

	// Rendered in UTC, so the late evening in BRT is the next day
	first, err := r.FormatDate(post)
	if err != nil {
		t.Fatalf("FormatDate() error = %v", err)
	}
	if first != "20 Mar 2021" {
		t.Errorf("FormatDate() = %q, want %q", first, "20 Mar 2021")
	}

	for i := 0; i < 3; i++ {
		again, err := r.FormatDate(post)
		if err != nil {
			t.Fatalf("FormatDate() error = %v", err)
		}
		if again != first {
			t.Errorf("FormatDate() call %d = %q, want %q", i, again, first)
		}
	}
}

func TestPostRenderer_FormatDate_MissingDate(t *testing.T) {
	r := newTestRenderer(t)

	_, err := r.FormatDate(&domain.Post{UID: "draft"})
	if !errors.Is(err, domain.ErrMalformedDocument) {
		t.Errorf("FormatDate() error = %v, want %v", err, domain.ErrMalformedDocument)
	}
}

func TestPostRenderer_RenderPost(t *testing.T) {
	r := newTestRenderer(t)

	published := time.Date(2021, time.March, 19, 12, 0, 0, 0, time.UTC)
	post := &domain.Post{
		UID:                  "como-utilizar-hooks",
		FirstPublicationDate: &published,
		Data: domain.PostData{
			Title:    "Como utilizar Hooks",
			Subtitle: "Pensando em sincronização",
			Author:   "Joseph Oliveira",
			Banner:   domain.Image{URL: "https://images.example.com/banner.png"},
			Content: []domain.ContentBlock{
				{Heading: "Intro", Body: []domain.RichTextSpan{{Type: domain.SpanParagraph, Text: "Hello"}}},
				{Heading: "Details", Body: []domain.RichTextSpan{{Type: domain.SpanParagraph, Text: "More text here"}}},
			},
		},
	}

	view, err := r.RenderPost(post)
	if err != nil {
		t.Fatalf("RenderPost() error = %v", err)
	}

	if view.PublishedOn != "19 Mar 2021" {
		t.Errorf("PublishedOn = %q, want %q", view.PublishedOn, "19 Mar 2021")
	}
	if view.ReadingTime != 1 {
		t.Errorf("ReadingTime = %d, want 1", view.ReadingTime)
	}
	if view.ReadingLabel != "1 min" {
		t.Errorf("ReadingLabel = %q, want %q", view.ReadingLabel, "1 min")
	}
	if view.BannerURL != post.Data.Banner.URL {
		t.Errorf("BannerURL = %q, want %q", view.BannerURL, post.Data.Banner.URL)
	}
	if len(view.Blocks) != 2 {
		t.Fatalf("len(Blocks) = %d, want 2", len(view.Blocks))
	}
	if view.Blocks[0].Key != "Intro" || view.Blocks[0].HTML != "<p>Hello</p>\n" {
		t.Errorf("Blocks[0] = %+v", view.Blocks[0])
	}
	if view.Blocks[1].Key != "Details" {
		t.Errorf("Blocks[1].Key = %q, want %q", view.Blocks[1].Key, "Details")
	}
}

func TestPostRenderer_RenderPost_EmptyContent(t *testing.T) {
	r := newTestRenderer(t)

	view, err := r.RenderPost(postWithWords(0))
	if err != nil {
		t.Fatalf("RenderPost() error = %v", err)
	}
	if view.ReadingLabel != "0 min" {
		t.Errorf("ReadingLabel = %q, want %q", view.ReadingLabel, "0 min")
	}
}

func TestPostRenderer_RenderPost_DuplicateHeading(t *testing.T) {
	r := newTestRenderer(t)

	post := postWithWords(0)
	post.Data.Content = []domain.ContentBlock{
		{Heading: "Intro", Body: []domain.RichTextSpan{{Text: "first"}}},
		{Heading: "Intro", Body: []domain.RichTextSpan{{Text: "second"}}},
	}

	view, err := r.RenderPost(post)
	if !errors.Is(err, domain.ErrDuplicateHeading) {
		t.Fatalf("RenderPost() error = %v, want %v", err, domain.ErrDuplicateHeading)
	}
	if !errors.Is(err, domain.ErrMalformedDocument) {
		t.Errorf("RenderPost() error = %v, want it to be a %v", err, domain.ErrMalformedDocument)
	}
	if view != nil {
		t.Errorf("RenderPost() view = %+v, want nil", view)
	}
}
