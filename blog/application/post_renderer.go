package application

import (
	"fmt"
	"strings"

	"github.com/dfryer1193/spacetraveling/blog/domain"
)

// WordsPerMinute is the reading speed used for reading time estimates.
const WordsPerMinute = 200

// PostRenderer turns a fetched post into a displayable PostView.
type PostRenderer struct {
	dates    *DateFormatter
	richText RichTextRenderer
}

func NewPostRenderer(dates *DateFormatter, richText RichTextRenderer) *PostRenderer {
	return &PostRenderer{
		dates:    dates,
		richText: richText,
	}
}

// FormatDate renders the post's first publication date.
func (r *PostRenderer) FormatDate(post *domain.Post) (string, error) {
	return r.dates.FormatPost(post)
}

// EstimateReadingTime returns the whole minutes needed to read the post's
// headings and body text, rounded up. An empty post reads in 0 minutes.
func EstimateReadingTime(post *domain.Post) int {
	words := CountWords(post)
	return (words + WordsPerMinute - 1) / WordsPerMinute
}

// CountWords counts maximal runs of non-whitespace across every block heading and body span.
func CountWords(post *domain.Post) int {
	total := 0
	for _, block := range post.Data.Content {
		total += len(strings.Fields(block.Heading))
		for _, span := range block.Body {
			total += len(strings.Fields(span.Text))
		}
	}
	return total
}

// RenderBody renders one content block, keyed by its heading.
func (r *PostRenderer) RenderBody(block domain.ContentBlock) (domain.RenderedBlock, error) {
	html, err := r.richText.Render(block.Body)
	if err != nil {
		return domain.RenderedBlock{}, fmt.Errorf("failed to render block %q: %w", block.Heading, err)
	}

	return domain.RenderedBlock{
		Key:     block.Heading,
		Heading: block.Heading,
		HTML:    html,
	}, nil
}

// RenderPost renders the whole post. Posts without a publication date or
// with two blocks sharing a heading are rejected as malformed.
func (r *PostRenderer) RenderPost(post *domain.Post) (*domain.PostView, error) {
	date, err := r.FormatDate(post)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(post.Data.Content))
	blocks := make([]domain.RenderedBlock, 0, len(post.Data.Content))
	for _, block := range post.Data.Content {
		if _, dup := seen[block.Heading]; dup {
			return nil, fmt.Errorf("%w: %q in post %q", domain.ErrDuplicateHeading, block.Heading, post.UID)
		}
		seen[block.Heading] = struct{}{}

		rendered, err := r.RenderBody(block)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, rendered)
	}

	minutes := EstimateReadingTime(post)

	return &domain.PostView{
		UID:          post.UID,
		Title:        post.Data.Title,
		Subtitle:     post.Data.Subtitle,
		Author:       post.Data.Author,
		BannerURL:    post.Data.Banner.URL,
		PublishedOn:  date,
		ReadingTime:  minutes,
		ReadingLabel: fmt.Sprintf("%d min", minutes),
		Blocks:       blocks,
	}, nil
}
