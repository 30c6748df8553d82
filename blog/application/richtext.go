package application

import (
	"bytes"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/dfryer1193/spacetraveling/blog/domain"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
)

// RichTextRenderer converts a block's rich text spans into safe HTML.
type RichTextRenderer interface {
	Render(spans []domain.RichTextSpan) (string, error)
}

// GoldmarkRichText builds a goldmark AST from rich text spans and renders it
// with goldmark's HTML renderer. Span text is never interpreted as markdown.
type GoldmarkRichText struct {
	renderer renderer.Renderer
	siteURL  *url.URL
}

// NewRichTextRenderer returns a RichTextRenderer. Relative hyperlinks are
// resolved against siteURL when it is non-empty.
func NewRichTextRenderer(siteURL string) (*GoldmarkRichText, error) {
	md := goldmark.New(
		goldmark.WithRendererOptions(
			html.WithXHTML(),
		),
	)

	r := &GoldmarkRichText{renderer: md.Renderer()}
	if siteURL != "" {
		u, err := url.Parse(strings.TrimSuffix(siteURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("invalid site URL %q: %w", siteURL, err)
		}
		r.siteURL = u
	}

	return r, nil
}

func (r *GoldmarkRichText) Render(spans []domain.RichTextSpan) (string, error) {
	var source bytes.Buffer
	doc := ast.NewDocument()

	var list *ast.List
	for _, span := range spans {
		switch span.Type {
		case domain.SpanListItem, domain.SpanOListItem:
			marker := byte('-')
			if span.Type == domain.SpanOListItem {
				marker = '.'
			}
			if list == nil || list.Marker != marker {
				list = ast.NewList(marker)
				list.IsTight = true
				list.Start = 1
				doc.AppendChild(doc, list)
			}
			item := ast.NewListItem(0)
			tb := ast.NewTextBlock()
			r.appendInlines(tb, &source, span)
			item.AppendChild(item, tb)
			list.AppendChild(list, item)
			continue
		}

		list = nil
		switch {
		case span.Type == domain.SpanPreformatted:
			doc.AppendChild(doc, codeBlock(&source, span.Text))
		case isHeading(span.Type):
			h := ast.NewHeading(headingLevel(span.Type))
			r.appendInlines(h, &source, span)
			doc.AppendChild(doc, h)
		default:
			p := ast.NewParagraph()
			r.appendInlines(p, &source, span)
			doc.AppendChild(doc, p)
		}
	}

	var buf bytes.Buffer
	if err := r.renderer.Render(&buf, source.Bytes(), doc); err != nil {
		return "", fmt.Errorf("failed to render rich text: %w", err)
	}

	return buf.String(), nil
}

func isHeading(spanType string) bool {
	return len(spanType) == len(domain.SpanHeading1) &&
		spanType >= domain.SpanHeading1 && spanType <= domain.SpanHeading6
}

func headingLevel(spanType string) int {
	return int(spanType[len(spanType)-1] - '0')
}

func codeBlock(source *bytes.Buffer, body string) *ast.CodeBlock {
	cb := ast.NewCodeBlock()
	for _, line := range strings.SplitAfter(body, "\n") {
		if line == "" {
			continue
		}
		if !strings.HasSuffix(line, "\n") {
			line += "\n"
		}
		start := source.Len()
		source.WriteString(line)
		cb.Lines().Append(text.NewSegment(start, source.Len()))
	}
	return cb
}

// run is a stretch of span text, in UTF-16 code units, sharing one set of
// inline formats.
type run struct {
	start, end int
	formats    []domain.InlineFormat
}

// appendInlines writes the span's text to source and appends one node per
// formatted run to parent. Overlapping formats are split at every boundary.
func (r *GoldmarkRichText) appendInlines(parent ast.Node, source *bytes.Buffer, span domain.RichTextSpan) {
	base := source.Len()
	source.WriteString(span.Text)

	offsets := unitOffsets(span.Text)

	for _, rn := range splitRuns(len(offsets)-1, span.Formats) {
		t := ast.NewTextSegment(text.NewSegment(base+offsets[rn.start], base+offsets[rn.end]))
		t.SetRaw(true)
		parent.AppendChild(parent, r.wrap(t, rn.formats))
	}
}

// wrap nests node inside em, strong, then link, innermost first.
func (r *GoldmarkRichText) wrap(node ast.Node, formats []domain.InlineFormat) ast.Node {
	var em, strong bool
	var link string
	for _, f := range formats {
		switch f.Type {
		case domain.FormatEm:
			em = true
		case domain.FormatStrong:
			strong = true
		case domain.FormatHyperlink:
			link = f.URL
		}
	}

	if em {
		e := ast.NewEmphasis(1)
		e.AppendChild(e, node)
		node = e
	}
	if strong {
		s := ast.NewEmphasis(2)
		s.AppendChild(s, node)
		node = s
	}
	if link != "" {
		l := ast.NewLink()
		l.Destination = []byte(r.resolve(link))
		l.AppendChild(l, node)
		node = l
	}

	return node
}

func (r *GoldmarkRichText) resolve(dest string) string {
	if r.siteURL == nil || !isRelativeLink(dest) {
		return dest
	}

	ref, err := url.Parse(strings.TrimPrefix(dest, "/"))
	if err != nil {
		return dest
	}
	return r.siteURL.ResolveReference(ref).String()
}

func isRelativeLink(dest string) bool {
	if strings.HasPrefix(dest, "#") {
		return false
	}

	// Absolute path check
	if strings.HasPrefix(dest, "/") {
		return !strings.HasPrefix(dest, "//")
	}

	if strings.HasPrefix(dest, "./") || strings.HasPrefix(dest, "../") {
		return true
	}

	return !strings.Contains(dest, ":")
}

// splitRuns cuts [0, length) at every format boundary and merges adjacent
// stretches carrying the same formats.
func splitRuns(length int, formats []domain.InlineFormat) []run {
	if length == 0 {
		return nil
	}

	cuts := map[int]struct{}{0: {}, length: {}}
	valid := make([]domain.InlineFormat, 0, len(formats))
	for _, f := range formats {
		start, end := clamp(f.Start, length), clamp(f.End, length)
		if start >= end {
			continue
		}
		f.Start, f.End = start, end
		valid = append(valid, f)
		cuts[start] = struct{}{}
		cuts[end] = struct{}{}
	}

	points := make([]int, 0, len(cuts))
	for c := range cuts {
		points = append(points, c)
	}
	sort.Ints(points)

	var runs []run
	for i := 0; i < len(points)-1; i++ {
		a, b := points[i], points[i+1]
		var active []domain.InlineFormat
		for _, f := range valid {
			if f.Start <= a && f.End >= b {
				active = append(active, f)
			}
		}

		if n := len(runs); n > 0 && sameFormats(runs[n-1].formats, active) {
			runs[n-1].end = b
			continue
		}
		runs = append(runs, run{start: a, end: b, formats: active})
	}

	return runs
}

func sameFormats(a, b []domain.InlineFormat) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Type != b[i].Type || a[i].URL != b[i].URL {
			return false
		}
	}
	return true
}

func clamp(v, length int) int {
	return max(0, min(v, length))
}

// unitOffsets maps each UTF-16 code unit index of s to its byte offset, plus
// one trailing entry for len(s). Format ranges count UTF-16 units, so a rune
// outside the BMP spans two indices; the second resolves to the rune's end.
func unitOffsets(s string) []int {
	offsets := make([]int, 0, len(s)+1)
	for i, r := range s {
		offsets = append(offsets, i)
		if utf16.RuneLen(r) == 2 {
			offsets = append(offsets, i+utf8.RuneLen(r))
		}
	}
	return append(offsets, len(s))
}
