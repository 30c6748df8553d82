package application

import (
	"fmt"
	"time"

	"github.com/dfryer1193/spacetraveling/blog/domain"
	"golang.org/x/text/language"
)

var supportedLocales = []language.Tag{
	language.English,
	language.BrazilianPortuguese,
}

var localeMatcher = language.NewMatcher(supportedLocales)

var abbreviatedMonths = map[language.Tag][12]string{
	language.English: {
		"Jan", "Feb", "Mar", "Apr", "May", "Jun",
		"Jul", "Aug", "Sep", "Oct", "Nov", "Dec",
	},
	language.BrazilianPortuguese: {
		"jan", "fev", "mar", "abr", "mai", "jun",
		"jul", "ago", "set", "out", "nov", "dez",
	},
}

// DateFormatter renders publication dates as "dd LLL yyyy" in one fixed locale, in UTC.
type DateFormatter struct {
	locale language.Tag
	months [12]string
}

// NewDateFormatter picks the closest supported locale to the given BCP 47 tag.
// Unknown or empty tags fall back to English.
func NewDateFormatter(locale string) *DateFormatter {
	tag := language.English
	if locale != "" {
		if parsed, err := language.Parse(locale); err == nil {
			_, idx, _ := localeMatcher.Match(parsed)
			tag = supportedLocales[idx]
		}
	}

	return &DateFormatter{
		locale: tag,
		months: abbreviatedMonths[tag],
	}
}

// Locale returns the tag dates are rendered in.
func (f *DateFormatter) Locale() language.Tag {
	return f.locale
}

// Format renders t, e.g. "19 Mar 2021".
func (f *DateFormatter) Format(t time.Time) string {
	t = t.UTC()
	return fmt.Sprintf("%02d %s %04d", t.Day(), f.months[t.Month()-1], t.Year())
}

// FormatPost renders the post's first publication date. A missing date is a
// malformed document: live documents always carry one.
func (f *DateFormatter) FormatPost(post *domain.Post) (string, error) {
	if post.FirstPublicationDate == nil {
		return "", fmt.Errorf("%w: post %q has no first_publication_date", domain.ErrMalformedDocument, post.UID)
	}
	return f.Format(*post.FirstPublicationDate), nil
}

// Summarize converts a post into a list entry.
func (f *DateFormatter) Summarize(post *domain.Post) (domain.PostSummary, error) {
	date, err := f.FormatPost(post)
	if err != nil {
		return domain.PostSummary{}, err
	}

	return domain.PostSummary{
		UID:                  post.UID,
		FirstPublicationDate: date,
		Title:                post.Data.Title,
		Subtitle:             post.Data.Subtitle,
		Author:               post.Data.Author,
	}, nil
}
