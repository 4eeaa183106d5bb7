package transform

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/language"

	"github.com/inkwell-press/inkwell/core/ir"
	"github.com/inkwell-press/inkwell/core/options"
)

// MergeMetadata consolidates duplicate authors, normalizes the language
// tag, guarantees a uuid identifier and a non-empty title, and
// normalizes the publication date to ISO-8601.
type MergeMetadata struct{}

func (MergeMetadata) Name() string                  { return "merge_metadata" }
func (MergeMetadata) ShouldRun(*options.Options) bool { return true }

func (MergeMetadata) Apply(b *ir.BookIR, o *options.Options, progress ProgressFunc) error {
	b.Metadata.Authors = dedupeAuthors(b.Metadata.Authors)
	progress(0.25)

	b.Metadata.Language = normalizeLanguage(b.Metadata.Language)
	progress(0.5)

	if strings.TrimSpace(b.Metadata.Title) == "" {
		b.Metadata.Title = "Unknown"
	}

	if _, ok := b.Metadata.Identifier("uuid"); !ok {
		b.Metadata.SetIdentifier("uuid", uuid.New().String())
	}
	progress(0.75)

	b.Metadata.Date = normalizeDate(b.Metadata.Date)
	progress(1)
	return nil
}

func dedupeAuthors(authors []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(authors))
	for _, a := range authors {
		key := strings.ToLower(strings.TrimSpace(a))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, a)
	}
	return out
}

func normalizeLanguage(lang string) string {
	if strings.TrimSpace(lang) == "" {
		return "en"
	}
	tag, err := language.Parse(lang)
	if err != nil {
		return "en"
	}
	return tag.String()
}

// dateLayouts are the formats MergeMetadata attempts before giving up
// and stamping the current time: ISO-8601 forms from most to least
// precise, then English long/short forms and RFC 1123.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"2006-01",
	"2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"02 Jan 2006",
	time.RFC1123,
}

func normalizeDate(date string) string {
	date = strings.TrimSpace(date)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, date); err == nil {
			return t.UTC().Format(time.RFC3339)
		}
	}
	return time.Now().UTC().Format(time.RFC3339)
}
