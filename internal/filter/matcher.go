package filter

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"go-greenhouse-scraper/internal/scraper"
)

// Matcher keeps listings whose title or location mentions one of the include
// keywords and none of the exclude keywords. Matching ignores case and accents,
// so "Sao Paulo" matches "São Paulo".
type Matcher struct {
	include *regexp.Regexp
	exclude *regexp.Regexp
}

func NewMatcher(include, exclude []string) *Matcher {
	return &Matcher{
		include: keywordRegex(include),
		exclude: keywordRegex(exclude),
	}
}

// Enabled reports whether any keyword was configured.
func (m *Matcher) Enabled() bool {
	return m.include != nil || m.exclude != nil
}

func (m *Matcher) Match(listing scraper.Listing) bool {
	text := normalizeText(listing.Title + " " + listing.Location)

	//must mention one of the keywords
	if m.include != nil && !m.include.MatchString(text) {
		return false
	}

	//must not mention an excluded one
	if m.exclude != nil && m.exclude.MatchString(text) {
		return false
	}
	return true
}

// Apply returns the listings that match, in order, and how many were dropped.
func (m *Matcher) Apply(listings []scraper.Listing) ([]scraper.Listing, int) {
	if !m.Enabled() {
		return listings, 0
	}
	kept := make([]scraper.Listing, 0, len(listings))
	for _, l := range listings {
		if m.Match(l) {
			kept = append(kept, l)
		}
	}
	return kept, len(listings) - len(kept)
}

func normalizeText(str string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, str)
	return strings.ToLower(result)
}

// keywordRegex builds one alternation of whole-word keywords, nil when there are none.
// Letters and digits count as word characters so "go" does not match "google".
func keywordRegex(keywords []string) *regexp.Regexp {
	var parts []string
	for _, kw := range keywords {
		kw = strings.Join(strings.Fields(normalizeText(kw)), " ")
		if kw == "" {
			continue
		}
		//any whitespace between words of a phrase
		parts = append(parts, strings.ReplaceAll(regexp.QuoteMeta(kw), " ", `\s+`))
	}
	if len(parts) == 0 {
		return nil
	}
	return regexp.MustCompile(`(?:^|[^\pL\pN])(?:` + strings.Join(parts, "|") + `)(?:$|[^\pL\pN])`)
}
