package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"go-greenhouse-scraper/internal/scraper"
)

func TestMatcher_Match(t *testing.T) {
	tests := []struct {
		name     string
		include  []string
		exclude  []string
		listing  scraper.Listing
		expected bool
	}{
		{
			name:     "No keywords keeps everything",
			listing:  scraper.Listing{Title: "Account Executive", Location: "Paris"},
			expected: true,
		},
		{
			name:     "Include on title",
			include:  []string{"engineer"},
			listing:  scraper.Listing{Title: "Senior Software Engineer", Location: "New York"},
			expected: true,
		},
		{
			name:     "Include on location",
			include:  []string{"remote"},
			listing:  scraper.Listing{Title: "Designer", Location: "Remote - EMEA"},
			expected: true,
		},
		{
			name:     "Include misses",
			include:  []string{"golang", "backend"},
			listing:  scraper.Listing{Title: "Product Manager", Location: "Boston"},
			expected: false,
		},
		{
			name:     "Whole words only",
			include:  []string{"go"},
			listing:  scraper.Listing{Title: "Google Ads Specialist"},
			expected: false,
		},
		{
			name:     "Accent and case insensitive",
			include:  []string{"SAO PAULO"},
			listing:  scraper.Listing{Title: "Sales", Location: "São Paulo, Brazil"},
			expected: true,
		},
		{
			name:     "Exclude wins over include",
			include:  []string{"engineer"},
			exclude:  []string{"senior", "staff"},
			listing:  scraper.Listing{Title: "Staff Engineer"},
			expected: false,
		},
		{
			name:     "Phrase with extra spaces",
			include:  []string{"site  reliability"},
			listing:  scraper.Listing{Title: "Site Reliability Engineer"},
			expected: true,
		},
		{
			name:     "Special characters are literal",
			include:  []string{"c++"},
			listing:  scraper.Listing{Title: "C++ Developer"},
			expected: true,
		},
		{
			name:     "Blank keywords are ignored",
			include:  []string{"", "  "},
			listing:  scraper.Listing{Title: "Anything"},
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMatcher(tt.include, tt.exclude)
			assert.Equal(t, tt.expected, m.Match(tt.listing))
		})
	}
}

func TestMatcher_Apply(t *testing.T) {
	listings := []scraper.Listing{
		{Index: 0, Title: "Backend Engineer", Location: "Remote"},
		{Index: 1, Title: "Recruiter", Location: "Remote"},
		{Index: 2, Title: "Senior Backend Engineer", Location: "Dublin"},
		{Index: 3, Title: "Frontend Engineer", Location: "Location not found"},
	}

	kept, dropped := NewMatcher([]string{"engineer"}, []string{"senior"}).Apply(listings)
	assert.Equal(t, 2, dropped)
	assert.Equal(t, []scraper.Listing{listings[0], listings[3]}, kept)

	m := NewMatcher(nil, nil)
	assert.False(t, m.Enabled())
	kept, dropped = m.Apply(listings)
	assert.Zero(t, dropped)
	assert.Equal(t, listings, kept)
}

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "zurich", normalizeText("Zürich"))
	assert.Equal(t, "ho chi minh", normalizeText("Hồ Chí Minh"))
}
