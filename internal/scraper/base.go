// Define an interface for all scrapers
// Per-listing outcomes are collected first, reported after traversal

package scraper

import (
	"context"
	"errors"
	"strings"

	"go-greenhouse-scraper/internal/browser"
)

var ErrTitleNotFound = errors.New("could not find the title or link for a listing")

type Listing struct {
	Index    int
	Title    string
	URL      string
	Location string
}

// Outcome is what came out of one listing container. A non-nil Err marks it skipped.
type Outcome struct {
	Index   int
	Listing Listing
	Err     error
}

func (o Outcome) Skipped() bool {
	return o.Err != nil
}

type Result struct {
	Source     string
	URL        string
	Selector   string
	Containers int
	Outcomes   []Outcome
}

// Listings returns the successfully extracted listings in page order.
func (r Result) Listings() []Listing {
	listings := make([]Listing, 0, len(r.Outcomes))
	for _, o := range r.Outcomes {
		if !o.Skipped() {
			listings = append(listings, o.Listing)
		}
	}
	return listings
}

func (r Result) Skipped() []Outcome {
	var skipped []Outcome
	for _, o := range r.Outcomes {
		if o.Skipped() {
			skipped = append(skipped, o)
		}
	}
	return skipped
}

//Scraper defines the interface that all job board scrapers must implement
type Scraper interface {
	//Scrape opens the board in session and extracts every listing
	Scrape(ctx context.Context, session browser.Session) (Result, error)

	//Name is the board name (Greenhouse, ...)
	Name() string
}

// CleanText trims s and collapses inner runs of whitespace, the way a browser
// renders text.
func CleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
