package reporter

import (
	"context"

	"go-greenhouse-scraper/internal/scraper"
)

// Report is what a run hands to every reporter once traversal is done.
type Report struct {
	Result scraper.Result
	// Listings are the extracted listings left after keyword filtering.
	Listings []scraper.Listing
	Filtered int
}

// Skipped is the number of containers that could not be extracted.
func (r Report) Skipped() int {
	return len(r.Result.Skipped())
}

type Reporter interface {
	Report(ctx context.Context, report Report) error
}

// ErrorReporter is implemented by reporters that also announce fatal run errors.
type ErrorReporter interface {
	ReportError(ctx context.Context, err error) error
}
