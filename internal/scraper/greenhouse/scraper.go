package greenhouse

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"go-greenhouse-scraper/internal/browser"
	"go-greenhouse-scraper/internal/config"
	"go-greenhouse-scraper/internal/scraper"
	"go-greenhouse-scraper/utils"
)

type GreenhouseScraper struct {
	cfg         *config.Config
	logger      *zap.Logger
	screenshots *utils.ScreenShotDebugger
}

// NewGreenhouseScraper builds a scraper for one board. screenshots may be nil.
func NewGreenhouseScraper(cfg *config.Config, logger *zap.Logger, screenshots *utils.ScreenShotDebugger) *GreenhouseScraper {
	return &GreenhouseScraper{
		cfg:         cfg,
		logger:      logger,
		screenshots: screenshots,
	}
}

func (s *GreenhouseScraper) Name() string {
	return "Greenhouse"
}

// Scrape loads the board, waits for the listing containers and extracts each one.
// Failures before extraction are returned; failures inside one listing only
// mark that listing as skipped.
func (s *GreenhouseScraper) Scrape(ctx context.Context, session browser.Session) (scraper.Result, error) {
	result := scraper.Result{
		Source:   s.Name(),
		URL:      s.cfg.TargetURL,
		Selector: s.cfg.ContainerSelector,
	}

	s.logger.Info("🌐 Navigating", zap.String("url", s.cfg.TargetURL))
	if err := session.Navigate(ctx, s.cfg.TargetURL); err != nil {
		return result, err
	}

	s.logger.Info("⏳ Waiting for job listings",
		zap.String("selector", s.cfg.ContainerSelector),
		zap.Duration("timeout", s.cfg.ReadyTimeout),
	)
	if err := session.WaitFor(ctx, s.cfg.ContainerSelector, s.cfg.ReadyTimeout); err != nil {
		s.captureFailure(ctx, session, err)
		return result, err
	}
	s.logger.Info("✅ Job listings loaded")

	containers, err := session.QueryAll(ctx, s.cfg.ContainerSelector)
	if err != nil {
		return result, fmt.Errorf("query job listings: %w", err)
	}
	result.Containers = len(containers)
	if pageURL := session.URL(); pageURL != "" {
		result.URL = pageURL
	}
	if len(containers) == 0 {
		s.logger.Warn("⚠️ No job listings matched", zap.String("selector", s.cfg.ContainerSelector))
		return result, nil
	}
	s.logger.Info("📦 Found job listings", zap.Int("count", len(containers)))

	base, err := url.Parse(result.URL)
	if err != nil {
		base = nil
	}

	for i, container := range containers {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		outcome := s.extract(ctx, i, container, base)
		if outcome.Skipped() {
			s.logger.Warn("⚠️ Skipping listing", zap.Int("index", i), zap.Error(outcome.Err))
		} else {
			s.logger.Debug("✅ Listing extracted",
				zap.Int("index", i),
				zap.String("title", outcome.Listing.Title),
			)
		}
		result.Outcomes = append(result.Outcomes, outcome)
	}
	return result, nil
}

func (s *GreenhouseScraper) extract(ctx context.Context, index int, container browser.Element, base *url.URL) (out scraper.Outcome) {
	out.Index = index
	defer func() {
		if r := recover(); r != nil {
			out.Err = fmt.Errorf("unexpected failure processing listing: %v", r)
		}
	}()

	titleEl, err := container.Find(ctx, s.cfg.TitleSelector())
	if errors.Is(err, browser.ErrElementNotFound) {
		out.Err = fmt.Errorf("%w: %w", scraper.ErrTitleNotFound, err)
		return out
	}
	if err != nil {
		out.Err = fmt.Errorf("find title: %w", err)
		return out
	}

	title, err := titleEl.Text(ctx)
	if err != nil {
		out.Err = fmt.Errorf("read title: %w", err)
		return out
	}
	href, hasHref, err := titleEl.Attr(ctx, "href")
	if err != nil {
		out.Err = fmt.Errorf("read link: %w", err)
		return out
	}

	//missing location is expected, use the placeholder
	location := s.cfg.LocationPlaceholder
	if selector := s.cfg.LocationSelector(); selector != "" {
		locationEl, err := container.Find(ctx, selector)
		switch {
		case errors.Is(err, browser.ErrElementNotFound):
		case err != nil:
			out.Err = fmt.Errorf("find location: %w", err)
			return out
		default:
			text, err := locationEl.Text(ctx)
			if err != nil {
				out.Err = fmt.Errorf("read location: %w", err)
				return out
			}
			location = scraper.CleanText(text)
		}
	}

	link := ""
	if hasHref {
		link = resolveLink(base, href)
	}

	out.Listing = scraper.Listing{
		Index:    index,
		Title:    scraper.CleanText(title),
		URL:      link,
		Location: location,
	}
	return out
}

func (s *GreenhouseScraper) captureFailure(ctx context.Context, session browser.Session, cause error) {
	if s.screenshots == nil {
		return
	}
	//best effort, the wait error is what gets reported
	if _, err := s.screenshots.CaptureAndLog(ctx, session, "greenhouse-listings-missing",
		"🚨 Greenhouse: listings did not appear ("+cause.Error()+")"); err != nil {
		s.logger.Debug("screenshot failed", zap.Error(err))
	}
}

// resolveLink makes href absolute against the page it was found on.
func resolveLink(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	ref, err := url.Parse(href)
	if err != nil || base == nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
