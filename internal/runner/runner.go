package runner

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"go-greenhouse-scraper/internal/browser"
	"go-greenhouse-scraper/internal/config"
	"go-greenhouse-scraper/internal/filter"
	"go-greenhouse-scraper/internal/reporter"
	"go-greenhouse-scraper/internal/scraper"
	"go-greenhouse-scraper/internal/scraper/greenhouse"
	"go-greenhouse-scraper/utils"
)

// Runner drives one scrape: launch, extract, filter, report, close.
type Runner struct {
	cfg       *config.Config
	launcher  browser.Launcher
	logger    *zap.Logger
	reporters []reporter.Reporter
	matcher   *filter.Matcher
}

func New(cfg *config.Config, launcher browser.Launcher, logger *zap.Logger, reporters ...reporter.Reporter) *Runner {
	return &Runner{
		cfg:       cfg,
		launcher:  launcher,
		logger:    logger,
		reporters: reporters,
		matcher:   filter.NewMatcher(cfg.Keywords, cfg.ExcludeKeywords),
	}
}

// Options maps the config onto the browser launch options.
func Options(cfg *config.Config) browser.Options {
	return browser.Options{
		Headless:     cfg.Headless,
		DisableGPU:   true,
		NoSandbox:    true,
		WindowWidth:  cfg.WindowWidth,
		WindowHeight: cfg.WindowHeight,
		UserAgent:    cfg.UserAgent,
		DriverPath:   cfg.DriverPath,
		BrowserPath:  cfg.BrowserPath,
		NavTimeout:   cfg.NavTimeout,
		PollInterval: cfg.PollInterval,
	}
}

// Run returns only errors that stop the whole run. A listing that cannot be
// extracted is reported as skipped, not returned. The session, once launched,
// is closed exactly once whatever happens.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.Info("🚀 Starting browser", zap.String("driver", r.cfg.Driver))
	session, err := r.launcher.Launch(ctx, Options(r.cfg))
	if err != nil {
		err = fmt.Errorf("launch browser: %w", err)
		r.notifyError(ctx, err)
		return err
	}
	r.logger.Info("✅ Browser started")
	defer func() {
		if err := session.Close(); err != nil {
			r.logger.Warn("⚠️ Failed to close browser cleanly", zap.Error(err))
			return
		}
		r.logger.Info("🔒 Browser closed")
	}()

	s := greenhouse.NewGreenhouseScraper(r.cfg, r.logger, r.screenshotDebugger())
	result, err := s.Scrape(ctx, session)
	if err != nil {
		err = fmt.Errorf("scrape %s: %w", s.Name(), err)
		r.notifyError(ctx, err)
		return err
	}

	return r.report(ctx, result)
}

func (r *Runner) report(ctx context.Context, result scraper.Result) error {
	listings, filtered := r.matcher.Apply(result.Listings())
	if filtered > 0 {
		r.logger.Info("🔍 Keyword filter applied",
			zap.Int("kept", len(listings)),
			zap.Int("filtered", filtered),
		)
	}

	report := reporter.Report{
		Result:   result,
		Listings: listings,
		Filtered: filtered,
	}

	var errs []error
	for _, rep := range r.reporters {
		if err := rep.Report(ctx, report); err != nil {
			r.logger.Error("❌ Report failed", zap.Error(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (r *Runner) screenshotDebugger() *utils.ScreenShotDebugger {
	if r.cfg.ScreenshotDir == "" {
		return nil
	}
	shots, err := utils.NewScreenShotDebugger(r.cfg.ScreenshotDir, r.logger)
	if err != nil {
		r.logger.Warn("⚠️ Screenshots disabled", zap.Error(err))
		return nil
	}
	return shots
}

func (r *Runner) notifyError(ctx context.Context, runErr error) {
	//the run context may already be cancelled
	ctx = context.WithoutCancel(ctx)
	for _, rep := range r.reporters {
		er, ok := rep.(reporter.ErrorReporter)
		if !ok {
			continue
		}
		if err := er.ReportError(ctx, runErr); err != nil {
			r.logger.Warn("⚠️ Failed to report error", zap.Error(err))
		}
	}
}
