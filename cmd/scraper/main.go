package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"go-greenhouse-scraper/internal/browser"
	"go-greenhouse-scraper/internal/config"
	"go-greenhouse-scraper/internal/observability"
	"go-greenhouse-scraper/internal/reporter"
	"go-greenhouse-scraper/internal/runner"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCmd(os.Stdout, browser.NewLauncher)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "❌", err)
		stop()
		os.Exit(1)
	}
}

// newTelegramReporter is swapped in tests to keep them off the network.
var newTelegramReporter = reporter.NewTelegramReporter

type launcherFactory func(driver string) (browser.Launcher, error)

type flags struct {
	configPath        string
	url               string
	driver            string
	driverPath        string
	browserPath       string
	timeout           string
	headless          bool
	containerSelector string
	titleSelectors    []string
	locationSelectors []string
	placeholder       string
	keywords          []string
	exclude           []string
	screenshotDir     string
	logLevel          string
	logFile           string
}

func newRootCmd(stdout io.Writer, newLauncher launcherFactory) *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:   "greenhouse-scraper [board-url]",
		Short: "Print the open positions of a Greenhouse job board.",
		Long: "Opens a Greenhouse job board in a browser session, waits for the listings to render " +
			"and prints the title, link and location of every position.",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := buildConfig(cmd, &f, args)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg, stdout, newLauncher)
		},
	}

	fs := cmd.Flags()
	fs.StringVarP(&f.configPath, "config", "c", config.DefaultPath, "config file")
	fs.StringVar(&f.url, "url", "", "job board URL")
	fs.StringVar(&f.driver, "driver", "", "browser driver: playwright, chromedp or static")
	fs.StringVar(&f.driverPath, "driver-path", "", "directory of the browser automation driver")
	fs.StringVar(&f.browserPath, "browser-path", "", "browser executable to launch")
	fs.StringVar(&f.timeout, "timeout", "", "how long to wait for listings to appear, e.g. 15s")
	fs.BoolVar(&f.headless, "headless", true, "run the browser without a window")
	fs.StringVar(&f.containerSelector, "container-selector", "", "CSS selector of one listing")
	fs.StringSliceVar(&f.titleSelectors, "title-selector", nil, "CSS selector of the title link inside a listing (repeatable, first match wins)")
	fs.StringSliceVar(&f.locationSelectors, "location-selector", nil, "CSS selector of the location inside a listing (repeatable)")
	fs.StringVar(&f.placeholder, "placeholder", "", "location printed when a listing has none")
	fs.StringSliceVar(&f.keywords, "keyword", nil, "only print listings mentioning one of these words (repeatable)")
	fs.StringSliceVar(&f.exclude, "exclude", nil, "drop listings mentioning one of these words (repeatable)")
	fs.StringVar(&f.screenshotDir, "screenshot-dir", "", "save a screenshot here when listings never appear")
	fs.StringVar(&f.logLevel, "log-level", "", "debug, info, warn or error")
	fs.StringVar(&f.logFile, "log-file", "", "also write JSON logs to this file")

	return cmd
}

// buildConfig layers explicitly set flags and the positional URL over the loaded config.
func buildConfig(cmd *cobra.Command, f *flags, args []string) (*config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, err
	}

	changed := cmd.Flags().Changed
	setString := func(name, v string, dst *string) {
		if changed(name) {
			*dst = v
		}
	}
	setString("url", f.url, &cfg.TargetURL)
	setString("driver", f.driver, &cfg.Driver)
	setString("driver-path", f.driverPath, &cfg.DriverPath)
	setString("browser-path", f.browserPath, &cfg.BrowserPath)
	setString("container-selector", f.containerSelector, &cfg.ContainerSelector)
	setString("placeholder", f.placeholder, &cfg.LocationPlaceholder)
	setString("screenshot-dir", f.screenshotDir, &cfg.ScreenshotDir)
	setString("log-level", f.logLevel, &cfg.LogLevel)
	setString("log-file", f.logFile, &cfg.LogFile)

	if changed("headless") {
		cfg.Headless = f.headless
	}
	if changed("timeout") {
		d, err := parseTimeout(f.timeout)
		if err != nil {
			return nil, err
		}
		cfg.ReadyTimeout = d
	}
	if changed("title-selector") {
		cfg.TitleSelectors = f.titleSelectors
	}
	if changed("location-selector") {
		cfg.LocationSelectors = f.locationSelectors
	}
	if changed("keyword") {
		cfg.Keywords = f.keywords
	}
	if changed("exclude") {
		cfg.ExcludeKeywords = f.exclude
	}

	if len(args) == 1 {
		if changed("url") && args[0] != f.url {
			return nil, fmt.Errorf("board URL given twice: %q and --url %q", args[0], f.url)
		}
		cfg.TargetURL = args[0]
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func run(ctx context.Context, cfg *config.Config, stdout io.Writer, newLauncher launcherFactory) error {
	logger, err := observability.NewStderrLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()
	defer zap.ReplaceGlobals(logger)()

	logger.Info("🔧 Config loaded",
		zap.String("url", cfg.TargetURL),
		zap.String("driver", cfg.Driver),
		zap.Strings("keywords", cfg.Keywords),
	)

	launcher, err := newLauncher(cfg.Driver)
	if err != nil {
		return err
	}

	reporters := []reporter.Reporter{reporter.NewTextReporter(stdout)}
	if cfg.TelegramEnabled() {
		tg, err := newTelegramReporter(cfg, logger)
		if err != nil {
			logger.Warn("⚠️ Telegram disabled", zap.Error(err))
		} else {
			logger.Info("🤖 Telegram reporter initialized.")
			reporters = append(reporters, tg)
		}
	}

	return runner.New(cfg, launcher, logger, reporters...).Run(ctx)
}
