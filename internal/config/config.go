// Load envs from .env
// Load YAML config
// Apply env overrides
// Validate config

package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const DefaultPath = "configs/config.yaml"

// Driver names accepted by Config.Driver.
const (
	DriverPlaywright = "playwright"
	DriverChromedp   = "chromedp"
	DriverStatic     = "static"
)

type Config struct {
	TargetURL string `yaml:"target_url" env:"SCRAPER_TARGET_URL"`

	//Browser session
	Driver       string        `yaml:"driver" env:"SCRAPER_DRIVER"`
	DriverPath   string        `yaml:"driver_path" env:"SCRAPER_DRIVER_PATH"`
	BrowserPath  string        `yaml:"browser_path" env:"SCRAPER_BROWSER_PATH"`
	Headless     bool          `yaml:"headless" env:"SCRAPER_HEADLESS"`
	WindowWidth  int           `yaml:"window_width"`
	WindowHeight int           `yaml:"window_height"`
	UserAgent    string        `yaml:"user_agent" env:"SCRAPER_USER_AGENT"`
	NavTimeout   time.Duration `yaml:"nav_timeout"`
	ReadyTimeout time.Duration `yaml:"ready_timeout" env:"SCRAPER_READY_TIMEOUT"`
	PollInterval time.Duration `yaml:"poll_interval"`

	//Selectors
	ContainerSelector   string   `yaml:"container_selector"`
	TitleSelectors      []string `yaml:"title_selectors"`
	LocationSelectors   []string `yaml:"location_selectors"`
	LocationPlaceholder string   `yaml:"location_placeholder"`

	//Filtering
	Keywords        []string `yaml:"keywords"`
	ExcludeKeywords []string `yaml:"exclude_keywords"`

	//Debugging
	ScreenshotDir string `yaml:"screenshot_dir" env:"SCRAPER_SCREENSHOT_DIR"`
	LogLevel      string `yaml:"log_level" env:"SCRAPER_LOG_LEVEL"`
	LogFile       string `yaml:"log_file" env:"SCRAPER_LOG_FILE"`

	//Telegram (optional)
	TelegramToken  string `yaml:"telegram_token" env:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID int64  `yaml:"telegram_chat_id" env:"TELEGRAM_CHAT_ID"`
}

// Default returns the settings the scraper runs with when nothing overrides them.
func Default() *Config {
	return &Config{
		TargetURL:    "https://boards.greenhouse.io/datadog",
		Driver:       DriverPlaywright,
		Headless:     true,
		WindowWidth:  1920,
		WindowHeight: 1080,
		UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
			"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		NavTimeout:   30 * time.Second,
		ReadyTimeout: 15 * time.Second,
		PollInterval: 500 * time.Millisecond,

		ContainerSelector:   "div.opening",
		TitleSelectors:      []string{"a.job-link", "h4.job-title"},
		LocationSelectors:   []string{"span.location", "div.location"},
		LocationPlaceholder: "Location not found",

		LogLevel: "info",
	}
}

// Load builds a Config from defaults, the YAML file at path, .env and the
// process environment, in that order. A missing YAML file is not an error.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	if path == "" {
		path = DefaultPath
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
		//running on defaults
	default:
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

//Override with env vars
func (c *Config) applyEnv() error {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setString("SCRAPER_TARGET_URL", &c.TargetURL)
	setString("SCRAPER_DRIVER", &c.Driver)
	setString("SCRAPER_DRIVER_PATH", &c.DriverPath)
	setString("SCRAPER_BROWSER_PATH", &c.BrowserPath)
	setString("SCRAPER_USER_AGENT", &c.UserAgent)
	setString("SCRAPER_SCREENSHOT_DIR", &c.ScreenshotDir)
	setString("SCRAPER_LOG_LEVEL", &c.LogLevel)
	setString("SCRAPER_LOG_FILE", &c.LogFile)
	setString("TELEGRAM_BOT_TOKEN", &c.TelegramToken)

	if v := os.Getenv("SCRAPER_HEADLESS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid SCRAPER_HEADLESS: %w", err)
		}
		c.Headless = b
	}

	if v := os.Getenv("SCRAPER_READY_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid SCRAPER_READY_TIMEOUT: %w", err)
		}
		c.ReadyTimeout = d
	}

	if chatID := os.Getenv("TELEGRAM_CHAT_ID"); chatID != "" {
		id, err := strconv.ParseInt(chatID, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid TELEGRAM_CHAT_ID: %w", err)
		}
		c.TelegramChatID = id
	}
	return nil
}

// Validate reports the first setting that would make a run impossible.
func (c *Config) Validate() error {
	u, err := url.Parse(c.TargetURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("target_url must be an absolute http(s) URL, got %q", c.TargetURL)
	}

	switch c.Driver {
	case DriverPlaywright, DriverChromedp, DriverStatic:
	default:
		return fmt.Errorf("unknown driver %q (want %s, %s or %s)",
			c.Driver, DriverPlaywright, DriverChromedp, DriverStatic)
	}

	if strings.TrimSpace(c.ContainerSelector) == "" {
		return errors.New("container_selector is required")
	}
	if len(nonEmpty(c.TitleSelectors)) == 0 {
		return errors.New("at least one title selector is required")
	}
	if c.ReadyTimeout <= 0 {
		return fmt.Errorf("ready_timeout must be positive, got %s", c.ReadyTimeout)
	}
	if c.WindowWidth <= 0 || c.WindowHeight <= 0 {
		return fmt.Errorf("invalid window size %dx%d", c.WindowWidth, c.WindowHeight)
	}

	//telegram is all or nothing
	if (c.TelegramToken == "") != (c.TelegramChatID == 0) {
		return errors.New("telegram_token and telegram_chat_id must be set together")
	}
	return nil
}

// TelegramEnabled reports whether listings should also be sent to Telegram.
func (c *Config) TelegramEnabled() bool {
	return c.TelegramToken != "" && c.TelegramChatID != 0
}

// TitleSelector joins the title alternatives into one CSS selector group.
func (c *Config) TitleSelector() string {
	return strings.Join(nonEmpty(c.TitleSelectors), ", ")
}

// LocationSelector joins the location alternatives into one CSS selector group.
func (c *Config) LocationSelector() string {
	return strings.Join(nonEmpty(c.LocationSelectors), ", ")
}

func nonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
