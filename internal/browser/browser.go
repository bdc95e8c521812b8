// Package browser wraps the automation drivers behind one small session API:
// navigate, wait for a selector, query elements, close.
package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

var (
	ErrSessionStart     = errors.New("browser session could not be started")
	ErrSessionClosed    = errors.New("browser session already closed")
	ErrNavigate         = errors.New("navigation failed")
	ErrWaitTimeout      = errors.New("timed out waiting for selector")
	ErrSelectorNotFound = errors.New("selector could not be resolved")
	ErrElementNotFound  = errors.New("element not found")
)

// Element is one node of the rendered page.
type Element interface {
	// Find returns the first descendant matching selector, or ErrElementNotFound.
	Find(ctx context.Context, selector string) (Element, error)
	Text(ctx context.Context) (string, error)
	// Attr reports the attribute value and whether it is present.
	Attr(ctx context.Context, name string) (string, bool, error)
}

// Session is a single browser instance with one open page.
type Session interface {
	Navigate(ctx context.Context, url string) error
	// WaitFor blocks until selector matches at least one element or timeout elapses.
	WaitFor(ctx context.Context, selector string, timeout time.Duration) error
	QueryAll(ctx context.Context, selector string) ([]Element, error)
	// URL is the address of the currently loaded document.
	URL() string
	Close() error
}

// Screenshotter is implemented by sessions that can render the page to PNG.
type Screenshotter interface {
	Screenshot(ctx context.Context, path string) error
}

// Launcher starts sessions.
type Launcher interface {
	Launch(ctx context.Context, opts Options) (Session, error)
}

// LauncherFunc adapts a plain function to Launcher.
type LauncherFunc func(ctx context.Context, opts Options) (Session, error)

func (f LauncherFunc) Launch(ctx context.Context, opts Options) (Session, error) {
	return f(ctx, opts)
}

type Options struct {
	Headless     bool
	DisableGPU   bool
	NoSandbox    bool
	WindowWidth  int
	WindowHeight int
	UserAgent    string
	// DriverPath is the directory of the automation driver (playwright only).
	DriverPath string
	// BrowserPath overrides the browser executable.
	BrowserPath  string
	NavTimeout   time.Duration
	PollInterval time.Duration
}

// Args renders the Chromium command line switches shared by the drivers.
func (o Options) Args() []string {
	var args []string
	if o.DisableGPU {
		args = append(args, "--disable-gpu")
	}
	if o.NoSandbox {
		args = append(args, "--no-sandbox")
	}
	if o.WindowWidth > 0 && o.WindowHeight > 0 {
		args = append(args, fmt.Sprintf("--window-size=%d,%d", o.WindowWidth, o.WindowHeight))
	}
	return args
}

// NewLauncher returns the launcher for a driver name.
func NewLauncher(driver string) (Launcher, error) {
	switch driver {
	case "playwright", "":
		return LauncherFunc(NewPlaywright), nil
	case "chromedp":
		return LauncherFunc(NewChromedp), nil
	case "static":
		return LauncherFunc(NewStatic), nil
	}
	return nil, fmt.Errorf("unknown driver %q", driver)
}

// closeGuard makes Close idempotent and fails later calls with ErrSessionClosed.
type closeGuard struct {
	once   sync.Once
	closed atomic.Bool
	err    error
}

func (g *closeGuard) close(fn func() error) error {
	g.once.Do(func() {
		g.closed.Store(true)
		g.err = fn()
	})
	return g.err
}

func (g *closeGuard) check(ctx context.Context) error {
	if g.closed.Load() {
		return ErrSessionClosed
	}
	return ctx.Err()
}
