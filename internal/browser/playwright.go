package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
)

// elementTimeout bounds reads on elements that are already attached.
const elementTimeout = 2 * time.Second

type PlaywrightManager struct {
	pw         *playwright.Playwright
	browser    playwright.Browser
	context    playwright.BrowserContext
	page       playwright.Page
	navTimeout time.Duration
	guard      closeGuard
}

// NewPlaywright starts the playwright driver, launches Chromium and opens one page.
func NewPlaywright(ctx context.Context, opts Options) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSessionStart, err)
	}

	pw, err := playwright.Run(&playwright.RunOptions{
		DriverDirectory: opts.DriverPath,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: start playwright driver: %w", ErrSessionStart, err)
	}

	launch := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
		Args:     opts.Args(),
	}
	if opts.BrowserPath != "" {
		launch.ExecutablePath = playwright.String(opts.BrowserPath)
	}
	browser, err := pw.Chromium.Launch(launch)
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("%w: launch chromium: %w", ErrSessionStart, err)
	}

	ctxOpts := playwright.BrowserNewContextOptions{}
	if opts.UserAgent != "" {
		ctxOpts.UserAgent = playwright.String(opts.UserAgent)
	}
	if opts.WindowWidth > 0 && opts.WindowHeight > 0 {
		ctxOpts.Viewport = &playwright.Size{Width: opts.WindowWidth, Height: opts.WindowHeight}
	}
	browserCtx, err := browser.NewContext(ctxOpts)
	if err != nil {
		_ = browser.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("%w: create browser context: %w", ErrSessionStart, err)
	}

	page, err := browserCtx.NewPage()
	if err != nil {
		_ = browserCtx.Close()
		_ = browser.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("%w: create page: %w", ErrSessionStart, err)
	}

	return &PlaywrightManager{
		pw:         pw,
		browser:    browser,
		context:    browserCtx,
		page:       page,
		navTimeout: opts.NavTimeout,
	}, nil
}

func (pm *PlaywrightManager) Navigate(ctx context.Context, url string) error {
	if err := pm.guard.check(ctx); err != nil {
		return err
	}
	gotoOpts := playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	}
	if pm.navTimeout > 0 {
		gotoOpts.Timeout = playwright.Float(float64(pm.navTimeout.Milliseconds()))
	}
	defer pm.abortOnCancel(ctx)()
	if _, err := pm.page.Goto(url, gotoOpts); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %s: %w", ErrNavigate, url, err)
	}
	return nil
}

func (pm *PlaywrightManager) WaitFor(ctx context.Context, selector string, timeout time.Duration) error {
	if err := pm.guard.check(ctx); err != nil {
		return err
	}
	defer pm.abortOnCancel(ctx)()
	_, err := pm.page.WaitForSelector(selector, playwright.PageWaitForSelectorOptions{
		State:   playwright.WaitForSelectorStateAttached,
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
	switch {
	case err == nil:
		return nil
	case ctx.Err() != nil:
		return ctx.Err()
	case errors.Is(err, playwright.ErrTimeout):
		return fmt.Errorf("%w %q after %s", ErrWaitTimeout, selector, timeout)
	default:
		return fmt.Errorf("%w %q: %w", ErrSelectorNotFound, selector, err)
	}
}

// abortOnCancel closes the page when ctx is cancelled so a blocked playwright
// call returns at once. The returned func stops watching ctx.
func (pm *PlaywrightManager) abortOnCancel(ctx context.Context) func() {
	stop := context.AfterFunc(ctx, func() {
		_ = pm.page.Close()
	})
	return func() { stop() }
}

func (pm *PlaywrightManager) QueryAll(ctx context.Context, selector string) ([]Element, error) {
	if err := pm.guard.check(ctx); err != nil {
		return nil, err
	}
	locators, err := pm.page.Locator(selector).All()
	if err != nil {
		return nil, fmt.Errorf("query %q: %w", selector, err)
	}
	elements := make([]Element, len(locators))
	for i, loc := range locators {
		elements[i] = playwrightElement{loc: loc}
	}
	return elements, nil
}

func (pm *PlaywrightManager) URL() string {
	if pm.guard.closed.Load() {
		return ""
	}
	return pm.page.URL()
}

func (pm *PlaywrightManager) Screenshot(ctx context.Context, path string) error {
	if err := pm.guard.check(ctx); err != nil {
		return err
	}
	_, err := pm.page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(true),
	})
	return err
}

// Close tears down page, context, browser and driver. Safe to call more than once.
func (pm *PlaywrightManager) Close() error {
	return pm.guard.close(func() error {
		return errors.Join(
			pm.context.Close(),
			pm.browser.Close(),
			pm.pw.Stop(),
		)
	})
}

type playwrightElement struct {
	loc playwright.Locator
}

func (e playwrightElement) Find(ctx context.Context, selector string) (Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sub := e.loc.Locator(selector)
	count, err := sub.Count()
	if err != nil {
		return nil, fmt.Errorf("query %q: %w", selector, err)
	}
	if count == 0 {
		return nil, fmt.Errorf("%w: %q", ErrElementNotFound, selector)
	}
	return playwrightElement{loc: sub.First()}, nil
}

func (e playwrightElement) Text(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return e.loc.InnerText(playwright.LocatorInnerTextOptions{
		Timeout: playwright.Float(float64(elementTimeout.Milliseconds())),
	})
}

func (e playwrightElement) Attr(ctx context.Context, name string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	//getAttribute gives null for a missing attribute, GetAttribute would flatten it to ""
	v, err := e.loc.Evaluate(`(el, name) => el.getAttribute(name)`, name, playwright.LocatorEvaluateOptions{
		Timeout: playwright.Float(float64(elementTimeout.Milliseconds())),
	})
	if err != nil {
		return "", false, err
	}
	s, ok := v.(string)
	return s, ok, nil
}
