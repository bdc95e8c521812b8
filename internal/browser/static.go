package browser

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

const defaultPollInterval = 500 * time.Millisecond

// staticSession fetches pages over plain HTTP and queries the parsed HTML.
// Only boards rendered server-side work with it; no JavaScript runs.
type staticSession struct {
	client       *http.Client
	userAgent    string
	pollInterval time.Duration
	url          string
	doc          *goquery.Document
	guard        closeGuard
}

// NewStatic returns a session backed by net/http and goquery.
func NewStatic(ctx context.Context, opts Options) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSessionStart, err)
	}
	poll := opts.PollInterval
	if poll <= 0 {
		poll = defaultPollInterval
	}
	return &staticSession{
		client:       &http.Client{Timeout: opts.NavTimeout},
		userAgent:    opts.UserAgent,
		pollInterval: poll,
	}, nil
}

func (s *staticSession) Navigate(ctx context.Context, url string) error {
	if err := s.guard.check(ctx); err != nil {
		return err
	}
	if err := s.fetch(ctx, url); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrNavigate, url, err)
	}
	return nil
}

func (s *staticSession) fetch(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status code error: %d %s", resp.StatusCode, resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return err
	}
	s.doc = doc
	s.url = resp.Request.URL.String()
	return nil
}

// WaitFor polls the document, re-fetching it between checks, until selector matches.
func (s *staticSession) WaitFor(ctx context.Context, selector string, timeout time.Duration) error {
	if err := s.guard.check(ctx); err != nil {
		return err
	}
	matcher, err := cascadia.Compile(selector)
	if err != nil {
		return fmt.Errorf("%w %q: %w", ErrSelectorNotFound, selector, err)
	}
	if s.doc == nil {
		return fmt.Errorf("%w: no document loaded", ErrNavigate)
	}

	deadline := time.Now().Add(timeout)
	for {
		if s.doc.FindMatcher(matcher).Length() > 0 {
			return nil
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return fmt.Errorf("%w %q after %s", ErrWaitTimeout, selector, timeout)
		}

		timer := time.NewTimer(min(s.pollInterval, remaining))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		//keep the last good document if a refresh fails
		fetchCtx, cancel := context.WithDeadline(ctx, deadline)
		err := s.fetch(fetchCtx, s.url)
		cancel()
		if err != nil && ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func (s *staticSession) QueryAll(ctx context.Context, selector string) ([]Element, error) {
	if err := s.guard.check(ctx); err != nil {
		return nil, err
	}
	if s.doc == nil {
		return nil, fmt.Errorf("%w: no document loaded", ErrNavigate)
	}
	matcher, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrSelectorNotFound, selector, err)
	}

	var elements []Element
	s.doc.FindMatcher(matcher).Each(func(_ int, sel *goquery.Selection) {
		elements = append(elements, staticElement{sel: sel})
	})
	return elements, nil
}

func (s *staticSession) URL() string {
	return s.url
}

func (s *staticSession) Close() error {
	return s.guard.close(func() error {
		s.client.CloseIdleConnections()
		s.doc = nil
		return nil
	})
}

type staticElement struct {
	sel *goquery.Selection
}

func (e staticElement) Find(ctx context.Context, selector string) (Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	matcher, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrSelectorNotFound, selector, err)
	}
	found := e.sel.FindMatcher(matcher).First()
	if found.Length() == 0 {
		return nil, fmt.Errorf("%w: %q", ErrElementNotFound, selector)
	}
	return staticElement{sel: found}, nil
}

func (e staticElement) Text(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return e.sel.Text(), nil
}

func (e staticElement) Attr(ctx context.Context, name string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	v, ok := e.sel.Attr(name)
	return v, ok, nil
}
