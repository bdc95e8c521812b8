// Package browsertest provides in-memory browser sessions for tests.
package browsertest

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"go-greenhouse-scraper/internal/browser"
)

// Element is a scripted DOM node. Children are looked up by the individual
// selectors of a comma separated group, first listed selector wins.
type Element struct {
	Content  string
	TextErr  error
	Attrs    map[string]string
	Children map[string]*Element
	// FindErr fails Find for the given selector group.
	FindErr map[string]error
	// PanicOnFind simulates a driver bug.
	PanicOnFind bool
}

func (e *Element) Find(ctx context.Context, selector string) (browser.Element, error) {
	if e.PanicOnFind {
		panic("browsertest: find exploded")
	}
	if err, ok := e.FindErr[selector]; ok {
		return nil, err
	}
	for _, part := range strings.Split(selector, ",") {
		if child, ok := e.Children[strings.TrimSpace(part)]; ok {
			return child, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", browser.ErrElementNotFound, selector)
}

func (e *Element) Text(ctx context.Context) (string, error) {
	return e.Content, e.TextErr
}

func (e *Element) Attr(ctx context.Context, name string) (string, bool, error) {
	v, ok := e.Attrs[name]
	return v, ok, nil
}

// Session records every call made against it.
type Session struct {
	mu sync.Mutex

	PageURL  string
	Elements map[string][]*Element

	NavigateErr   error
	WaitErr       error
	QueryErr      error
	ScreenshotErr error

	Navigated   []string
	Waited      []string
	Queried     []string
	Screenshots []string
	closeCalls  int
}

func (s *Session) Navigate(ctx context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closeCalls > 0 {
		return browser.ErrSessionClosed
	}
	s.Navigated = append(s.Navigated, url)
	if s.PageURL == "" {
		s.PageURL = url
	}
	return s.NavigateErr
}

func (s *Session) WaitFor(ctx context.Context, selector string, timeout time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closeCalls > 0 {
		return browser.ErrSessionClosed
	}
	s.Waited = append(s.Waited, selector)
	return s.WaitErr
}

func (s *Session) QueryAll(ctx context.Context, selector string) ([]browser.Element, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closeCalls > 0 {
		return nil, browser.ErrSessionClosed
	}
	s.Queried = append(s.Queried, selector)
	if s.QueryErr != nil {
		return nil, s.QueryErr
	}
	elements := make([]browser.Element, 0, len(s.Elements[selector]))
	for _, el := range s.Elements[selector] {
		elements = append(elements, el)
	}
	return elements, nil
}

func (s *Session) URL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.PageURL
}

func (s *Session) Screenshot(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ScreenshotErr != nil {
		return s.ScreenshotErr
	}
	s.Screenshots = append(s.Screenshots, path)
	return os.WriteFile(path, []byte("\x89PNG"), 0644)
}

func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeCalls++
	return nil
}

// CloseCalls reports how many times Close was called.
func (s *Session) CloseCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeCalls
}

// Launcher hands out Session, or fails with Err.
type Launcher struct {
	Session *Session
	Err     error

	Calls int
	Opts  browser.Options
}

func (l *Launcher) Launch(ctx context.Context, opts browser.Options) (browser.Session, error) {
	l.Calls++
	l.Opts = opts
	if l.Err != nil {
		return nil, l.Err
	}
	return l.Session, nil
}

// Listing builds a container with a title link and, when location is not empty,
// a location span.
func Listing(title, href, location string) *Element {
	el := &Element{Children: map[string]*Element{
		"a.job-link": {Content: title, Attrs: map[string]string{"href": href}},
	}}
	if location != "" {
		el.Children["span.location"] = &Element{Content: location}
	}
	return el
}
