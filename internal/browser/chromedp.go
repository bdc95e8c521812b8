package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

type chromedpSession struct {
	tabCtx      context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
	navTimeout  time.Duration
	url         string
	guard       closeGuard
}

// NewChromedp launches Chrome through a chromedp exec allocator and opens one tab.
// The browser lives as long as ctx or until Close.
func NewChromedp(ctx context.Context, opts Options) (Session, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("no-sandbox", opts.NoSandbox),
		chromedp.Flag("disable-gpu", opts.DisableGPU),
	)
	if opts.WindowWidth > 0 && opts.WindowHeight > 0 {
		allocOpts = append(allocOpts, chromedp.WindowSize(opts.WindowWidth, opts.WindowHeight))
	}
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}
	if opts.BrowserPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.BrowserPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	logger := zap.S().Named("chromedp")
	tabCtx, cancelTab := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(logger.Debugf),
		chromedp.WithErrorf(logger.Errorf),
	)

	//first Run starts the browser process
	if err := chromedp.Run(tabCtx); err != nil {
		cancelTab()
		cancelAlloc()
		return nil, fmt.Errorf("%w: start chrome: %w", ErrSessionStart, err)
	}

	return &chromedpSession{
		tabCtx:      tabCtx,
		cancelTab:   cancelTab,
		cancelAlloc: cancelAlloc,
		navTimeout:  opts.NavTimeout,
	}, nil
}

// opContext derives a context from the tab that is also cancelled with ctx.
func (s *chromedpSession) opContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	var (
		opCtx  context.Context
		cancel context.CancelFunc
	)
	if timeout > 0 {
		opCtx, cancel = context.WithTimeout(s.tabCtx, timeout)
	} else {
		opCtx, cancel = context.WithCancel(s.tabCtx)
	}
	stop := context.AfterFunc(ctx, cancel)
	return opCtx, func() {
		stop()
		cancel()
	}
}

func (s *chromedpSession) Navigate(ctx context.Context, url string) error {
	if err := s.guard.check(ctx); err != nil {
		return err
	}
	opCtx, cancel := s.opContext(ctx, s.navTimeout)
	defer cancel()

	var location string
	if err := chromedp.Run(opCtx,
		chromedp.Navigate(url),
		chromedp.Location(&location),
	); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %s: %w", ErrNavigate, url, err)
	}
	s.url = location
	return nil
}

func (s *chromedpSession) WaitFor(ctx context.Context, selector string, timeout time.Duration) error {
	if err := s.guard.check(ctx); err != nil {
		return err
	}
	opCtx, cancel := s.opContext(ctx, timeout)
	defer cancel()

	err := chromedp.Run(opCtx, chromedp.WaitReady(selector, chromedp.ByQuery))
	switch {
	case err == nil:
		return nil
	case ctx.Err() != nil:
		return ctx.Err()
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w %q after %s", ErrWaitTimeout, selector, timeout)
	default:
		return fmt.Errorf("%w %q: %w", ErrSelectorNotFound, selector, err)
	}
}

func (s *chromedpSession) QueryAll(ctx context.Context, selector string) ([]Element, error) {
	if err := s.guard.check(ctx); err != nil {
		return nil, err
	}
	nodes, err := s.nodes(ctx, selector)
	if err != nil {
		return nil, err
	}
	elements := make([]Element, len(nodes))
	for i, n := range nodes {
		elements[i] = chromedpElement{session: s, node: n}
	}
	return elements, nil
}

func (s *chromedpSession) nodes(ctx context.Context, selector string, opts ...chromedp.QueryOption) ([]*cdp.Node, error) {
	opCtx, cancel := s.opContext(ctx, elementTimeout)
	defer cancel()

	var nodes []*cdp.Node
	opts = append([]chromedp.QueryOption{chromedp.ByQueryAll, chromedp.AtLeast(0)}, opts...)
	if err := chromedp.Run(opCtx, chromedp.Nodes(selector, &nodes, opts...)); err != nil {
		return nil, fmt.Errorf("query %q: %w", selector, err)
	}
	return nodes, nil
}

func (s *chromedpSession) URL() string {
	return s.url
}

func (s *chromedpSession) Screenshot(ctx context.Context, path string) error {
	if err := s.guard.check(ctx); err != nil {
		return err
	}
	opCtx, cancel := s.opContext(ctx, 0)
	defer cancel()

	var buf []byte
	if err := chromedp.Run(opCtx, chromedp.FullScreenshot(&buf, 90)); err != nil {
		return err
	}
	return os.WriteFile(path, buf, 0644)
}

func (s *chromedpSession) Close() error {
	return s.guard.close(func() error {
		//Cancel closes the browser gracefully, the allocator cancel reaps the process
		err := chromedp.Cancel(s.tabCtx)
		s.cancelTab()
		s.cancelAlloc()
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
}

type chromedpElement struct {
	session *chromedpSession
	node    *cdp.Node
}

func (e chromedpElement) Find(ctx context.Context, selector string) (Element, error) {
	nodes, err := e.session.nodes(ctx, selector, chromedp.FromNode(e.node))
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrElementNotFound, selector)
	}
	return chromedpElement{session: e.session, node: nodes[0]}, nil
}

func (e chromedpElement) Text(ctx context.Context) (string, error) {
	opCtx, cancel := e.session.opContext(ctx, elementTimeout)
	defer cancel()

	var text string
	if err := chromedp.Run(opCtx,
		chromedp.Text([]cdp.NodeID{e.node.NodeID}, &text, chromedp.ByNodeID),
	); err != nil {
		return "", err
	}
	return text, nil
}

func (e chromedpElement) Attr(ctx context.Context, name string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	v, ok := e.node.Attribute(name)
	return v, ok, nil
}
