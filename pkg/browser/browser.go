// Package browser wraps Rod into the single Chrome session the smoke
// scenarios share. Every blocking call takes a context; its deadline is the
// explicit wait for that call.
package browser

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/thesyncim/edusmoke/pkg/errs"
)

// Config configures Chrome launch options.
type Config struct {
	Headless        bool          // Run without a visible window
	Bin             string        // Chrome binary; empty lets Rod find or download one
	WindowWidth     int           // Window width in pixels
	WindowHeight    int           // Window height in pixels
	NavigateTimeout time.Duration // Upper bound for a single page load
	NoSandbox       bool          // Needed inside most containers
}

// DefaultConfig returns defaults suitable for CI runs.
func DefaultConfig() Config {
	return Config{
		Headless:        true,
		WindowWidth:     1920,
		WindowHeight:    1080,
		NavigateTimeout: 30 * time.Second,
		NoSandbox:       true,
	}
}

// Client is one Chrome process with one page, used serially.
type Client struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
	navTO    time.Duration

	closeOnce sync.Once
	closeErr  error
}

// New launches Chrome and opens the page every later call operates on.
// Headful sessions start maximized; headless ones get an explicit window size.
func New(cfg Config) (*Client, error) {
	if cfg.NavigateTimeout <= 0 {
		cfg.NavigateTimeout = DefaultConfig().NavigateTimeout
	}

	l := launcher.New().
		Headless(cfg.Headless).
		Set("disable-gpu")
	if cfg.NoSandbox {
		l = l.Set("no-sandbox")
	}
	if cfg.Bin != "" {
		l = l.Bin(cfg.Bin)
	}
	if cfg.Headless {
		if cfg.WindowWidth > 0 && cfg.WindowHeight > 0 {
			l = l.Set("window-size", strconv.Itoa(cfg.WindowWidth)+","+strconv.Itoa(cfg.WindowHeight))
		}
	} else {
		l = l.Set("start-maximized")
	}

	url, err := l.Launch()
	if err != nil {
		return nil, errs.New(errs.ErrBrowserLaunch, "browser.launch", err).
			WithAdvice("install Chrome or set browser.bin in edusmoke.yaml")
	}

	// NoDefaultDevice keeps the page at the real window size instead of
	// Rod's emulated laptop viewport.
	b := rod.New().ControlURL(url).NoDefaultDevice()
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, errs.New(errs.ErrBrowserLaunch, "browser.connect", err)
	}

	page, err := b.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = b.Close()
		l.Kill()
		return nil, errs.New(errs.ErrBrowserLaunch, "browser.page", err)
	}

	return &Client{
		launcher: l,
		browser:  b,
		page:     page,
		navTO:    cfg.NavigateTimeout,
	}, nil
}

// Navigate loads url and waits for the load event.
func (c *Client) Navigate(ctx context.Context, url string) error {
	ctx, cancel := context.WithTimeout(ctx, c.navTO)
	defer cancel()

	p := c.page.Context(ctx)
	if err := p.Navigate(url); err != nil {
		return errs.New(errs.ErrNavigate, "browser.navigate", err).WithResource(url)
	}
	if err := p.WaitLoad(); err != nil {
		return errs.New(errs.ErrNavigate, "browser.wait-load", err).WithResource(url)
	}
	return nil
}

// WaitFor blocks until loc is present in the DOM or ctx is done.
func (c *Client) WaitFor(ctx context.Context, loc Locator) error {
	if _, err := c.find(ctx, loc); err != nil {
		return classify(ctx, err, errs.ErrElement, "browser.wait", loc)
	}
	return nil
}

// WaitClickable blocks until loc is present and interactable, then clicks it.
func (c *Client) WaitClickable(ctx context.Context, loc Locator) error {
	el, err := c.find(ctx, loc)
	if err != nil {
		return classify(ctx, err, errs.ErrElement, "browser.wait-clickable", loc)
	}
	if _, err := el.WaitInteractable(); err != nil {
		return classify(ctx, err, errs.ErrInteract, "browser.wait-clickable", loc)
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return classify(ctx, err, errs.ErrInteract, "browser.click", loc)
	}
	return nil
}

// Fill locates loc and types text into it.
func (c *Client) Fill(ctx context.Context, loc Locator, text string) error {
	el, err := c.find(ctx, loc)
	if err != nil {
		return classify(ctx, err, errs.ErrElement, "browser.fill", loc)
	}
	if err := el.Input(text); err != nil {
		return classify(ctx, err, errs.ErrInteract, "browser.fill", loc)
	}
	return nil
}

// Click locates loc and left-clicks it.
func (c *Client) Click(ctx context.Context, loc Locator) error {
	el, err := c.find(ctx, loc)
	if err != nil {
		return classify(ctx, err, errs.ErrElement, "browser.click", loc)
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return classify(ctx, err, errs.ErrInteract, "browser.click", loc)
	}
	return nil
}

// Text returns the visible text of the first element matching loc.
func (c *Client) Text(ctx context.Context, loc Locator) (string, error) {
	el, err := c.find(ctx, loc)
	if err != nil {
		return "", classify(ctx, err, errs.ErrElement, "browser.text", loc)
	}
	text, err := el.Text()
	if err != nil {
		return "", classify(ctx, err, errs.ErrInteract, "browser.text", loc)
	}
	return text, nil
}

// Count returns how many elements currently match loc. It does not wait.
func (c *Client) Count(ctx context.Context, loc Locator) (int, error) {
	p := c.page.Context(ctx)

	var (
		els rod.Elements
		err error
	)
	switch loc.By {
	case StrategyID:
		els, err = p.Elements(loc.css())
	default:
		els, err = p.ElementsX(loc.Value)
	}
	if err != nil {
		return 0, classify(ctx, err, errs.ErrElement, "browser.count", loc)
	}
	return len(els), nil
}

// Eval executes JavaScript on the current page and returns the result.
func (c *Client) Eval(ctx context.Context, js string) (interface{}, error) {
	result, err := c.page.Context(ctx).Eval(js)
	if err != nil {
		return nil, fmt.Errorf("eval failed: %w", err)
	}
	return result.Value.Val(), nil
}

// WaitStable waits until the DOM has not changed for d.
func (c *Client) WaitStable(ctx context.Context, d time.Duration) error {
	return c.page.Context(ctx).WaitStable(d)
}

// Close shuts the browser down. Safe to call more than once.
// Always call this (via defer) to prevent orphaned Chrome processes.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		if c.browser != nil {
			c.closeErr = c.browser.Close()
		}
		if c.launcher != nil {
			c.launcher.Kill()
			c.launcher.Cleanup()
		}
	})
	return c.closeErr
}

// find resolves loc, retrying until it matches or ctx is done.
func (c *Client) find(ctx context.Context, loc Locator) (*rod.Element, error) {
	p := c.page.Context(ctx)
	switch loc.By {
	case StrategyID:
		return p.Element(loc.css())
	case StrategyXPath:
		return p.ElementX(loc.Value)
	default:
		return nil, fmt.Errorf("unknown locator strategy %d", loc.By)
	}
}

// classify maps a Rod failure to a coded error. A passed deadline is a wait
// timeout no matter which step was running.
func classify(ctx context.Context, err error, code errs.ErrorCode, op string, loc Locator) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		code = errs.ErrWaitTimeout
	}
	return errs.New(code, op, err).WithResource(loc.String())
}
