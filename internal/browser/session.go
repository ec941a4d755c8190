// Package browser drives a shared headless Chrome instance for
// JavaScript-rendered pages. One Session lives for a whole crawl run so
// cookies and login state carry across navigations.
package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/sitesnap/sitesnap/internal/logger"
)

const (
	// DefaultUserAgent identifies the crawler to servers.
	DefaultUserAgent = "sitesnap/1.0 (+https://github.com/sitesnap/sitesnap)"
	// DefaultTimeout bounds a single browser operation.
	DefaultTimeout = 30 * time.Second

	// pollInterval spaces repeated element lookups.
	pollInterval = 250 * time.Millisecond
	// frameSettle gives iframe documents a moment to finish rendering.
	frameSettle = time.Second
	// overlaySettle lets the page react after a popup is closed.
	overlaySettle = 500 * time.Millisecond
)

// Options configures a browsing session.
type Options struct {
	// UserAgent is sent with every request.
	UserAgent string
	// Timeout bounds each browser operation.
	Timeout time.Duration
}

// Session owns the headless browser shared across a crawl run.
type Session struct {
	ctx         context.Context
	cancel      context.CancelFunc
	cancelAlloc context.CancelFunc
	timeout     time.Duration
}

// NewSession launches a headless browser. The caller must Close it.
func NewSession(ctx context.Context, opts Options) (*Session, error) {
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.WindowSize(1920, 1080),
		chromedp.UserAgent(opts.UserAgent),
	)
	if chromePath := FindChromePath(); chromePath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(chromePath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(format string, args ...interface{}) {
		logger.Debug(fmt.Sprintf(format, args...))
	}))

	// Launch eagerly so a missing browser fails here, not mid-crawl.
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	// JavaScript dialogs block the protocol until handled; dismiss them
	// as they appear.
	chromedp.ListenTarget(browserCtx, func(ev interface{}) {
		if dlg, ok := ev.(*page.EventJavascriptDialogOpening); ok {
			logger.Debug("dismissing dialog", "message", dlg.Message)
			go func() {
				if err := chromedp.Run(browserCtx, page.HandleJavaScriptDialog(false)); err != nil {
					logger.Debug("failed to dismiss dialog", "error", err)
				}
			}()
		}
	})

	return &Session{
		ctx:         browserCtx,
		cancel:      cancelBrowser,
		cancelAlloc: cancelAlloc,
		timeout:     opts.Timeout,
	}, nil
}

// run executes actions against the shared browser context with a
// per-operation timeout, honoring cancellation of the caller's ctx.
func (s *Session) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	opCtx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(opCtx, actions...)
}

// Navigate loads url and waits for the page to settle. settle adds a
// fixed pause after the body is ready so client-side rendering can
// finish.
func (s *Session) Navigate(ctx context.Context, url string, settle time.Duration) error {
	logger.Debug("navigating", "url", url, "settle", settle)
	actions := []chromedp.Action{
		chromedp.Navigate(url),
		// Wait for body to be ready (WaitVisible has a bug causing infinite polling).
		chromedp.WaitReady("body", chromedp.ByQuery),
	}
	if settle > 0 {
		actions = append(actions, chromedp.Sleep(settle))
	}
	if err := s.run(ctx, s.timeout+settle, actions...); err != nil {
		return fmt.Errorf("failed to load %s: %w", url, err)
	}
	return nil
}

// HTML returns the serialized DOM of the current page.
func (s *Session) HTML(ctx context.Context) (string, error) {
	var html string
	if err := s.run(ctx, s.timeout, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("failed to read page HTML: %w", err)
	}
	return html, nil
}

// Title returns the current document title.
func (s *Session) Title(ctx context.Context) (string, error) {
	var title string
	if err := s.run(ctx, s.timeout, chromedp.Title(&title)); err != nil {
		return "", err
	}
	return title, nil
}

// Location returns the current page URL after any redirects.
func (s *Session) Location(ctx context.Context) (string, error) {
	var loc string
	if err := s.run(ctx, s.timeout, chromedp.Location(&loc)); err != nil {
		return "", err
	}
	return loc, nil
}

// Links returns the href of every anchor on the current page, resolved
// by the browser to absolute URLs. Anchors without an href yield empty
// strings.
func (s *Session) Links(ctx context.Context) ([]string, error) {
	var hrefs []string
	err := s.run(ctx, s.timeout,
		chromedp.Evaluate(`Array.from(document.getElementsByTagName('a')).map(a => a.href)`, &hrefs))
	if err != nil {
		return nil, fmt.Errorf("failed to collect links: %w", err)
	}
	return hrefs, nil
}

// FrameHTML waits up to wait for an iframe matching selector to appear,
// then returns the serialized document inside it. The bool reports
// whether the frame was found and readable; cross-origin frames and
// empty documents report false.
func (s *Session) FrameHTML(ctx context.Context, selector string, wait time.Duration) (string, bool) {
	var present bool
	err := s.run(ctx, wait+s.timeout,
		chromedp.Poll(fmt.Sprintf(`document.querySelector(%q) !== null`, selector), &present,
			chromedp.WithPollingInterval(pollInterval),
			chromedp.WithPollingTimeout(wait)))
	if err != nil || !present {
		logger.Debug("iframe not found", "selector", selector, "wait", wait)
		return "", false
	}

	extract := fmt.Sprintf(`(() => {
		const frame = document.querySelector(%q);
		if (!frame || !frame.contentDocument || !frame.contentDocument.documentElement) {
			return "";
		}
		return frame.contentDocument.documentElement.outerHTML;
	})()`, selector)

	var html string
	err = s.run(ctx, s.timeout+frameSettle,
		chromedp.Sleep(frameSettle),
		chromedp.Evaluate(extract, &html))
	if err != nil {
		logger.Debug("failed to read iframe content", "selector", selector, "error", err)
		return "", false
	}
	if html == "" {
		return "", false
	}
	return html, true
}

// Close-button selectors tried when dismissing popups, most specific
// first.
var overlaySelectors = []string{
	"button.close",
	".modal-close",
	`[data-dismiss="modal"]`,
	".popup-close",
	".ui-dialog-titlebar-close",
	`button[aria-label="Close"]`,
	".close-button",
}

const dismissOverlayJS = `(() => {
	const patterns = %s;
	for (const sel of patterns) {
		const el = document.querySelector(sel);
		if (el && el.offsetParent !== null) {
			el.click();
			return sel;
		}
	}
	return "";
})()`

// DismissOverlays clicks the first visible close button it finds among
// common popup patterns. Reports whether anything was dismissed.
func (s *Session) DismissOverlays(ctx context.Context) bool {
	sels, err := json.Marshal(overlaySelectors)
	if err != nil {
		return false
	}
	var clicked string
	if err := s.run(ctx, s.timeout, chromedp.Evaluate(fmt.Sprintf(dismissOverlayJS, sels), &clicked)); err != nil {
		logger.Debug("overlay dismissal failed", "error", err)
		return false
	}
	if clicked == "" {
		return false
	}
	logger.Debug("dismissed overlay", "selector", clicked)
	_ = s.run(ctx, s.timeout, chromedp.Sleep(overlaySettle))
	return true
}

// FindFirst walks locators in order and returns the first one matching
// an element on the page. When wait is positive the whole list is
// retried until the deadline passes; otherwise a single pass is made.
func (s *Session) FindFirst(ctx context.Context, locators []Locator, wait time.Duration) (Locator, bool) {
	deadline := time.Now().Add(wait)
	for {
		for _, loc := range locators {
			found, err := s.exists(ctx, loc)
			if err != nil {
				logger.Debug("element lookup failed", "locator", loc.String(), "error", err)
				continue
			}
			if found {
				logger.Debug("found element", "locator", loc.String())
				return loc, true
			}
		}
		if wait <= 0 || time.Now().After(deadline) {
			return Locator{}, false
		}
		select {
		case <-ctx.Done():
			return Locator{}, false
		case <-time.After(pollInterval):
		}
	}
}

func (s *Session) exists(ctx context.Context, loc Locator) (bool, error) {
	sel, by := loc.query()
	var nodes []*cdp.Node
	if err := s.run(ctx, s.timeout, chromedp.Nodes(sel, &nodes, by, chromedp.AtLeast(0))); err != nil {
		return false, err
	}
	return len(nodes) > 0, nil
}

// Type clears the element found by loc and types text into it.
func (s *Session) Type(ctx context.Context, loc Locator, text string) error {
	sel, by := loc.query()
	err := s.run(ctx, s.timeout,
		chromedp.Clear(sel, by),
		chromedp.SendKeys(sel, text, by),
	)
	if err != nil {
		return fmt.Errorf("failed to fill %s: %w", loc, err)
	}
	return nil
}

// Click clicks the element found by loc.
func (s *Session) Click(ctx context.Context, loc Locator) error {
	sel, by := loc.query()
	if err := s.run(ctx, s.timeout, chromedp.Click(sel, by)); err != nil {
		return fmt.Errorf("failed to click %s: %w", loc, err)
	}
	return nil
}

// FormElement is a form control captured for debug logging during
// login troubleshooting.
type FormElement struct {
	Kind        string `json:"kind"`
	Type        string `json:"type"`
	Name        string `json:"name"`
	ID          string `json:"id"`
	Placeholder string `json:"placeholder"`
	Text        string `json:"text"`
	Class       string `json:"class"`
}

const formElementsJS = `(() => {
	const out = [];
	for (const el of document.querySelectorAll('input')) {
		out.push({kind: 'input', type: el.type || 'text', name: el.name || '', id: el.id || '', placeholder: el.placeholder || '', text: '', class: el.className || ''});
	}
	for (const el of document.querySelectorAll('button, input[type="submit"]')) {
		out.push({kind: 'button', type: el.type || '', name: el.name || '', id: el.id || '', placeholder: '', text: (el.innerText || el.value || '').trim(), class: el.className || ''});
	}
	return out;
})()`

// FormElements describes the inputs and buttons on the current page.
func (s *Session) FormElements(ctx context.Context) ([]FormElement, error) {
	var elements []FormElement
	if err := s.run(ctx, s.timeout, chromedp.Evaluate(formElementsJS, &elements)); err != nil {
		return nil, err
	}
	return elements, nil
}

// Close shuts the browser down and releases the allocator.
func (s *Session) Close() error {
	if s.cancel != nil {
		s.cancel()
	}
	if s.cancelAlloc != nil {
		s.cancelAlloc()
	}
	return nil
}
