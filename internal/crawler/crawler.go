// Package crawler walks a site depth-first from a seed URL, rendering
// each page in a browser, persisting one snapshot per unique document
// and collecting a manifest record per stored file.
package crawler

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/sitesnap/sitesnap/internal/dates"
	"github.com/sitesnap/sitesnap/internal/dom"
	"github.com/sitesnap/sitesnap/internal/logger"
	"github.com/sitesnap/sitesnap/internal/manifest"
	"github.com/sitesnap/sitesnap/internal/naming"
	"github.com/sitesnap/sitesnap/pkg/cleaner"
)

// Renderer is the browser surface the crawler drives. Pages are
// rendered before their content or links are read, so JavaScript-built
// documents come out complete.
type Renderer interface {
	Navigate(ctx context.Context, url string, settle time.Duration) error
	HTML(ctx context.Context) (string, error)
	FrameHTML(ctx context.Context, selector string, wait time.Duration) (string, bool)
	Links(ctx context.Context) ([]string, error)
	DismissOverlays(ctx context.Context) bool
}

// Downloader fetches non-page resources outside the browser.
type Downloader interface {
	Download(ctx context.Context, url string) ([]byte, error)
}

// Authenticator establishes login state before pages are visited.
type Authenticator interface {
	Ensure(ctx context.Context) error
}

// Config controls a crawl run.
type Config struct {
	OutputDir      string        // run directory; snapshots land in OutputDir/data
	SinglePage     bool          // render the seed only, follow no links
	Markdown       bool          // convert page snapshots to Markdown
	Anchors        bool          // snapshot fragment sections as separate files
	AbsoluteURLs   bool          // rewrite relative refs in snapshots to absolute
	IframeSelector string        // when set, snapshot this frame's document instead of the page
	SkipPatterns   []string      // URL substrings excluded from the crawl
	MaxPageSize    int64         // per-resource size cap in bytes, 0 means no cap
	Settle         time.Duration // post-navigation render pause
	IframeWait     time.Duration // how long to wait for the iframe to appear
	Delay          time.Duration // minimum spacing between page visits
}

// Crawler renders, snapshots and records every unique page reachable
// from a seed within its origin.
type Crawler struct {
	renderer   Renderer
	downloader Downloader
	auth       Authenticator
	cleaner    cleaner.Cleaner
	config     Config

	scope      Scope
	visited    *VisitedSet
	content    *Fingerprints
	limiter    *rate.Limiter
	records    []manifest.Record
	dataDir    string
	authWarned bool
}

// New creates a Crawler. A nil cleaner stores markup verbatim; a nil
// authenticator skips login entirely.
func New(r Renderer, d Downloader, a Authenticator, cl cleaner.Cleaner, cfg Config) *Crawler {
	if cl == nil {
		cl = cleaner.NewNoop()
	}
	limit := rate.Inf
	if cfg.Delay > 0 {
		limit = rate.Every(cfg.Delay)
	}
	return &Crawler{
		renderer:   r,
		downloader: d,
		auth:       a,
		cleaner:    cl,
		config:     cfg,
		visited:    NewVisitedSet(),
		content:    NewFingerprints(),
		limiter:    rate.NewLimiter(limit, 1),
	}
}

// Run crawls depth-first from seed and returns one manifest record per
// stored resource. Page-level failures are logged and skipped; Run
// itself fails only on an invalid seed, an unwritable output directory
// or context cancellation. Visited URLs, content hashes and records
// persist across runs, so successive seeds share deduplication and the
// returned slice covers every run so far.
func (c *Crawler) Run(ctx context.Context, seed string) ([]manifest.Record, error) {
	scope, err := NewScope(seed)
	if err != nil {
		return nil, err
	}
	c.scope = scope

	c.dataDir = filepath.Join(c.config.OutputDir, "data")
	if err := os.MkdirAll(c.dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	// Seeds share the visited set with discovered links, so a seed
	// already reached during an earlier run in this invocation is not
	// rendered again.
	base, _, _ := strings.Cut(seed, "#")
	if c.visited.Seen(base) {
		logger.Info("seed already visited", "seed", seed)
		return c.records, nil
	}
	c.visited.Mark(base)
	c.visited.Mark(seed)

	logger.Info("crawl starting", "seed", seed, "scope", scope.Root())
	logger.Debug("crawl configuration",
		"single_page", c.config.SinglePage,
		"markdown", c.config.Markdown,
		"anchors", c.config.Anchors,
		"absolute_urls", c.config.AbsoluteURLs,
		"iframe_selector", c.config.IframeSelector,
		"delay", c.config.Delay)

	// Depth-first via an explicit stack. Children are pushed in
	// reverse so they pop in document order.
	stack := []string{seed}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return c.records, err
		}
		next := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		children := c.visit(ctx, next)
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}

	logger.Info("crawl complete", "records", len(c.records), "urls_seen", c.visited.Len())
	return c.records, nil
}

// visit renders one target, persists its snapshot and returns the
// in-scope links to crawl next, in document order.
func (c *Crawler) visit(ctx context.Context, rawURL string) []string {
	// TODO: support regex skip patterns
	for _, pattern := range c.config.SkipPatterns {
		if strings.Contains(rawURL, pattern) {
			logger.Debug("url matches skip pattern", "url", rawURL, "pattern", pattern)
			return nil
		}
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		logger.Warn("skipping unparseable url", "url", rawURL, "error", err)
		return nil
	}
	fragment := u.Fragment
	base, _, _ := strings.Cut(rawURL, "#")

	derived := naming.Derive(u.Host, u.Path, fragment, c.config.Markdown, c.config.Anchors)
	if derived.Kind == naming.KindImage {
		logger.Debug("skipping image", "url", rawURL)
		return nil
	}

	c.ensureAuth(ctx)

	if err := c.limiter.Wait(ctx); err != nil {
		return nil
	}

	// Binary resources never pass through the browser: navigating to a
	// download aborts the page load, so the bytes come straight from
	// the plain HTTP fetch.
	if derived.Kind == naming.KindBinary {
		c.snapshotBinary(ctx, rawURL, base, fragment, derived)
		return nil
	}

	logger.Info("scraping", "url", rawURL)
	if err := c.renderer.Navigate(ctx, rawURL, c.config.Settle); err != nil {
		logger.Warn("failed to render page", "url", rawURL, "error", err)
		return nil
	}
	return c.snapshotPage(ctx, rawURL, base, fragment, derived)
}

// snapshotBinary stores a non-page resource verbatim.
func (c *Crawler) snapshotBinary(ctx context.Context, rawURL, base, fragment string, derived naming.Derived) {
	data, err := c.downloader.Download(ctx, base)
	if err != nil {
		logger.Warn("failed to download resource", "url", base, "error", err)
		return
	}
	if c.config.MaxPageSize > 0 && int64(len(data)) > c.config.MaxPageSize {
		logger.Warn("resource exceeds size cap, skipping",
			"url", base, "bytes", len(data), "cap", c.config.MaxPageSize)
		return
	}

	path := filepath.Join(c.dataDir, derived.FileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		logger.Warn("failed to write resource", "file", path, "error", err)
		return
	}

	rec := manifest.Record{
		URL:      rawURL,
		FileName: derived.FileName,
		DocType:  derived.DocType,
	}
	if c.config.Anchors && fragment != "" {
		rec.Anchor = fragment
	}
	c.records = append(c.records, rec)
	logger.Info("saved resource", "file", derived.FileName, "bytes", len(data))
}

// snapshotPage captures the rendered document, writes it under the
// data directory unless identical content was already stored, and
// returns the links to follow.
func (c *Crawler) snapshotPage(ctx context.Context, rawURL, base, fragment string, derived naming.Derived) []string {
	c.renderer.DismissOverlays(ctx)

	var markup string
	if c.config.IframeSelector != "" {
		if frame, ok := c.renderer.FrameHTML(ctx, c.config.IframeSelector, c.config.IframeWait); ok {
			logger.Debug("extracted content from iframe", "selector", c.config.IframeSelector)
			markup = frame
		}
	}
	if markup == "" {
		html, err := c.renderer.HTML(ctx)
		if err != nil {
			logger.Warn("failed to read page", "url", rawURL, "error", err)
			return nil
		}
		markup = html
	}

	if c.config.MaxPageSize > 0 && int64(len(markup)) > c.config.MaxPageSize {
		logger.Warn("page exceeds size cap, skipping",
			"url", rawURL, "bytes", len(markup), "cap", c.config.MaxPageSize)
		return nil
	}

	// Title, date and links come from the full document before any
	// anchor slicing narrows it.
	title := dom.Title(markup)
	var lastUpdated *string
	if date, ok := dates.Extract(markup); ok {
		logger.Debug("found last updated date", "url", rawURL, "date", date)
		lastUpdated = &date
	}
	links, err := c.renderer.Links(ctx)
	if err != nil {
		logger.Debug("failed to collect links", "url", rawURL, "error", err)
	}

	if c.config.Anchors && fragment != "" {
		if section, ok := dom.SliceAnchor(markup, fragment); ok {
			markup = section
		} else {
			logger.Warn("anchor not found, saving full page", "url", rawURL, "anchor", fragment)
		}
	}

	if digest, dup := c.content.Seen(markup); dup {
		logger.Debug("duplicate content, skipping", "url", rawURL, "hash", digest[:12])
		c.visited.Mark(rawURL)
		return nil
	}

	if c.config.AbsoluteURLs {
		if rewritten, err := dom.RewriteRefs(markup, c.scope.Root()); err == nil {
			markup = rewritten
		} else {
			logger.Debug("failed to rewrite references", "url", rawURL, "error", err)
		}
	}

	// A cleaner failure loses the file but keeps the record, so the
	// manifest still names every unique document that was reached.
	out, err := c.cleaner.Clean(markup)
	if err != nil {
		logger.Warn("cleaner failed, skipping file", "url", rawURL, "cleaner", c.cleaner.Name(), "error", err)
	} else {
		path := filepath.Join(c.dataDir, derived.FileName)
		if err := os.WriteFile(path, []byte(out), 0o644); err != nil {
			logger.Warn("failed to write snapshot", "file", path, "error", err)
			return nil
		}
		logger.Info("saved snapshot", "file", derived.FileName)
	}

	rec := manifest.Record{
		Title:       title,
		URL:         rawURL,
		FileName:    derived.FileName,
		DocType:     derived.DocType,
		LastUpdated: lastUpdated,
	}
	if c.config.Anchors && fragment != "" {
		rec.Anchor = fragment
	}
	rec.AnnotatePathFields(base)
	c.records = append(c.records, rec)

	if c.config.SinglePage {
		return nil
	}
	return c.follow(base, links)
}

// follow filters a page's links down to the in-scope targets not yet
// scheduled, marking each decision so the same URL is never considered
// twice. Returned targets preserve document order.
func (c *Crawler) follow(pageBase string, hrefs []string) []string {
	var next []string
	for _, href := range hrefs {
		if href == "" {
			continue
		}
		// Bare fragments resolve against the current page.
		if strings.HasPrefix(href, "#") {
			href = pageBase + href
		}

		base, frag, _ := strings.Cut(href, "#")
		if base == "" {
			c.visited.Mark(href)
			continue
		}
		if !c.scope.Contains(base) {
			logger.Debug("skipping link outside scope", "url", href)
			c.visited.Mark(href)
			continue
		}

		if c.visited.Seen(base) {
			// The page itself is done, but a fragment variant may
			// still need its own anchor snapshot.
			if frag != "" && c.config.Anchors && !c.visited.Seen(href) {
				c.visited.Mark(href)
				next = append(next, href)
			} else {
				c.visited.Mark(href)
			}
			continue
		}

		c.visited.Mark(base)
		c.visited.Mark(href)
		if c.config.Anchors && frag != "" {
			next = append(next, href)
		} else {
			next = append(next, base)
		}
	}
	return next
}

// ensureAuth runs the login flow once per crawler. Failures downgrade
// to a warning so public pages can still be snapshotted.
func (c *Crawler) ensureAuth(ctx context.Context) {
	if c.auth == nil {
		return
	}
	if err := c.auth.Ensure(ctx); err != nil && !c.authWarned {
		c.authWarned = true
		logger.Warn("authentication failed, continuing without login", "error", err)
	}
}
