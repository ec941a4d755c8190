package crawler

import (
	"fmt"
	"net/url"
	"strings"
)

// Scope bounds a crawl to one origin. Everything under the seed's
// scheme://host/ is in scope; everything else is skipped.
type Scope struct {
	root string
}

// NewScope derives the crawl scope from a seed URL. The seed must be
// absolute.
func NewScope(seed string) (Scope, error) {
	u, err := url.Parse(seed)
	if err != nil {
		return Scope{}, fmt.Errorf("invalid seed URL %q: %w", seed, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return Scope{}, fmt.Errorf("seed URL %q must be absolute", seed)
	}
	return Scope{root: u.Scheme + "://" + u.Host + "/"}, nil
}

// Root returns the origin with a trailing slash, suitable as a prefix
// for rewriting relative references.
func (s Scope) Root() string {
	return s.root
}

// Contains reports whether rawURL sits under the scope origin.
func (s Scope) Contains(rawURL string) bool {
	return strings.HasPrefix(rawURL, s.root)
}
