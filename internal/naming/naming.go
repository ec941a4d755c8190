// Package naming derives safe on-disk file and directory names for
// crawled resources.
package naming

import (
	"net/url"
	"strings"
	"time"
)

// Characters replaced with underscores. Covers everything invalid on
// Windows, Linux and macOS plus shell-hostile punctuation.
const disallowed = "<>:\"/\\|?*!#%&{}$'`=@+ "

// maxNameLength leaves room for an extension under common 255-char
// filesystem limits.
const maxNameLength = 200

// Sanitize rewrites name so it is safe to use as a filename on any
// platform. Disallowed characters become underscores, control
// characters are dropped, runs of underscores collapse to one and the
// result is trimmed and capped at maxNameLength.
func Sanitize(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r < 32:
			// control characters are dropped outright
		case strings.ContainsRune(disallowed, r):
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}

	s := b.String()
	for strings.Contains(s, "__") {
		s = strings.ReplaceAll(s, "__", "_")
	}
	s = strings.Trim(s, "_. ")

	if s == "" {
		return "unnamed"
	}

	if runes := []rune(s); len(runes) > maxNameLength {
		// The cut can land on a trimmed character, so trim again.
		s = strings.TrimRight(string(runes[:maxNameLength]), "_. ")
	}
	return s
}

// Kind classifies a crawl target by the extension in its URL path.
type Kind int

const (
	// KindPage is rendered in the browser and persisted as markup or Markdown.
	KindPage Kind = iota
	// KindBinary is fetched verbatim over plain HTTP.
	KindBinary
	// KindImage is skipped entirely.
	KindImage
)

// Derived is the on-disk identity of one crawl target.
type Derived struct {
	FileName string // sanitized name including the resolved extension
	DocType  string // original extension without the leading dot, "html" when none
	Kind     Kind
}

// Derive computes the output filename, document type and resource kind
// for a target URL. The fragment is folded into the name only when
// anchor extraction is enabled. When markdown is set, page targets are
// retargeted to a .md extension; the document type always reflects the
// original extension.
func Derive(host, urlPath, fragment string, markdown, anchors bool) Derived {
	parts := strings.Split(urlPath, "/")
	base := parts[len(parts)-1]
	parts = parts[:len(parts)-1]

	base, ext := splitExt(base)

	origExt := ext
	if origExt == "" {
		origExt = ".html"
	}

	switch ext {
	case ".png", ".jpg", ".jpeg", ".gif":
		return Derived{Kind: KindImage}
	case "":
		ext = ".html"
	}
	if markdown && ext == ".html" {
		ext = ".md"
	}

	kind := KindBinary
	if ext == ".html" || ext == ".md" {
		kind = KindPage
	}

	name := Sanitize(host + strings.Join(parts, "__") + "--" + base)
	if anchors && fragment != "" {
		name += "_" + Sanitize(fragment)
	}

	return Derived{
		FileName: name + ext,
		DocType:  strings.TrimPrefix(origExt, "."),
		Kind:     kind,
	}
}

// OutputDirName builds the default output directory name for a seed
// URL: the host with www. removed plus a minute-resolution timestamp.
func OutputDirName(u *url.URL, now time.Time) string {
	host := u.Host
	if host == "" {
		host = strings.SplitN(u.Path, "/", 2)[0]
	}
	host = strings.ReplaceAll(host, "www.", "")
	host = strings.ReplaceAll(host, ":", "_")
	host = strings.ReplaceAll(host, "/", "_")
	return host + "_" + now.Format("20060102T1504")
}

// splitExt splits a path basename into stem and extension. A leading
// dot run is part of the stem, so dotfiles carry no extension.
func splitExt(name string) (string, string) {
	start := 0
	for start < len(name) && name[start] == '.' {
		start++
	}
	i := strings.LastIndex(name[start:], ".")
	if i < 0 {
		return name, ""
	}
	i += start
	return name[:i], name[i:]
}
