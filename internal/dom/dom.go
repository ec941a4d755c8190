// Package dom provides helpers over rendered markup: title lookup,
// anchor-section slicing and rewriting of relative references.
package dom

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Title returns the text of the document's title element, empty when
// the document has none.
func Title(markup string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

// SliceAnchor extracts the section of markup a fragment points at.
// A heading with a matching id spans itself plus all following
// siblings up to the next heading of equal or higher level; any other
// match yields just that element. Matching falls back from id to name
// attributes to links targeting the fragment. The bool reports
// whether the fragment was found.
func SliceAnchor(markup, fragment string) (string, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return "", false
	}

	if el := findByAttr(doc, "id", fragment); el != nil {
		if headingLevel(goquery.NodeName(el)) > 0 {
			return sliceFromHeading(el), true
		}
		return outerHTML(el), true
	}

	// Older pages anchor with a name attribute instead of an id.
	if el := findByAttr(doc, "name", fragment); el != nil {
		return outerHTML(el), true
	}

	// Last resort: a link targeting the fragment, typically sitting
	// inside the section heading.
	if link := findAnchorLink(doc, fragment); link != nil {
		if parent := link.Parent(); headingLevel(goquery.NodeName(parent)) > 0 {
			return sliceFromHeading(parent), true
		}
	}

	return "", false
}

// RewriteRefs rewrites relative src and href attribute values to
// absolute URLs under root. Values that already carry a scheme
// (http, mailto, javascript, data) are left alone. Anchor slices
// carry no html element and are serialized back in the same fragment
// shape they came in.
func RewriteRefs(markup, root string) (string, error) {
	base, err := url.Parse(root)
	if err != nil {
		return "", err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return "", err
	}

	doc.Find("[src], [href]").Each(func(_ int, s *goquery.Selection) {
		for _, name := range []string{"src", "href"} {
			val, ok := s.Attr(name)
			if !ok || val == "" {
				continue
			}
			ref, err := url.Parse(val)
			if err != nil || ref.IsAbs() {
				continue
			}
			s.SetAttr(name, base.ResolveReference(ref).String())
		}
	})

	if strings.Contains(strings.ToLower(markup), "<html") {
		return goquery.OuterHtml(doc.Find("html").First())
	}
	return doc.Find("body").First().Html()
}

func findByAttr(doc *goquery.Document, attr, want string) *goquery.Selection {
	var found *goquery.Selection
	doc.Find("*").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if v, ok := s.Attr(attr); ok && v == want {
			found = s
			return false
		}
		return true
	})
	return found
}

func findAnchorLink(doc *goquery.Document, fragment string) *goquery.Selection {
	var found *goquery.Selection
	doc.Find("a").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if href, ok := s.Attr("href"); ok && href == "#"+fragment {
			found = s
			return false
		}
		return true
	})
	return found
}

// sliceFromHeading collects the heading and its following element
// siblings, stopping before the next heading of equal or higher level.
func sliceFromHeading(h *goquery.Selection) string {
	level := headingLevel(goquery.NodeName(h))
	parts := []string{outerHTML(h)}

	h.NextAll().EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if l := headingLevel(goquery.NodeName(s)); l > 0 && l <= level {
			return false
		}
		parts = append(parts, outerHTML(s))
		return true
	})

	return strings.Join(parts, "\n")
}

// headingLevel returns 1-6 for h1-h6 element names, 0 otherwise.
func headingLevel(name string) int {
	if len(name) == 2 && name[0] == 'h' && name[1] >= '1' && name[1] <= '6' {
		return int(name[1] - '0')
	}
	return 0
}

func outerHTML(s *goquery.Selection) string {
	h, err := goquery.OuterHtml(s)
	if err != nil {
		return ""
	}
	return h
}
