// Package manifest defines the metadata records accumulated for each
// crawled resource and serialized as the crawl manifest.
package manifest

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Record describes one materialized resource. Binary resources get a
// record with an empty title, a null date and no person, service or
// product keys; the Anchor field is set only in anchor mode, for
// targets that carried a fragment.
type Record struct {
	Title       string     `json:"title" yaml:"title"`
	URL         string     `json:"url" yaml:"url"`
	FileName    string     `json:"file_name" yaml:"file_name"`
	DocType     string     `json:"doc_type" yaml:"doc_type"`
	LastUpdated *string    `json:"last_updated" yaml:"last_updated"`
	Anchor      string     `json:"anchor,omitempty" yaml:"anchor,omitempty"`
	Person      NullString `json:"person,omitzero" yaml:"person,omitempty"`
	Service     NullString `json:"tjeneste,omitzero" yaml:"tjeneste,omitempty"`
	Product     NullString `json:"produkt,omitzero" yaml:"produkt,omitempty"`
}

// NullString is a string field that distinguishes absent, null and
// set. The zero value is absent and is dropped from output; a present
// field serializes to its value or to null.
type NullString struct {
	Present bool
	Value   *string
}

// Null returns a present field holding null.
func Null() NullString {
	return NullString{Present: true}
}

// String returns a present field holding s.
func String(s string) NullString {
	return NullString{Present: true, Value: &s}
}

// IsZero reports whether the field is absent. encoding/json consults
// this for omitzero, yaml for omitempty.
func (n NullString) IsZero() bool {
	return !n.Present
}

func (n NullString) MarshalJSON() ([]byte, error) {
	if n.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*n.Value)
}

func (n NullString) MarshalYAML() (interface{}, error) {
	if n.Value == nil {
		return nil, nil
	}
	return *n.Value, nil
}

var (
	personPattern  = regexp.MustCompile(`/person/([^/]+)/`)
	servicePattern = regexp.MustCompile(`/tjeneste/([^/]+)/`)
	productPattern = regexp.MustCompile(`/produkt/([^/]+)/`)
)

// AnnotatePathFields fills the person, service and product fields from
// path segments of index pages. Only index pages carry the three keys;
// an unmatched pattern yields an explicit null. Other URLs are left
// untouched, so the keys stay out of their serialized records.
func (r *Record) AnnotatePathFields(url string) {
	if !strings.HasSuffix(url, "/index.html") {
		return
	}
	r.Person = matchField(personPattern, url)
	r.Service = matchField(servicePattern, url)
	r.Product = matchField(productPattern, url)
}

func matchField(re *regexp.Regexp, url string) NullString {
	if m := re.FindStringSubmatch(url); m != nil {
		return String(m[1])
	}
	return Null()
}
