package cleaner

import (
	"strings"
	"testing"
)

func TestMarkdownCleaner_Clean_BasicHTML(t *testing.T) {
	c := NewMarkdown()

	html := `<h1>Title</h1><p>A paragraph.</p>`

	got, err := c.Clean(html)
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}

	if !strings.Contains(got, "# Title") {
		t.Errorf("expected markdown heading, got %q", got)
	}

	if !strings.Contains(got, "A paragraph.") {
		t.Errorf("expected paragraph text, got %q", got)
	}
}

func TestMarkdownCleaner_Clean_WithHeaders(t *testing.T) {
	c := NewMarkdown()

	html := `<h1>H1</h1><h2>H2</h2><h3>H3</h3>`

	got, err := c.Clean(html)
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}

	if !strings.Contains(got, "# H1") {
		t.Errorf("expected # H1, got %q", got)
	}

	if !strings.Contains(got, "## H2") {
		t.Errorf("expected ## H2, got %q", got)
	}

	if !strings.Contains(got, "### H3") {
		t.Errorf("expected ### H3, got %q", got)
	}
}

func TestMarkdownCleaner_Clean_WithLinks(t *testing.T) {
	c := NewMarkdown()

	html := `<a href="https://example.com">Example Link</a>`

	got, err := c.Clean(html)
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}

	if !strings.Contains(got, "Example Link") {
		t.Errorf("expected link text, got %q", got)
	}

	if !strings.Contains(got, "example.com") {
		t.Errorf("expected link URL, got %q", got)
	}
}

func TestMarkdownCleaner_Clean_DropsScripts(t *testing.T) {
	c := NewMarkdown()

	html := `<h1>Title</h1><script>var x = "secret";</script><p>text</p>`

	got, err := c.Clean(html)
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}

	if strings.Contains(got, "secret") {
		t.Errorf("expected script content removed, got %q", got)
	}
}

func TestMarkdownCleaner_Name(t *testing.T) {
	c := NewMarkdown()
	if got := c.Name(); got != "markdown" {
		t.Errorf("Name() = %q, want %q", got, "markdown")
	}
}

func TestNoopCleaner_Clean(t *testing.T) {
	c := NewNoop()

	html := `<h1>Unchanged</h1>`

	got, err := c.Clean(html)
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}

	if got != html {
		t.Errorf("Clean() = %q, want input unchanged", got)
	}
}

func TestNoopCleaner_Name(t *testing.T) {
	c := NewNoop()
	if got := c.Name(); got != "noop" {
		t.Errorf("Name() = %q, want %q", got, "noop")
	}
}

func TestCleanWhitespace_MultipleBlankLines(t *testing.T) {
	input := "Line 1\n\n\n\n\nLine 2"
	got := cleanWhitespace(input)

	if strings.Contains(got, "\n\n\n") {
		t.Errorf("expected at most one blank line, got %q", got)
	}

	if !strings.Contains(got, "Line 1") || !strings.Contains(got, "Line 2") {
		t.Errorf("expected content preserved, got %q", got)
	}
}

func TestCleanWhitespace_LeadingTrailingSpace(t *testing.T) {
	input := "\n\n  Content  \n\n"
	got := cleanWhitespace(input)

	if strings.HasPrefix(got, "\n") || strings.HasSuffix(got, "\n") {
		t.Errorf("expected trimmed output, got %q", got)
	}
}

func TestCleanWhitespace_EmptyString(t *testing.T) {
	if got := cleanWhitespace(""); got != "" {
		t.Errorf("expected empty output, got %q", got)
	}
}
