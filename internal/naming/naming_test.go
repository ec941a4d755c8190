package naming

import (
	"net/url"
	"strings"
	"testing"
	"time"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", "unnamed"},
		{"a__b", "a_b"},
		{"hello world", "hello_world"},
		{"file<name>:test", "file_name_test"},
		{"_leading and trailing_", "leading_and_trailing"},
		{"...dots...", "dots"},
		{"___", "unnamed"},
		{"what?!", "what"},
		{"a/b\\c", "a_b_c"},
		{"50% off & more", "50_off_more"},
		{"it's $5", "it_s_5"},
		{"øst-vest", "øst-vest"},
		{"report (final)", "report_(final)"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Sanitize(tt.input); got != tt.expected {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestSanitize_DropsControlCharacters(t *testing.T) {
	if got := Sanitize("a\x00b\x1fc\td"); got != "abcd" {
		t.Errorf("expected control characters removed, got %q", got)
	}
}

func TestSanitize_Idempotent(t *testing.T) {
	inputs := []string{
		"a__b",
		"hello world!",
		"<>:\"/\\|?*",
		"example.org__docs--page",
		"plain",
		"",
	}

	for _, input := range inputs {
		once := Sanitize(input)
		twice := Sanitize(once)
		if once != twice {
			t.Errorf("Sanitize not idempotent for %q: %q != %q", input, once, twice)
		}
	}
}

func TestSanitize_CapsLength(t *testing.T) {
	long := strings.Repeat("a", 300)
	got := Sanitize(long)
	if len([]rune(got)) != maxNameLength {
		t.Errorf("expected %d characters, got %d", maxNameLength, len([]rune(got)))
	}

	// Truncation must not leave a trailing underscore.
	edge := strings.Repeat("a", 199) + "_" + strings.Repeat("b", 50)
	got = Sanitize(edge)
	if strings.HasSuffix(got, "_") {
		t.Errorf("expected trailing underscore trimmed, got %q", got)
	}
	if len([]rune(got)) != 199 {
		t.Errorf("expected 199 characters, got %d", len([]rune(got)))
	}

	// Same for a dot landing on the cut boundary; the result must also
	// survive a second pass unchanged.
	edge = strings.Repeat("a", 199) + "." + strings.Repeat("b", 50)
	got = Sanitize(edge)
	if strings.HasSuffix(got, ".") {
		t.Errorf("expected trailing dot trimmed, got %q", got)
	}
	if again := Sanitize(got); again != got {
		t.Errorf("capped output not idempotent: %q != %q", again, got)
	}
}

func TestDerive(t *testing.T) {
	tests := []struct {
		name     string
		host     string
		path     string
		fragment string
		markdown bool
		anchors  bool
		file     string
		docType  string
		kind     Kind
	}{
		{
			name:    "page",
			host:    "example.org",
			path:    "/docs/page.html",
			file:    "example.org_docs--page.html",
			docType: "html",
			kind:    KindPage,
		},
		{
			name:     "page retargeted to markdown",
			host:     "example.org",
			path:     "/docs/page.html",
			markdown: true,
			file:     "example.org_docs--page.md",
			docType:  "html",
			kind:     KindPage,
		},
		{
			name:    "root path",
			host:    "example.org",
			path:    "/",
			file:    "example.org--.html",
			docType: "html",
			kind:    KindPage,
		},
		{
			name:    "no extension defaults to html",
			host:    "example.org",
			path:    "/docs/guide",
			file:    "example.org_docs--guide.html",
			docType: "html",
			kind:    KindPage,
		},
		{
			name:    "deep path joins segments",
			host:    "example.org",
			path:    "/a/b/c/d.html",
			file:    "example.org_a_b_c--d.html",
			docType: "html",
			kind:    KindPage,
		},
		{
			name:    "pdf is binary",
			host:    "example.org",
			path:    "/files/manual.pdf",
			file:    "example.org_files--manual.pdf",
			docType: "pdf",
			kind:    KindBinary,
		},
		{
			name:     "pdf keeps extension under markdown",
			host:     "example.org",
			path:     "/files/manual.pdf",
			markdown: true,
			file:     "example.org_files--manual.pdf",
			docType:  "pdf",
			kind:     KindBinary,
		},
		{
			name: "png is skipped",
			host: "example.org",
			path: "/img/logo.png",
			kind: KindImage,
		},
		{
			name: "jpeg is skipped",
			host: "example.org",
			path: "/img/photo.jpeg",
			kind: KindImage,
		},
		{
			name:     "fragment folded in under anchor mode",
			host:     "example.org",
			path:     "/docs/page.html",
			fragment: "section-1",
			anchors:  true,
			file:     "example.org_docs--page_section-1.html",
			docType:  "html",
			kind:     KindPage,
		},
		{
			name:     "fragment ignored without anchor mode",
			host:     "example.org",
			path:     "/docs/page.html",
			fragment: "section-1",
			file:     "example.org_docs--page.html",
			docType:  "html",
			kind:     KindPage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Derive(tt.host, tt.path, tt.fragment, tt.markdown, tt.anchors)
			if d.Kind != tt.kind {
				t.Fatalf("Kind = %v, want %v", d.Kind, tt.kind)
			}
			if d.Kind == KindImage {
				return
			}
			if d.FileName != tt.file {
				t.Errorf("FileName = %q, want %q", d.FileName, tt.file)
			}
			if d.DocType != tt.docType {
				t.Errorf("DocType = %q, want %q", d.DocType, tt.docType)
			}
		})
	}
}

func TestOutputDirName(t *testing.T) {
	now := time.Date(2025, 1, 14, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		input    string
		expected string
	}{
		{"https://www.example.org/docs", "example.org_20250114T0930"},
		{"https://example.org/", "example.org_20250114T0930"},
		{"https://example.org:8443/", "example.org_8443_20250114T0930"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			u, err := url.Parse(tt.input)
			if err != nil {
				t.Fatalf("failed to parse URL: %v", err)
			}
			if got := OutputDirName(u, now); got != tt.expected {
				t.Errorf("OutputDirName(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestSplitExt(t *testing.T) {
	tests := []struct {
		input string
		stem  string
		ext   string
	}{
		{"page.html", "page", ".html"},
		{"archive.tar.gz", "archive.tar", ".gz"},
		{"guide", "guide", ""},
		{".hidden", ".hidden", ""},
		{"", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			stem, ext := splitExt(tt.input)
			if stem != tt.stem || ext != tt.ext {
				t.Errorf("splitExt(%q) = (%q, %q), want (%q, %q)",
					tt.input, stem, ext, tt.stem, tt.ext)
			}
		})
	}
}
