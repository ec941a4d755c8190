package dates

import "testing"

func TestExtract_TextPatterns(t *testing.T) {
	tests := []struct {
		name     string
		html     string
		expected string
	}{
		{
			name:     "english iso date",
			html:     "<html><body><p>Last updated 2024-12-06</p></body></html>",
			expected: "2024-12-06",
		},
		{
			name:     "norwegian abbreviated month",
			html:     "<html><body><p>Sist oppdatert 02. des. 2025</p></body></html>",
			expected: "2025-12-02",
		},
		{
			name:     "norwegian single digit day padded",
			html:     "<html><body><p>Sist oppdatert 2. mai. 2025</p></body></html>",
			expected: "2025-05-02",
		},
		{
			name:     "uppercase text",
			html:     "<html><body><p>SIST OPPDATERT 02. DES. 2025</p></body></html>",
			expected: "2025-12-02",
		},
		{
			name:     "english abbreviated month",
			html:     "<html><body><p>Last updated 06. Dec. 2024</p></body></html>",
			expected: "2024-12-06",
		},
		{
			name:     "iso timestamp after datert",
			html:     "<html><body><p>datert 2025-11-27T07:32:40Z</p></body></html>",
			expected: "2025-11-27",
		},
		{
			name:     "colon variant",
			html:     "<html><body><p>Sist oppdatert: 2024-12-06</p></body></html>",
			expected: "2024-12-06",
		},
		{
			name:     "colon variant with timestamp",
			html:     "<html><body><p>dated: 2025-01-15T10:00:00Z</p></body></html>",
			expected: "2025-01-15",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Extract(tt.html)
			if !ok {
				t.Fatalf("Extract(%q) found no date", tt.html)
			}
			if got != tt.expected {
				t.Errorf("Extract(%q) = %q, want %q", tt.html, got, tt.expected)
			}
		})
	}
}

func TestExtract_MetaTagFallback(t *testing.T) {
	tests := []struct {
		name     string
		html     string
		expected string
	}{
		{
			name:     "article modified_time",
			html:     `<html><head><meta property="article:modified_time" content="2024-03-04T10:00:00Z"></head><body></body></html>`,
			expected: "2024-03-04",
		},
		{
			name:     "meta name date",
			html:     `<html><head><meta name="date" content="2024-05-06"></head><body></body></html>`,
			expected: "2024-05-06",
		},
		{
			name:     "http-equiv last-modified",
			html:     `<html><head><meta http-equiv="last-modified" content="2023-11-20T08:15:00Z"></head><body></body></html>`,
			expected: "2023-11-20",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Extract(tt.html)
			if !ok {
				t.Fatalf("Extract found no date")
			}
			if got != tt.expected {
				t.Errorf("Extract = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestExtract_TextPatternWinsOverMeta(t *testing.T) {
	html := `<html><head><meta name="date" content="2020-01-01"></head>` +
		`<body><p>Last updated 2024-12-06</p></body></html>`

	got, ok := Extract(html)
	if !ok {
		t.Fatal("Extract found no date")
	}
	if got != "2024-12-06" {
		t.Errorf("Extract = %q, want text pattern to win over meta tag", got)
	}
}

func TestExtract_NoMatch(t *testing.T) {
	tests := []struct {
		name string
		html string
	}{
		{
			name: "no date anywhere",
			html: "<html><body><p>Nothing to see here</p></body></html>",
		},
		{
			name: "unparseable month continues past pattern",
			html: "<html><body><p>Last updated 02. zzz. 2025</p></body></html>",
		},
		{
			name: "invalid iso date rejected",
			html: "<html><body><p>Last updated 2024-13-99</p></body></html>",
		},
		{
			name: "meta tag with unparseable content",
			html: `<html><head><meta name="date" content="not a date"></head><body></body></html>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got, ok := Extract(tt.html); ok {
				t.Errorf("Extract = %q, want no match", got)
			}
		})
	}
}
