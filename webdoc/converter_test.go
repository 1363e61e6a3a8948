package webdoc

import (
	"strings"
	"testing"
)

func TestExtractHTMLTitle(t *testing.T) {
	tests := []struct {
		name     string
		html     string
		expected string
	}{
		{
			name:     "simple title",
			html:     "<html><head><title>My Page</title></head><body></body></html>",
			expected: "My Page",
		},
		{
			name:     "title with whitespace",
			html:     "<html><head><title>  Spaced Title  </title></head></html>",
			expected: "Spaced Title",
		},
		{
			name:     "no title",
			html:     "<html><head></head><body>Content</body></html>",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractHTMLTitle([]byte(tt.html))
			if got != tt.expected {
				t.Errorf("extractHTMLTitle() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestExtractMarkdownTitle(t *testing.T) {
	tests := []struct {
		name     string
		markdown string
		expected string
	}{
		{
			name:     "H1 at start",
			markdown: "# Hello World\n\nContent here",
			expected: "Hello World",
		},
		{
			name:     "H1 after text",
			markdown: "Some text\n\n# Title Here\n\nMore content",
			expected: "Title Here",
		},
		{
			name:     "no H1",
			markdown: "## Section\n\nContent",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractMarkdownTitle(tt.markdown)
			if got != tt.expected {
				t.Errorf("extractMarkdownTitle() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestCleanMarkdown(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{
			name:  "excessive newlines",
			input: "Line 1\n\n\n\n\n\nLine 2",
		},
		{
			name:  "trailing spaces",
			input: "Line with trailing space   \nAnother line",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cleanMarkdown(tt.input)
			if strings.Contains(got, "\n\n\n\n") {
				t.Error("cleanMarkdown should remove excessive newlines")
			}
			for _, line := range strings.Split(got, "\n") {
				if strings.HasSuffix(line, " ") {
					t.Errorf("cleanMarkdown should remove trailing spaces: %q", line)
				}
			}
		})
	}
}

func TestConverter(t *testing.T) {
	converter := NewConverter()

	html := []byte(`<!DOCTYPE html>
<html>
<head><title>Requirement Catalog</title></head>
<body>
<nav>Navigation</nav>
<main>
<h1>Authentication Requirements</h1>
<p>The system shall authenticate users with <strong>signed</strong> tokens.</p>
<ul>
<li>A. Tokens expire.</li>
<li>B. Sessions persist.</li>
</ul>
</main>
<footer>Footer text</footer>
</body>
</html>`)

	result, err := converter.Convert(html, nil)
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}

	if result.Title != "Requirement Catalog" {
		t.Errorf("Title = %q, want %q", result.Title, "Requirement Catalog")
	}
	if !strings.Contains(result.Markdown, "Authentication Requirements") {
		t.Error("markdown should contain the heading")
	}
	if !strings.Contains(result.Markdown, "**signed**") {
		t.Error("markdown should keep inline emphasis")
	}
	if !strings.Contains(result.Markdown, "A. Tokens expire.") {
		t.Error("markdown should keep list items")
	}
}

func TestConverterTitleFallback(t *testing.T) {
	converter := NewConverter()

	html := []byte("<html><body><main><h1>Only Heading</h1><p>Body.</p></main></body></html>")
	result, err := converter.Convert(html, nil)
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if result.Title != "Only Heading" {
		t.Errorf("Title = %q, want fallback to the first H1", result.Title)
	}
}
