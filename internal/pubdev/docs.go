package pubdev

import (
	"fmt"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
)

// DocType selects a documentation page
type DocType string

const (
	Readme    DocType = "readme"
	Changelog DocType = "changelog"
	Example   DocType = "example"
	APIDocs   DocType = "api_docs"
)

// DocTypes lists every supported documentation type
var DocTypes = []DocType{Readme, Changelog, Example, APIDocs}

// ParseDocType validates s, defaulting to Readme when empty
func ParseDocType(s string) (DocType, error) {
	if s == "" {
		return Readme, nil
	}
	t := DocType(strings.TrimSpace(s))
	if !t.Valid() {
		return "", &UnsupportedDocTypeError{DocType: s}
	}
	return t, nil
}

// Valid reports whether t is one of DocTypes
func (t DocType) Valid() bool {
	switch t {
	case Readme, Changelog, Example, APIDocs:
		return true
	}
	return false
}

// Label is the human readable name used in messages
func (t DocType) Label() string {
	switch t {
	case Readme:
		return "README"
	case Changelog:
		return "CHANGELOG"
	case Example:
		return "Example"
	case APIDocs:
		return "API Documentation"
	}
	return string(t)
}

// Document is a fetched documentation page
type Document struct {
	Type         DocType `json:"type"`
	URL          string  `json:"url"`
	Content      string  `json:"content"`
	LastModified *string `json:"lastModified,omitempty"`
	Available    bool    `json:"available"`
	Truncated    bool    `json:"truncated,omitempty"`
}

// contentSelectors locate the documentation body on a pub.dev page, most
// specific first
var contentSelectors = []string{
	".detail-tab-readme-content",
	".detail-tab-changelog-content",
	".detail-tab-example-content",
	"main",
	"body",
}

// TextExtractor turns pub.dev HTML pages into compact markdown
type TextExtractor struct {
	converter *converter.Converter
}

// NewTextExtractor creates an extractor that drops page chrome
func NewTextExtractor() *TextExtractor {
	conv := converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
		),
	)

	// script, style and noscript are already removed by the base plugin
	for _, tag := range []string{"nav", "header", "footer", "aside", "form", "button", "svg", "iframe"} {
		conv.Register.TagType(tag, converter.TagTypeRemove, converter.PriorityStandard)
	}

	return &TextExtractor{converter: conv}
}

// Extract returns the main content of htmlContent as markdown
func (e *TextExtractor) Extract(logger *logrus.Logger, htmlContent string) (string, error) {
	if strings.TrimSpace(htmlContent) == "" {
		return "", nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	selected := htmlContent
	for _, selector := range contentSelectors {
		node := doc.Find(selector).First()
		if node.Length() == 0 {
			continue
		}
		if inner, err := node.Html(); err == nil {
			selected = inner
			if logger != nil {
				logger.WithField("selector", selector).Debug("Selected documentation content")
			}
			break
		}
	}

	markdown, err := e.converter.ConvertString(selected)
	if err != nil {
		return "", fmt.Errorf("failed to convert HTML to markdown: %w", err)
	}

	cleaned := cleanMarkdown(markdown)

	if logger != nil {
		logger.WithFields(logrus.Fields{
			"original_length": len(htmlContent),
			"markdown_length": len(cleaned),
		}).Debug("Documentation converted to markdown")
	}

	return cleaned, nil
}

// cleanMarkdown trims trailing space and collapses runs of blank lines
// outside fenced code blocks
func cleanMarkdown(markdown string) string {
	lines := strings.Split(markdown, "\n")
	cleaned := make([]string, 0, len(lines))

	var inCodeBlock bool
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "```") {
			inCodeBlock = !inCodeBlock
			cleaned = append(cleaned, strings.TrimRight(line, " \t"))
			continue
		}
		if inCodeBlock {
			cleaned = append(cleaned, line)
			continue
		}

		if trimmed == "" {
			if len(cleaned) > 0 && cleaned[len(cleaned)-1] != "" {
				cleaned = append(cleaned, "")
			}
			continue
		}

		cleaned = append(cleaned, strings.TrimRight(line, " \t"))
	}

	return strings.TrimSpace(strings.Join(cleaned, "\n"))
}
