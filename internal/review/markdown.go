package review

import (
	"fmt"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/microcosm-cc/bluemonday"
)

// htmlTag matches an opening or closing element, e.g. <p> or </h2>.
var htmlTag = regexp.MustCompile(`</?[a-zA-Z][a-zA-Z0-9]*(\s[^<>]*)?/?>`)

// ContentConverter turns Backlog document bodies into Markdown for prompts.
// Classic documents are already Markdown and pass through untouched;
// Document (Beta) bodies are HTML and get sanitized, then converted.
//
// Safe for concurrent use.
type ContentConverter struct {
	policy    *bluemonday.Policy
	converter *md.Converter
}

func NewContentConverter() *ContentConverter {
	return &ContentConverter{
		policy:    bluemonday.UGCPolicy(),
		converter: md.NewConverter("", true, nil),
	}
}

func (c *ContentConverter) ToMarkdown(content string) (string, error) {
	if !htmlTag.MatchString(content) {
		return strings.TrimSpace(content), nil
	}

	sanitized := c.policy.Sanitize(content)

	markdown, err := c.converter.ConvertString(sanitized)
	if err != nil {
		return "", fmt.Errorf("converting html to markdown: %w", err)
	}

	return strings.TrimSpace(markdown), nil
}
