package webhook

import (
	"fmt"
	"mime"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/microcosm-cc/bluemonday"
)

// htmlRenderer turns HTML replies into markdown the chat can display.
// Sanitizing runs first so scripts and event handlers never reach the
// converter. Safe for concurrent use.
type htmlRenderer struct {
	policy    *bluemonday.Policy
	converter *md.Converter
}

func newHTMLRenderer() *htmlRenderer {
	return &htmlRenderer{
		policy:    bluemonday.UGCPolicy(),
		converter: md.NewConverter("", true, nil),
	}
}

// Render sanitizes html and converts it to markdown
func (r *htmlRenderer) Render(html string) (string, error) {
	sanitized := r.policy.Sanitize(html)

	markdown, err := r.converter.ConvertString(sanitized)
	if err != nil {
		return "", fmt.Errorf("convert html reply: %w", err)
	}
	return strings.TrimSpace(markdown), nil
}

// isHTML reports whether a Content-Type header names an HTML document
func isHTML(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "text/html" || mediaType == "application/xhtml+xml"
}
