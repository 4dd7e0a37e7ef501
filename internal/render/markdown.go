// Package render turns Markdown into sanitized HTML and hands HTML to an
// external PDF renderer.
package render

import (
	"bytes"
	"fmt"
	"html"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var (
	markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))
	policy   = bluemonday.UGCPolicy()
)

const documentTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%s</title>
<style>
body { font-family: -apple-system, "Segoe UI", Helvetica, Arial, sans-serif; line-height: 1.5; margin: 2em; }
pre, code { font-family: Menlo, Consolas, monospace; background: #f5f5f5; }
pre { padding: 0.75em; overflow-x: auto; }
table { border-collapse: collapse; }
td, th { border: 1px solid #ccc; padding: 0.25em 0.5em; }
</style>
</head>
<body>
%s
</body>
</html>
`

// MarkdownToHTML renders src as a standalone HTML document. The rendered body
// is passed through a UGC sanitization policy before it is wrapped.
func MarkdownToHTML(src []byte, title string) ([]byte, error) {
	var body bytes.Buffer
	if err := markdown.Convert(src, &body); err != nil {
		return nil, fmt.Errorf("failed to render markdown: %w", err)
	}

	clean := policy.SanitizeBytes(body.Bytes())
	return []byte(fmt.Sprintf(documentTemplate, html.EscapeString(title), clean)), nil
}
