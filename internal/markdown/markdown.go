// Package markdown renders untrusted comment text to sanitized HTML.
package markdown

import (
	"bytes"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

type Renderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

func New() *Renderer {
	policy := bluemonday.UGCPolicy()
	// Comments must never pass link equity to spam targets.
	policy.RequireNoFollowOnLinks(true)
	policy.RequireNoReferrerOnLinks(true)

	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(
				html.WithHardWraps(),
			),
		),
		policy: policy,
	}
}

// Render converts markdown to HTML and strips anything script-bearing.
// Pure function of its input; safe for concurrent use.
func (r *Renderer) Render(raw string) string {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(raw), &buf); err != nil {
		// Conversion failures still must not leak raw input as HTML.
		return r.policy.Sanitize(raw)
	}
	return r.policy.Sanitize(buf.String())
}
