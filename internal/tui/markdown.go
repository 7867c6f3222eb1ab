package tui

import (
	"sync"

	"github.com/charmbracelet/glamour"
)

//nolint:gochecknoglobals // cached renderer for performance
var (
	markdownRenderer     *glamour.TermRenderer
	markdownRendererOnce sync.Once
)

// getMarkdownRenderer returns a cached glamour renderer for markdown rendering.
// Returns nil if the renderer could not be created; callers fall back to raw text.
func getMarkdownRenderer() *glamour.TermRenderer {
	markdownRendererOnce.Do(func() {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(100),
		)
		if err == nil {
			markdownRenderer = r
		}
	})
	return markdownRenderer
}

// RenderMarkdown renders markdown text for terminal display. When rendering is
// unavailable (no terminal styling, or renderer creation failed) the raw text
// is returned unchanged.
func RenderMarkdown(text string) string {
	if !HasColorSupport() {
		return text
	}
	r := getMarkdownRenderer()
	if r == nil {
		return text
	}
	rendered, err := r.Render(text)
	if err != nil {
		return text
	}
	return rendered
}
