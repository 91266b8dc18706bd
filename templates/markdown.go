package templates

import (
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	g "github.com/maragudk/gomponents"
	"github.com/microcosm-cc/bluemonday"
)

var richText = bluemonday.UGCPolicy()

// Markdown renders news content. Raw HTML in the source is skipped, since
// the content comes from a form.
func Markdown(source string) g.Node {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	doc := p.Parse([]byte(source))

	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.HrefTargetBlank | html.SkipHTML,
	})

	return g.Raw(string(markdown.Render(doc, renderer)))
}

// RichText renders stored HTML such as event descriptions with scripts,
// event handlers and unsafe URLs removed.
func RichText(source string) g.Node {
	return g.Raw(richText.Sanitize(source))
}
