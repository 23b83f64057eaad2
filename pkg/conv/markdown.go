package conv

import (
	"regexp"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/inbucket/html2text"
	"github.com/microcosm-cc/bluemonday"
)

var (
	extensions = parser.CommonExtensions | parser.NoEmptyLineBeforeBlock
	htmlFlags  = html.CommonFlags | html.HrefTargetBlank
	tgPolicy   = bluemonday.NewPolicy()

	// <PERSON>, <US_SSN> and friends pass through the renderer as raw inline
	// HTML. Generated tags are always lower case.
	placeholderRe = regexp.MustCompile(`<([A-Z][A-Z_]*)>`)
)

func init() {
	// Allowed tags https://core.telegram.org/bots/api#html-style
	tgPolicy.AllowElements("b", "strong", "i", "em", "u", "ins", "s", "strike", "del", "code", "pre", "blockquote")
	tgPolicy.AllowAttrs("href").OnElements("a")
	tgPolicy.AllowAttrs("class").OnElements("code")
}

func escapePlaceholders(rendered []byte) []byte {
	return placeholderRe.ReplaceAll(rendered, []byte("&lt;$1&gt;"))
}

func renderHTML(md []byte, flags html.Flags) []byte {
	p := parser.NewWithExtensions(extensions)
	renderer := html.NewRenderer(html.RendererOptions{Flags: flags})
	return escapePlaceholders(markdown.Render(p.Parse(md), renderer))
}

func MarkdownToTelegramHTML(md []byte) string {
	unsafeHTML := renderHTML(md, htmlFlags)
	return string(tgPolicy.SanitizeBytes(unsafeHTML))
}

// MarkdownToText renders Markdown as plain text for terminals.
func MarkdownToText(md []byte) string {
	rendered := renderHTML(md, html.CommonFlags)

	text, err := html2text.FromString(string(rendered), html2text.Options{
		OmitLinks:    false,
		PrettyTables: true,
	})
	if err != nil {
		return string(md)
	}
	return strings.TrimSpace(text)
}
