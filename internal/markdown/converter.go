// Package markdown turns Markdown documents into the HTML subset understood by
// the Telegram Bot API and splits long documents into sendable parts.
//
// Telegram has no tables, headings or lists, so those are rendered with bold
// text, bullet characters and preformatted blocks. All text content is escaped.
package markdown

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// ErrEmptyMarkdown is returned for blank input
var ErrEmptyMarkdown = errors.New("markdown content is empty")

// HorizontalRule is what a thematic break (---) renders as
const HorizontalRule = "——————"

var gm = goldmark.New(goldmark.WithExtensions(extension.Table, extension.Strikethrough))

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
)

// EscapeHTML escapes the characters Telegram's HTML parser treats specially
func EscapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}

// ToTelegramHTML converts a Markdown document to Telegram HTML.
// Top-level blocks are separated by a blank line.
func ToTelegramHTML(src string) (string, error) {
	if strings.TrimSpace(src) == "" {
		return "", ErrEmptyMarkdown
	}

	source := []byte(src)
	doc := gm.Parser().Parse(text.NewReader(source))
	r := &renderer{source: source}

	var blocks []string
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if s := r.block(n, 0); s != "" {
			blocks = append(blocks, s)
		}
	}

	return strings.TrimSpace(strings.Join(blocks, "\n\n")), nil
}

type renderer struct {
	source []byte
}

func (r *renderer) block(n ast.Node, depth int) string {
	switch n := n.(type) {
	case *ast.Heading:
		title := EscapeHTML(strings.TrimSpace(r.plain(n)))
		switch n.Level {
		case 1:
			return "<b>📌 " + title + "</b>"
		case 2:
			return "<b>" + title + "</b>"
		default:
			return "<b><i>" + title + "</i></b>"
		}
	case *ast.Paragraph, *ast.TextBlock:
		return strings.TrimSpace(r.inlines(n))
	case *ast.List:
		return r.list(n, depth)
	case *ast.FencedCodeBlock:
		code := EscapeHTML(strings.TrimRight(r.lines(n), "\n"))
		if lang := string(n.Language(r.source)); lang != "" {
			return fmt.Sprintf(`<pre><code class="language-%s">%s</code></pre>`, EscapeHTML(lang), code)
		}
		return "<pre>" + code + "</pre>"
	case *ast.CodeBlock:
		return "<pre>" + EscapeHTML(strings.TrimRight(r.lines(n), "\n")) + "</pre>"
	case *ast.Blockquote:
		var parts []string
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			if s := r.block(c, depth); s != "" {
				parts = append(parts, s)
			}
		}
		return "<blockquote>" + strings.Join(parts, "\n") + "</blockquote>"
	case *ast.ThematicBreak:
		return HorizontalRule
	case *ast.HTMLBlock:
		return EscapeHTML(strings.TrimSpace(r.lines(n)))
	case *east.Table:
		return r.table(n)
	}
	return ""
}

func (r *renderer) list(n *ast.List, depth int) string {
	indent := strings.Repeat("  ", depth)
	number := n.Start
	if number == 0 {
		number = 1
	}

	var lines []string
	for item := n.FirstChild(); item != nil; item = item.NextSibling() {
		prefix := "• "
		if n.IsOrdered() {
			prefix = fmt.Sprintf("%d. ", number)
			number++
		}

		var head string
		var rest []string
		for c := item.FirstChild(); c != nil; c = c.NextSibling() {
			if sub, ok := c.(*ast.List); ok {
				rest = append(rest, r.list(sub, depth+1))
				continue
			}
			s := r.block(c, depth+1)
			if s == "" {
				continue
			}
			if head == "" {
				head = s
			} else {
				rest = append(rest, indent+"  "+s)
			}
		}

		lines = append(lines, indent+prefix+head)
		lines = append(lines, rest...)
	}

	return strings.Join(lines, "\n")
}

func (r *renderer) table(n *east.Table) string {
	var rows []string
	for row := n.FirstChild(); row != nil; row = row.NextSibling() {
		var cells []string
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			cells = append(cells, strings.TrimSpace(r.plain(cell)))
		}
		rows = append(rows, "| "+strings.Join(cells, " | ")+" |")
		if _, ok := row.(*east.TableHeader); ok {
			rows = append(rows, "|"+strings.Repeat("---|", len(cells)))
		}
	}
	return "<pre>" + EscapeHTML(strings.Join(rows, "\n")) + "</pre>"
}

func (r *renderer) inlines(n ast.Node) string {
	var sb strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		r.inline(&sb, c)
	}
	return sb.String()
}

func (r *renderer) inline(sb *strings.Builder, n ast.Node) {
	switch n := n.(type) {
	case *ast.Text:
		sb.WriteString(EscapeHTML(r.text(n)))
		if n.SoftLineBreak() || n.HardLineBreak() {
			sb.WriteByte('\n')
		}
	case *ast.String:
		sb.WriteString(EscapeHTML(string(n.Value)))
	case *ast.CodeSpan:
		sb.WriteString("<code>" + EscapeHTML(r.code(n)) + "</code>")
	case *ast.Emphasis:
		tag := "i"
		if n.Level >= 2 {
			tag = "b"
		}
		sb.WriteString("<" + tag + ">" + r.inlines(n) + "</" + tag + ">")
	case *east.Strikethrough:
		sb.WriteString("<s>" + r.inlines(n) + "</s>")
	case *ast.Link:
		fmt.Fprintf(sb, `<a href="%s">%s</a>`, EscapeHTML(string(n.Destination)), r.inlines(n))
	case *ast.Image:
		fmt.Fprintf(sb, `🖼️ <a href="%s">%s</a>`, EscapeHTML(string(n.Destination)), EscapeHTML(r.plain(n)))
	case *ast.AutoLink:
		fmt.Fprintf(sb, `<a href="%s">%s</a>`, EscapeHTML(string(n.URL(r.source))), EscapeHTML(string(n.Label(r.source))))
	case *ast.RawHTML:
		for i := 0; i < n.Segments.Len(); i++ {
			seg := n.Segments.At(i)
			sb.WriteString(EscapeHTML(string(seg.Value(r.source))))
		}
	default:
		sb.WriteString(r.inlines(n))
	}
}

// text returns the literal content of n with backslash escapes removed and
// entity references (&amp;, &copy;, &#169;) decoded
func (r *renderer) text(n *ast.Text) string {
	v := util.UnescapePunctuations(n.Segment.Value(r.source))
	v = util.ResolveNumericReferences(v)
	v = util.ResolveEntityNames(v)
	return string(v)
}

// code returns the verbatim content of a code span
func (r *renderer) code(n *ast.CodeSpan) string {
	var sb strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch c := c.(type) {
		case *ast.Text:
			sb.Write(c.Segment.Value(r.source))
		case *ast.String:
			sb.Write(c.Value)
		}
	}
	return sb.String()
}

// plain collects the text content of n without any markup
func (r *renderer) plain(n ast.Node) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch c := c.(type) {
		case *ast.Text:
			sb.WriteString(r.text(c))
			if c.SoftLineBreak() || c.HardLineBreak() {
				sb.WriteByte(' ')
			}
		case *ast.String:
			sb.Write(c.Value)
		}
		return ast.WalkContinue, nil
	})
	return sb.String()
}

func (r *renderer) lines(n ast.Node) string {
	var sb strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		sb.Write(seg.Value(r.source))
	}
	return sb.String()
}
