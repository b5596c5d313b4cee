package report

import (
	"bytes"
	"fmt"
	stdhtml "html"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// HTMLRenderer converts the Markdown report to a standalone HTML page.
type HTMLRenderer struct {
	markdown goldmark.Markdown
}

// NewHTMLRenderer enables GFM tables. Raw HTML in answers is escaped
// because goldmark's unsafe mode stays off.
func NewHTMLRenderer() *HTMLRenderer {
	return &HTMLRenderer{
		markdown: goldmark.New(goldmark.WithExtensions(extension.Table)),
	}
}

// Render writes r as HTML with a contents list built from its headings.
func (h *HTMLRenderer) Render(w io.Writer, r *Report) error {
	var md bytes.Buffer
	if err := RenderMarkdown(&md, r); err != nil {
		return err
	}
	source := md.Bytes()

	doc := h.markdown.Parser().Parse(text.NewReader(source))
	headings, err := Outline(doc, source)
	if err != nil {
		return fmt.Errorf("failed to outline report: %w", err)
	}

	var body bytes.Buffer
	if err := h.markdown.Renderer().Render(&body, source, doc); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}

	var page strings.Builder
	page.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&page, "<title>%s</title>\n", stdhtml.EscapeString(r.Title))
	page.WriteString("<style>body{font-family:sans-serif;max-width:60em;margin:2em auto}table{border-collapse:collapse}td,th{border:1px solid #ccc;padding:.3em .6em}</style>\n")
	page.WriteString("</head>\n<body>\n")
	if len(headings) > 0 {
		page.WriteString("<nav>\n<ul>\n")
		for _, hd := range headings {
			fmt.Fprintf(&page, "<li>%s</li>\n", stdhtml.EscapeString(hd))
		}
		page.WriteString("</ul>\n</nav>\n")
	}
	page.Write(body.Bytes())
	page.WriteString("</body>\n</html>\n")

	_, err = io.WriteString(w, page.String())
	return err
}

// Outline returns the text of every level-2 heading in doc.
func Outline(doc ast.Node, source []byte) ([]string, error) {
	var headings []string
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		heading, ok := n.(*ast.Heading)
		if !ok || heading.Level != 2 {
			return ast.WalkContinue, nil
		}
		headings = append(headings, headingText(heading, source))
		return ast.WalkSkipChildren, nil
	})
	return headings, err
}

func headingText(n ast.Node, source []byte) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if t, ok := c.(*ast.Text); ok && entering {
			sb.Write(t.Segment.Value(source))
		}
		return ast.WalkContinue, nil
	})
	return sb.String()
}
