package pdf

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const lineHeight = 5.0

// Basic lays out the text and tables of an HTML document with gofpdf. It
// needs no browser, at the cost of ignoring CSS and images.
type Basic struct{}

func NewBasic() *Basic {
	return &Basic{}
}

func (b *Basic) Convert(ctx context.Context, src string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	root, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("parsing html: %w", err)
	}

	var e extractor
	e.walk(root)
	e.flush(false)

	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetMargins(15, 15, 15)
	doc.AddPage()

	w := writer{doc: doc, tr: doc.UnicodeTranslatorFromDescriptor("")}
	for _, blk := range e.blocks {
		w.block(blk)
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("writing pdf: %w", err)
	}

	return buf.Bytes(), nil
}

type block struct {
	heading bool
	text    string
	rows    [][]cell
}

type cell struct {
	text   string
	header bool
}

type extractor struct {
	blocks []block
	buf    strings.Builder
}

func (e *extractor) walk(n *html.Node) {
	if n.Type == html.ElementNode {
		switch n.DataAtom {
		case atom.Head, atom.Style, atom.Script, atom.Title, atom.Img:
			return
		case atom.Table:
			e.flush(false)
			e.blocks = append(e.blocks, block{rows: tableRows(n)})

			return
		case atom.Br:
			e.buf.WriteString("\n")
			return
		}
	}

	if n.Type == html.TextNode {
		appendText(&e.buf, n.Data)
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		e.walk(c)
	}

	if n.Type == html.ElementNode && isBlock(n.DataAtom) {
		e.flush(isHeading(n.DataAtom))
	}
}

func (e *extractor) flush(heading bool) {
	text := strings.TrimSpace(e.buf.String())
	e.buf.Reset()

	if text == "" {
		return
	}

	e.blocks = append(e.blocks, block{heading: heading, text: text})
}

func tableRows(table *html.Node) [][]cell {
	var rows [][]cell

	var visit func(n *html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Tr {
			var row []cell

			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type != html.ElementNode || (c.DataAtom != atom.Td && c.DataAtom != atom.Th) {
					continue
				}

				var sb strings.Builder
				textContent(&sb, c)
				row = append(row, cell{text: strings.TrimSpace(sb.String()), header: c.DataAtom == atom.Th})
			}

			if len(row) > 0 {
				rows = append(rows, row)
			}

			return
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(table)

	return rows
}

func textContent(sb *strings.Builder, n *html.Node) {
	switch {
	case n.Type == html.TextNode:
		appendText(sb, n.Data)
	case n.Type == html.ElementNode && n.DataAtom == atom.Br:
		sb.WriteString("\n")
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		textContent(sb, c)
	}
}

// appendText collapses runs of whitespace the way a browser would.
func appendText(sb *strings.Builder, s string) {
	text := strings.Join(strings.Fields(s), " ")
	if text == "" {
		return
	}

	if cur := sb.String(); cur != "" && !strings.HasSuffix(cur, "\n") && !strings.HasSuffix(cur, " ") {
		sb.WriteString(" ")
	}

	sb.WriteString(text)
}

func isBlock(a atom.Atom) bool {
	switch a {
	case atom.P, atom.Div, atom.H1, atom.H2, atom.H3, atom.H4, atom.Li, atom.Section, atom.Header, atom.Footer:
		return true
	}

	return false
}

func isHeading(a atom.Atom) bool {
	return a == atom.H1 || a == atom.H2 || a == atom.H3 || a == atom.H4
}

type writer struct {
	doc *gofpdf.Fpdf
	tr  func(string) string
}

// text maps the string into the core font's code page. The rupee sign has no
// cp1252 glyph.
func (w writer) text(s string) string {
	return w.tr(strings.ReplaceAll(s, "₹", "Rs."))
}

func (w writer) block(b block) {
	switch {
	case b.rows != nil:
		w.table(b.rows)
	case b.heading:
		w.doc.SetFont("Helvetica", "B", 13)
		w.doc.MultiCell(0, lineHeight+2, w.text(b.text), "", "L", false)
	default:
		w.doc.SetFont("Helvetica", "", 10)
		w.doc.MultiCell(0, lineHeight, w.text(b.text), "", "L", false)
	}

	w.doc.Ln(2)
}

func (w writer) table(rows [][]cell) {
	cols := 0
	for _, r := range rows {
		cols = max(cols, len(r))
	}

	pageW, pageH := w.doc.GetPageSize()
	left, _, right, bottom := w.doc.GetMargins()
	colW := (pageW - left - right) / float64(cols)

	for _, r := range rows {
		height := w.rowHeight(r, colW)

		if w.doc.GetY()+height > pageH-bottom {
			w.doc.AddPage()
		}

		x0, y0 := left, w.doc.GetY()

		for i, c := range r {
			style := ""
			if c.header {
				style = "B"
			}

			w.doc.SetFont("Helvetica", style, 9)

			x := x0 + float64(i)*colW
			w.doc.Rect(x, y0, colW, height, "D")
			w.doc.SetXY(x+1, y0+1)
			w.doc.MultiCell(colW-2, lineHeight, w.text(c.text), "", align(c), false)
		}

		w.doc.SetXY(x0, y0+height)
	}
}

func (w writer) rowHeight(r []cell, colW float64) float64 {
	lines := 1

	for _, c := range r {
		w.doc.SetFont("Helvetica", "", 9)
		lines = max(lines, len(w.doc.SplitLines([]byte(w.text(c.text)), colW-2)))
	}

	return float64(lines)*lineHeight + 2
}

func align(c cell) string {
	if strings.HasPrefix(c.text, "₹") {
		return "R"
	}

	return "L"
}
