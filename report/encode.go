package report

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/goccy/go-json"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Format names an output encoding of a report
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatHTML Format = "html"
)

// ParseFormat accepts text, json and html
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatText, FormatJSON, FormatHTML:
		return f, nil
	case "":
		return FormatText, nil
	}
	return "", fmt.Errorf("unknown report format %q (want text, json or html)", s)
}

// Write encodes the report in the given format
func (r *Report) Write(w io.Writer, f Format) error {
	switch f {
	case FormatJSON:
		return r.WriteJSON(w)
	case FormatHTML:
		return r.WriteHTML(w)
	default:
		return r.WriteText(w)
	}
}

// WriteJSON writes the report as indented JSON
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}

// WriteText writes one line per page followed by one indented line per
// block
func (r *Report) WriteText(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, p := range r.Pages {
		fmt.Fprintf(bw, "Page %d (%s x %s pt): %d text, %d image, %d other\n",
			p.Number, num(p.Width), num(p.Height), p.Text, p.Images, p.Other)
		for _, b := range p.Blocks {
			fmt.Fprintf(bw, "  %-5s [%s %s %s %s]", b.Kind, num(b.BBox[0]), num(b.BBox[1]), num(b.BBox[2]), num(b.BBox[3]))
			switch {
			case b.Text != "":
				fmt.Fprintf(bw, " %q", b.Text)
			case b.Name != "" || b.Fingerprint != "":
				fmt.Fprintf(bw, " %s %dx%d %s", b.Name, b.Width, b.Height, short(b.Fingerprint))
			}
			bw.WriteByte('\n')
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// WriteHTML renders a standalone HTML page with one table per page
func (r *Report) WriteHTML(w io.Writer) error {
	title := "Block report"
	if r.Path != "" {
		title += ": " + r.Path
	}

	body := element(atom.Body)
	body.AppendChild(textElement(atom.H1, title))
	for _, p := range r.Pages {
		body.AppendChild(textElement(atom.H2, fmt.Sprintf("Page %d (%s x %s pt)", p.Number, num(p.Width), num(p.Height))))
		if len(p.Blocks) == 0 {
			body.AppendChild(textElement(atom.P, "No content blocks."))
			continue
		}
		table := element(atom.Table)
		table.AppendChild(row(atom.Th, "Kind", "Left", "Bottom", "Right", "Top", "Content"))
		for _, b := range p.Blocks {
			content := b.Text
			if b.Kind == "image" {
				content = fmt.Sprintf("%s %dx%d %s", b.Name, b.Width, b.Height, short(b.Fingerprint))
			}
			tr := row(atom.Td, b.Kind, num(b.BBox[0]), num(b.BBox[1]), num(b.BBox[2]), num(b.BBox[3]), content)
			tr.Attr = append(tr.Attr, html.Attribute{Key: "class", Val: b.Kind})
			table.AppendChild(tr)
		}
		body.AppendChild(table)
	}

	head := element(atom.Head)
	meta := element(atom.Meta)
	meta.Attr = []html.Attribute{{Key: "charset", Val: "utf-8"}}
	head.AppendChild(meta)
	head.AppendChild(textElement(atom.Title, title))

	root := element(atom.Html)
	root.AppendChild(head)
	root.AppendChild(body)

	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})
	doc.AppendChild(root)
	if err := html.Render(w, doc); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	return nil
}

func element(a atom.Atom) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
}

func textElement(a atom.Atom, text string) *html.Node {
	n := element(a)
	n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	return n
}

func row(cell atom.Atom, values ...string) *html.Node {
	tr := element(atom.Tr)
	for _, v := range values {
		tr.AppendChild(textElement(cell, v))
	}
	return tr
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// short abbreviates a fingerprint for display
func short(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}
