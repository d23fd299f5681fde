// Package htmlsrc extracts stylesheets and class references from HTML
// documents and rewrites class attributes with generated names.
package htmlsrc

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Document is a parsed HTML document.
type Document struct {
	root *html.Node
}

// Parse reads HTML document.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("unable to parse html: %w", err)
	}
	return &Document{root: root}, nil
}

// walk visits every node in document order.
func walk(n *html.Node, fn func(*html.Node)) {
	fn(n)
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		walk(ch, fn)
	}
}

func findElement(a atom.Atom, n *html.Node) *html.Node {
	if n == nil {
		return nil
	}
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		if r := findElement(a, ch); r != nil {
			return r
		}
	}
	return nil
}

func (d *Document) styleElements() []*html.Node {
	var out []*html.Node
	walk(d.root, func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Style {
			out = append(out, n)
		}
	})
	return out
}

// Styles returns content of every <style> element in document order.
func (d *Document) Styles() []string {
	var out []string
	for _, n := range d.styleElements() {
		var sb strings.Builder
		for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
			if ch.Type == html.TextNode {
				sb.WriteString(ch.Data)
			}
		}
		out = append(out, sb.String())
	}
	return out
}

// RemoveStyles drops every <style> element.
func (d *Document) RemoveStyles() {
	for _, n := range d.styleElements() {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
	}
}

// InjectStyle appends <style> element with content to <head>.
func (d *Document) InjectStyle(content string) {
	head := findElement(atom.Head, d.root)
	if head == nil {
		// html.Parse always synthesizes head, so only fragments get here
		head = d.root
	}
	style := &html.Node{Type: html.ElementNode, Data: "style", DataAtom: atom.Style}
	style.AppendChild(&html.Node{Type: html.TextNode, Data: content})
	head.AppendChild(style)
}

func classAttr(n *html.Node) (int, bool) {
	if n.Type != html.ElementNode {
		return 0, false
	}
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == "class" {
			return i, true
		}
	}
	return 0, false
}

// Classes returns class names referenced by class attributes, first-seen
// order, without duplicates.
func (d *Document) Classes() []string {
	var (
		out  []string
		seen = make(map[string]bool)
	)
	walk(d.root, func(n *html.Node) {
		i, ok := classAttr(n)
		if !ok {
			return
		}
		for _, c := range strings.Fields(n.Attr[i].Val) {
			if !seen[c] {
				seen[c] = true
				out = append(out, c)
			}
		}
	})
	return out
}

// RewriteClasses replaces every class attribute value with the result of
// resolve. Empty results remove the attribute.
func (d *Document) RewriteClasses(resolve func(classes string) string) {
	walk(d.root, func(n *html.Node) {
		i, ok := classAttr(n)
		if !ok {
			return
		}
		v := resolve(n.Attr[i].Val)
		if v == "" {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			return
		}
		n.Attr[i].Val = v
	})
}

// Render writes document back as HTML.
func (d *Document) Render(w io.Writer) error {
	return html.Render(w, d.root)
}
