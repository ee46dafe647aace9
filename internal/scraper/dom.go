package scraper

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Node is one node of a parsed HTML document. Selectors are CSS selectors.
type Node interface {
	// Select returns every descendant element matching selector, in document order
	Select(selector string) []Node
	// Children returns the child elements matching selector, looking through implicit
	// table sections (tbody, thead, tfoot)
	Children(selector string) []Node
	// Contents returns the child elements and text nodes, in document order
	Contents() []Node
	// NextSibling returns the first following sibling element matching selector
	NextSibling(selector string) (Node, bool)
	// Is reports whether the node is an element matching selector
	Is(selector string) bool
	// IsText reports whether the node is a text node
	IsText() bool
	// Attr returns the value of an attribute
	Attr(name string) (string, bool)
	// Text returns the node's text content with surrounding whitespace trimmed
	Text() string
}

type gqNode struct {
	sel *goquery.Selection
}

func parseHTML(r io.Reader) (Node, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}
	return &gqNode{sel: doc.Selection}, nil
}

func wrap(sel *goquery.Selection) []Node {
	nodes := make([]Node, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		nodes = append(nodes, &gqNode{sel: s})
	})
	return nodes
}

func (n *gqNode) Select(selector string) []Node {
	return wrap(n.sel.Find(selector))
}

func (n *gqNode) Children(selector string) []Node {
	var nodes []Node
	n.sel.Children().Each(func(_ int, c *goquery.Selection) {
		if c.Is(selector) {
			nodes = append(nodes, &gqNode{sel: c})
			return
		}
		switch goquery.NodeName(c) {
		case "tbody", "thead", "tfoot":
			nodes = append(nodes, wrap(c.ChildrenFiltered(selector))...)
		}
	})
	return nodes
}

func (n *gqNode) Contents() []Node {
	return wrap(n.sel.Contents())
}

func (n *gqNode) NextSibling(selector string) (Node, bool) {
	next := n.sel.NextAllFiltered(selector).First()
	if next.Length() == 0 {
		return nil, false
	}
	return &gqNode{sel: next}, true
}

func (n *gqNode) Is(selector string) bool {
	return !n.IsText() && n.sel.Is(selector)
}

func (n *gqNode) IsText() bool {
	return len(n.sel.Nodes) > 0 && n.sel.Nodes[0].Type == html.TextNode
}

func (n *gqNode) Attr(name string) (string, bool) {
	return n.sel.Attr(name)
}

func (n *gqNode) Text() string {
	return strings.TrimSpace(n.sel.Text())
}
