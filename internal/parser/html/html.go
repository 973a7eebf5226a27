package html

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Parser represents an HTML parser for page content
type Parser struct {
	// Context is the element fragments are parsed inside of
	Context atom.Atom
}

// Node represents an HTML node in the document tree
type Node struct {
	Type        html.NodeType
	Data        string
	Attr        []html.Attribute
	Parent      *Node
	FirstChild  *Node
	LastChild   *Node
	PrevSibling *Node
	NextSibling *Node
}

// Document represents parsed page content
type Document struct {
	Root *Node
}

// NewParser creates a new HTML parser that parses fragments inside a div
func NewParser() *Parser {
	return &Parser{Context: atom.Div}
}

// ParseString parses a full HTML document from a string
func (p *Parser) ParseString(content string) (*Document, error) {
	return p.Parse(strings.NewReader(content))
}

// Parse parses a full HTML document from an io.Reader
func (p *Parser) Parse(r io.Reader) (*Document, error) {
	node, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	root := convertNode(node, nil)
	return &Document{Root: root}, nil
}

// ParseFragment parses page content as the children of a synthetic
// container element. The returned root is that container.
func (p *Parser) ParseFragment(content string) (*Document, error) {
	ctxAtom := p.Context
	if ctxAtom == 0 {
		ctxAtom = atom.Div
	}
	context := &html.Node{Type: html.ElementNode, Data: ctxAtom.String(), DataAtom: ctxAtom}

	nodes, err := html.ParseFragment(strings.NewReader(content), context)
	if err != nil {
		return nil, fmt.Errorf("failed to parse fragment: %w", err)
	}

	root := &Node{Type: html.ElementNode, Data: ctxAtom.String()}
	var last *Node
	for _, n := range nodes {
		child := convertNode(n, root)
		if root.FirstChild == nil {
			root.FirstChild = child
		}
		if last != nil {
			last.NextSibling = child
			child.PrevSibling = last
		}
		last = child
	}
	root.LastChild = last
	return &Document{Root: root}, nil
}

// convertNode converts an html.Node to our Node structure
func convertNode(n *html.Node, parent *Node) *Node {
	if n == nil {
		return nil
	}

	node := &Node{
		Type:   n.Type,
		Data:   n.Data,
		Attr:   n.Attr,
		Parent: parent,
	}

	var lastChild *Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		child := convertNode(c, node)
		if node.FirstChild == nil {
			node.FirstChild = child
		}
		if lastChild != nil {
			lastChild.NextSibling = child
			child.PrevSibling = lastChild
		}
		lastChild = child
	}
	node.LastChild = lastChild

	return node
}

// GetAttr returns the value of an attribute, or "" when absent
func (n *Node) GetAttr(key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// Text returns the concatenated text of the node and its descendants
func (n *Node) Text() string {
	var b strings.Builder
	collectText(&b, n)
	return b.String()
}

func collectText(b *strings.Builder, n *Node) {
	if n == nil {
		return
	}
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(b, c)
	}
}

// Render renders the document back to HTML
func (d *Document) Render() (string, error) {
	var buf bytes.Buffer
	for c := d.Root.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, toHTMLNode(c)); err != nil {
			return "", fmt.Errorf("failed to render HTML: %w", err)
		}
	}
	return buf.String(), nil
}

// toHTMLNode rebuilds an html.Node subtree for rendering
func toHTMLNode(n *Node) *html.Node {
	node := &html.Node{
		Type: n.Type,
		Data: n.Data,
		Attr: n.Attr,
	}
	if n.Type == html.ElementNode {
		node.DataAtom = atom.Lookup([]byte(n.Data))
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		node.AppendChild(toHTMLNode(c))
	}
	return node
}
