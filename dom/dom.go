// Package dom keeps parsed HTML as an arena of nodes addressed by index, so
// that selector resolution and attribute updates are plain deterministic tree
// walks and never depend on a live browser document.
package dom

import (
	"bytes"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// NodeID addresses a node inside its Document.
type NodeID int

// None is returned when there is no such node (parent of the root, etc.).
const None NodeID = -1

// Node is a single arena entry. For elements Data is the lower-case tag name,
// for text and comment nodes it is the (unescaped) content.
type Node struct {
	Type     html.NodeType
	Data     string
	Attr     []html.Attribute
	Parent   NodeID
	Children []NodeID
}

// Document is an HTML tree stored as an arena with parent/child indices.
type Document struct {
	nodes []Node
	root  NodeID
	body  NodeID
}

// Parse parses HTML text (full document or fragment) into a Document. The
// parser always normalizes input into html/head/body structure, fragment
// content ends up under body.
func Parse(content string) (*Document, error) {
	n, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("unable to parse html: %w", err)
	}
	return FromNode(n), nil
}

// FromNode flattens a golang.org/x/net/html tree into an arena.
func FromNode(n *html.Node) *Document {
	d := &Document{body: None}
	d.root = d.add(n, None)
	if d.body == None {
		// no body at all (should not happen with html.Parse), treat root as body
		d.body = d.root
	}
	return d
}

func (d *Document) add(n *html.Node, parent NodeID) NodeID {
	id := NodeID(len(d.nodes))
	node := Node{
		Type:   n.Type,
		Data:   n.Data,
		Parent: parent,
	}
	if len(n.Attr) > 0 {
		node.Attr = slices.Clone(n.Attr)
	}
	d.nodes = append(d.nodes, node)
	if n.Type == html.ElementNode && n.DataAtom == atom.Body && d.body == None {
		d.body = id
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		child := d.add(c, id)
		d.nodes[id].Children = append(d.nodes[id].Children, child)
	}
	return id
}

// Root returns the document node.
func (d *Document) Root() NodeID {
	return d.root
}

// Body returns the body element, all content lives under it.
func (d *Document) Body() NodeID {
	return d.body
}

// Len returns number of nodes in the arena.
func (d *Document) Len() int {
	return len(d.nodes)
}

// Node returns node by id, nil when id is out of range.
func (d *Document) Node(id NodeID) *Node {
	if id < 0 || int(id) >= len(d.nodes) {
		return nil
	}
	return &d.nodes[id]
}

// Parent returns parent of the node or None.
func (d *Document) Parent(id NodeID) NodeID {
	if n := d.Node(id); n != nil {
		return n.Parent
	}
	return None
}

// IsElement reports whether node is an element, and when tags are given,
// whether its tag is one of them.
func (d *Document) IsElement(id NodeID, tags ...string) bool {
	n := d.Node(id)
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	return len(tags) == 0 || slices.Contains(tags, n.Data)
}

// IsText reports whether node is a text node.
func (d *Document) IsText(id NodeID) bool {
	n := d.Node(id)
	return n != nil && n.Type == html.TextNode
}

// Tag returns element tag name or empty string for non-elements.
func (d *Document) Tag(id NodeID) string {
	if d.IsElement(id) {
		return d.nodes[id].Data
	}
	return ""
}

// Attr returns attribute value.
func (d *Document) Attr(id NodeID, key string) (string, bool) {
	n := d.Node(id)
	if n == nil {
		return "", false
	}
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// SetAttr sets (or adds to the end) attribute value.
func (d *Document) SetAttr(id NodeID, key, val string) {
	n := d.Node(id)
	if n == nil {
		return
	}
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// RemoveAttr removes attribute if present.
func (d *Document) RemoveAttr(id NodeID, key string) {
	n := d.Node(id)
	if n == nil {
		return
	}
	n.Attr = slices.DeleteFunc(n.Attr, func(a html.Attribute) bool {
		return a.Namespace == "" && a.Key == key
	})
}

// ID returns value of the id attribute (trimmed).
func (d *Document) ID(id NodeID) string {
	v, _ := d.Attr(id, "id")
	return strings.TrimSpace(v)
}

// Classes returns class names in attribute order, duplicates removed.
func (d *Document) Classes(id NodeID) []string {
	v, ok := d.Attr(id, "class")
	if !ok {
		return nil
	}
	var classes []string
	for _, c := range strings.Fields(v) {
		if !slices.Contains(classes, c) {
			classes = append(classes, c)
		}
	}
	return classes
}

// HasClass reports whether element carries the class.
func (d *Document) HasClass(id NodeID, class string) bool {
	return slices.Contains(d.Classes(id), class)
}

// SetIdentity replaces id and class attributes of an element. Empty id or
// empty class list removes the corresponding attribute.
func (d *Document) SetIdentity(id NodeID, elemID string, classes []string) {
	if elemID = strings.TrimSpace(elemID); elemID != "" {
		d.SetAttr(id, "id", elemID)
	} else {
		d.RemoveAttr(id, "id")
	}
	if len(classes) > 0 {
		d.SetAttr(id, "class", strings.Join(classes, " "))
	} else {
		d.RemoveAttr(id, "class")
	}
}

// Children returns all child nodes.
func (d *Document) Children(id NodeID) []NodeID {
	if n := d.Node(id); n != nil {
		return n.Children
	}
	return nil
}

// ElementChildren returns child elements only.
func (d *Document) ElementChildren(id NodeID) []NodeID {
	var res []NodeID
	for _, c := range d.Children(id) {
		if d.IsElement(c) {
			res = append(res, c)
		}
	}
	return res
}

// PrevSibling returns previous sibling of the node or None.
func (d *Document) PrevSibling(id NodeID) NodeID {
	siblings := d.Children(d.Parent(id))
	if i := slices.Index(siblings, id); i > 0 {
		return siblings[i-1]
	}
	return None
}

// Walk visits nodes of the subtree in document order. When fn returns false
// children of the node are skipped.
func (d *Document) Walk(id NodeID, fn func(NodeID) bool) {
	if d.Node(id) == nil {
		return
	}
	if !fn(id) {
		return
	}
	for _, c := range d.nodes[id].Children {
		d.Walk(c, fn)
	}
}

// TextContent returns concatenated text of the subtree, like DOM textContent.
func (d *Document) TextContent(id NodeID) string {
	var sb strings.Builder
	d.Walk(id, func(n NodeID) bool {
		if d.nodes[n].Type == html.TextNode {
			sb.WriteString(d.nodes[n].Data)
		}
		return true
	})
	return sb.String()
}

// SetText replaces data of a text node.
func (d *Document) SetText(id NodeID, text string) {
	if d.IsText(id) {
		d.nodes[id].Data = text
	}
}

// Render returns outer HTML of the node.
func (d *Document) Render(id NodeID) (string, error) {
	if d.Node(id) == nil {
		return "", fmt.Errorf("node %d does not exist", id)
	}
	var buf bytes.Buffer
	if err := html.Render(&buf, d.toHTML(id)); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderChildren returns inner HTML of the node.
func (d *Document) RenderChildren(id NodeID) (string, error) {
	var buf bytes.Buffer
	for _, c := range d.Children(id) {
		if err := html.Render(&buf, d.toHTML(c)); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

// BodyHTML returns inner HTML of the body, which is what editors show.
func (d *Document) BodyHTML() (string, error) {
	return d.RenderChildren(d.body)
}

// toHTML rebuilds a detached golang.org/x/net/html subtree for rendering.
func (d *Document) toHTML(id NodeID) *html.Node {
	src := &d.nodes[id]
	n := &html.Node{
		Type: src.Type,
		Data: src.Data,
	}
	if src.Type == html.ElementNode {
		n.DataAtom = atom.Lookup([]byte(src.Data))
	}
	if len(src.Attr) > 0 {
		n.Attr = slices.Clone(src.Attr)
	}
	for _, c := range src.Children {
		n.AppendChild(d.toHTML(c))
	}
	return n
}
