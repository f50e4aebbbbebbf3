package dom

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// Dump prints the subtree one node per line, indented by depth. Used for
// debug reports.
func (d *Document) Dump(id NodeID) string {
	var sb strings.Builder
	d.dump(&sb, id, 0)
	return sb.String()
}

func (d *Document) dump(sb *strings.Builder, id NodeID, depth int) {
	n := d.Node(id)
	if n == nil {
		return
	}
	for range depth {
		sb.WriteString("  ")
	}
	switch n.Type {
	case html.ElementNode:
		sb.WriteString(d.SegmentOf(id).String())
		for _, a := range n.Attr {
			if a.Key == "id" || a.Key == "class" {
				continue
			}
			fmt.Fprintf(sb, " %s=%s", a.Key, quote(a.Val))
		}
	case html.TextNode:
		sb.WriteString("text: ")
		sb.WriteString(quote(n.Data))
	case html.CommentNode:
		sb.WriteString("comment: ")
		sb.WriteString(quote(n.Data))
	case html.DocumentNode:
		sb.WriteString("#document")
	case html.DoctypeNode:
		sb.WriteString("doctype: ")
		sb.WriteString(n.Data)
	}
	sb.WriteByte('\n')
	for _, c := range n.Children {
		d.dump(sb, c, depth+1)
	}
}

func quote(raw string) string {
	if raw == "" {
		return `""`
	}
	return strconv.Quote(raw)
}
