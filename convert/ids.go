package convert

import (
	"strconv"

	"github.com/gosimple/slug"

	"mdsync/dom"
)

// assignHeadingIDs gives every heading without id a slug of its text,
// collisions get numeric suffix.
func assignHeadingIDs(d *dom.Document) {
	used := make(map[string]bool)
	var headings []dom.NodeID
	d.Walk(d.Body(), func(id dom.NodeID) bool {
		if v := d.ID(id); v != "" {
			used[v] = true
		}
		if d.IsElement(id, "h1", "h2", "h3", "h4", "h5", "h6") {
			headings = append(headings, id)
		}
		return true
	})

	for _, h := range headings {
		if d.ID(h) != "" {
			continue
		}
		base := slug.Make(d.TextContent(h))
		if base == "" {
			continue
		}
		id := base
		for n := 1; used[id]; n++ {
			id = base + "-" + strconv.Itoa(n)
		}
		used[id] = true
		d.SetAttr(h, "id", id)
	}
}
