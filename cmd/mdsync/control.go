package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"mdsync/common"
	"mdsync/document"
	"mdsync/viewsync"
)

const controlHelp = `    select PATH [PROPERTY=VALUE...]   pick element, optionally with its computed styles
    set PROPERTY VALUE                edit style of picked element
    color PROPERTY VALUE              edit colour of picked element
    apply                             write edited style into stylesheet
    cancel                            discard edited style
    selection on|off                  toggle selection mode
    id PATH ID|- [CLASS...]           replace id and classes of element
    activate markdown|html|css        switch active representation
    scroll editor|preview FRACTION    report scroll position (0..1)
    status                            print session state

PATH with spaces must be quoted, e.g. "div#main > p.note".`

// picker resolves element clicks in preview.
type picker interface {
	Select(path string, computed map[string]string, marker string) (viewsync.Selection, error)
}

// controller executes text commands against coordinator.
type controller struct {
	coord  *document.Coordinator
	picker picker
	out    io.Writer
}

func (c *controller) exec(line string) error {
	args, err := splitCommand(line)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return nil
	}
	cmd, args := strings.ToLower(args[0]), args[1:]

	switch cmd {
	case "select":
		if len(args) == 0 {
			return errors.New("select requires PATH")
		}
		computed := make(map[string]string)
		for _, a := range args[1:] {
			k, v, ok := strings.Cut(a, "=")
			if !ok {
				return fmt.Errorf("computed style %q must be PROPERTY=VALUE", a)
			}
			computed[strings.ToLower(strings.TrimSpace(k))] = strings.TrimSpace(v)
		}
		sel, err := c.picker.Select(args[0], computed, c.coord.SelectionMarker())
		if err != nil {
			return err
		}
		if err := c.coord.ElementClicked(sel); err != nil {
			return err
		}
		fmt.Fprintf(c.out, "selected %s\n", sel.Selector())

	case "set", "color":
		if len(args) < 2 {
			return fmt.Errorf("%s requires PROPERTY and VALUE", cmd)
		}
		value := strings.Join(args[1:], " ")
		if cmd == "color" {
			return c.coord.EditColor(args[0], value)
		}
		return c.coord.EditStyle(args[0], value)

	case "apply":
		return c.coord.ApplyStyle()

	case "cancel":
		c.coord.CancelStyle()

	case "selection":
		if len(args) != 1 {
			return errors.New("selection requires on or off")
		}
		switch strings.ToLower(args[0]) {
		case "on":
			c.coord.SetSelectionMode(true)
		case "off":
			c.coord.SetSelectionMode(false)
		default:
			return fmt.Errorf("unexpected selection mode %q", args[0])
		}

	case "id":
		if len(args) < 2 {
			return errors.New("id requires PATH and ID")
		}
		id := args[1]
		if id == "-" {
			id = ""
		}
		return c.coord.UpdateElement(args[0], id, strings.Join(args[2:], " "))

	case "activate":
		if len(args) != 1 {
			return errors.New("activate requires MODE")
		}
		mode, err := common.ParseMode(args[0])
		if err != nil {
			return err
		}
		c.coord.Activate(mode)

	case "scroll":
		if len(args) != 2 {
			return errors.New("scroll requires PANE and FRACTION")
		}
		p, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("bad scroll fraction: %w", err)
		}
		switch strings.ToLower(args[0]) {
		case "editor":
			c.coord.EditorScrolled(p)
		case "preview":
			c.coord.PreviewScrolled(p)
		default:
			return fmt.Errorf("unknown pane %q", args[0])
		}

	case "status":
		c.status()

	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
	return nil
}

func (c *controller) status() {
	fmt.Fprintf(c.out, "active: %s\n", c.coord.Active())
	for _, m := range common.ModeValues() {
		r := c.coord.Representation(m)
		fmt.Fprintf(c.out, "%s: revision %d, %d bytes\n", m, r.Revision, len(r.Text))
	}
	fmt.Fprintf(c.out, "selection mode: %t\n", c.coord.SelectionMode())
	if s := c.coord.StyleSession(); s != nil {
		fmt.Fprintf(c.out, "editing: %s\n", s.Selector())
		if o := s.Overlay(); o != "" {
			fmt.Fprintln(c.out, o)
		}
	}
}

// splitCommand splits line on white space, double quotes group words.
func splitCommand(line string) ([]string, error) {
	var (
		args   []string
		cur    strings.Builder
		quoted bool
		have   bool
	)
	for _, r := range line {
		switch {
		case r == '"':
			quoted = !quoted
			have = true
		case !quoted && (r == ' ' || r == '\t'):
			if have {
				args = append(args, cur.String())
				cur.Reset()
				have = false
			}
		default:
			cur.WriteRune(r)
			have = true
		}
	}
	if quoted {
		return nil, errors.New("unterminated quote")
	}
	if have {
		args = append(args, cur.String())
	}
	return args, nil
}
