package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"mdsync/common"
	"mdsync/dom"
	"mdsync/preview"
	"mdsync/state"
)

func runExport(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("export")

	src, dst := cmd.Args().Get(0), cmd.Args().Get(1)
	if len(src) == 0 || len(dst) == 0 {
		return errors.New("both SOURCE and DESTINATION are required")
	}
	env.Overwrite = cmd.Bool("overwrite")

	mode, err := modeOf(src)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("unable to read source: %w", err)
	}

	body := string(data)
	switch mode {
	case common.ModeMarkdown:
		if body, err = env.Converter().MarkdownToHTML(body); err != nil {
			return fmt.Errorf("unable to convert '%s': %w", src, err)
		}
	case common.ModeHTML:
	default:
		return fmt.Errorf("unable to export %s", mode)
	}

	stylesheet := env.Cfg.Document.Initial.CSS
	if name := cmd.String("css"); len(name) > 0 {
		rs, err := readStylesheet(name, log)
		if err != nil {
			return err
		}
		stylesheet = rs.Pretty()
	}

	highlight, err := env.Converter().HighlightCSS()
	if err != nil {
		log.Warn("Unable to produce highlighting stylesheet", zap.Error(err))
	}

	renderer, err := env.Renderer()
	if err != nil {
		return err
	}
	page, err := renderer.Render(preview.Page{
		Title:     pageTitle(cmd.String("title"), body),
		CSS:       stylesheet,
		Highlight: highlight,
		Body:      body,
	})
	if err != nil {
		return err
	}
	log.Info("Exporting page", zap.String("source", src), zap.String("destination", dst))
	return writeOutput(dst, page, env.Overwrite)
}

// pageTitle picks explicit title or text of the first heading. Empty result
// leaves configured title in place.
func pageTitle(title, body string) string {
	if len(title) > 0 {
		return title
	}
	d, err := dom.Parse(body)
	if err != nil {
		return ""
	}
	var found string
	d.Walk(d.Body(), func(id dom.NodeID) bool {
		if found != "" {
			return false
		}
		if d.IsElement(id, "h1", "h2", "h3", "h4", "h5", "h6") {
			found = strings.Join(strings.Fields(d.TextContent(id)), " ")
			return false
		}
		return true
	})
	return found
}
