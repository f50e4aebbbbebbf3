package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"mdsync/common"
	"mdsync/dom"
	"mdsync/state"
)

func runConvert(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("convert")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no input source has been specified")
	}
	dst := cmd.Args().Get(1)
	if cmd.Args().Len() > 2 {
		log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}
	env.Overwrite = cmd.Bool("overwrite")

	from, err := modeOf(src)
	if err != nil {
		return err
	}
	to := common.ModeHTML
	if from == common.ModeHTML {
		to = common.ModeMarkdown
	}
	if s := cmd.String("to"); len(s) > 0 {
		if to, err = common.ParseMode(s); err != nil {
			return fmt.Errorf("unknown output type: %w", err)
		}
	}
	if from == to || from == common.ModeCSS || to == common.ModeCSS {
		return fmt.Errorf("unable to convert %s to %s", from, to)
	}

	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("unable to read source: %w", err)
	}
	if err := env.Rpt.StoreCopy("source/"+filepath.Base(src), src); err != nil {
		log.Debug("Unable to store source in report", zap.Error(err))
	}

	log.Info("Processing starting", zap.String("source", src), zap.String("destination", dst), zap.Stringer("to", to))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	var out string
	conv := env.Converter()
	if to == common.ModeHTML {
		out, err = conv.MarkdownToHTML(string(data))
	} else {
		out, err = conv.HTMLToMarkdown(string(data))
	}
	if err != nil {
		return fmt.Errorf("unable to convert '%s': %w", src, err)
	}
	if env.Rpt != nil {
		html := out
		if to == common.ModeMarkdown {
			html = string(data)
		}
		if d, err := dom.Parse(html); err == nil {
			env.Rpt.StoreData("dom/"+filepath.Base(src)+".txt", []byte(d.Dump(d.Body())))
		}
	}
	return writeOutput(dst, []byte(out), env.Overwrite)
}
