package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"mdsync/css"
	"mdsync/state"
)

func readStylesheet(name string, log *zap.Logger) (*css.RuleSet, error) {
	data, err := os.ReadFile(name)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("unable to read stylesheet: %w", err)
	}
	rs := css.NewParser(log).Parse(string(data), name)
	for _, w := range rs.Warnings() {
		log.Warn("Stylesheet block skipped", zap.Error(w))
	}
	return rs, nil
}

func runCSSUpsert(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("css")

	name := cmd.Args().Get(0)
	if len(name) == 0 {
		return errors.New("no stylesheet has been specified")
	}
	selector := cmd.String("selector")

	var decls []css.Declaration
	for _, s := range cmd.StringSlice("set") {
		d, err := css.ParseAssignment(s)
		if err != nil {
			return err
		}
		decls = append(decls, d)
	}
	if len(decls) == 0 {
		return errors.New("nothing to set, use --set")
	}

	rs, err := readStylesheet(name, log)
	if err != nil {
		return err
	}
	before := rs.Len()
	rs = rs.Upsert(selector, decls...)
	log.Debug("Rule upserted", zap.String("selector", selector), zap.Int("declarations", len(decls)), zap.Bool("created", rs.Len() > before))

	out := []byte(rs.Pretty() + "\n")
	if cmd.Bool("stdout") {
		return writeOutput("", out, false)
	}
	return writeOutput(name, out, true)
}

func runCSSFormat(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("css")

	name := cmd.Args().Get(0)
	if len(name) == 0 {
		return errors.New("no stylesheet has been specified")
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return fmt.Errorf("unable to read stylesheet: %w", err)
	}
	out := []byte(css.NewParser(log).Format(string(data)) + "\n")
	if cmd.Bool("inplace") {
		return writeOutput(name, out, true)
	}
	return writeOutput("", out, false)
}
