// Package state defines shared program state.
package state

import (
	"context"
	"time"

	"go.uber.org/zap"

	"mdsync/config"
	"mdsync/convert"
	"mdsync/preview"
)

type envKey struct{}

// LocalEnv keeps everything program needs in a single place. Cfg, Rpt and
// Log are set once command line is parsed, before any subcommand runs.
type LocalEnv struct {
	Cfg *config.Config
	Rpt *config.Report
	Log *zap.Logger

	// used by convert and export subcommands
	Overwrite bool

	conv          *convert.Converter
	renderer      *preview.Renderer
	start         time.Time
	restoreStdLog func()
}

func EnvFromContext(ctx context.Context) *LocalEnv {
	if env, ok := ctx.Value(envKey{}).(*LocalEnv); ok {
		return env
	}
	// this should never happen
	panic("localenv not found in context")
}

func ContextWithEnv(ctx context.Context) context.Context {
	return context.WithValue(ctx, envKey{}, &LocalEnv{start: time.Now()})
}

func (e *LocalEnv) Uptime() time.Duration {
	return time.Since(e.start)
}

// Converter returns converter configured by document section, created on
// first use.
func (e *LocalEnv) Converter() *convert.Converter {
	if e.conv == nil {
		e.conv = convert.New(&e.Cfg.Document, e.Log)
	}
	return e.conv
}

// Renderer returns page renderer configured by preview section, created on
// first use.
func (e *LocalEnv) Renderer() (*preview.Renderer, error) {
	if e.renderer == nil {
		r, err := preview.NewRenderer(&e.Cfg.Preview)
		if err != nil {
			return nil, err
		}
		e.renderer = r
	}
	return e.renderer, nil
}

func (e *LocalEnv) RedirectStdLog() {
	if e.Log == nil {
		return
	}
	e.restoreStdLog = zap.RedirectStdLog(e.Log)
}

func (e *LocalEnv) RestoreStdLog() {
	if e.Log != nil {
		_ = e.Log.Sync()
	}
	if e.restoreStdLog != nil {
		e.restoreStdLog()
		e.restoreStdLog = nil
	}
}
