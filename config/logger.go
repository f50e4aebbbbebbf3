package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"

	"go.uber.org/zap"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"mdsync/misc"
)

type LoggerConfig struct {
	Level       string `yaml:"level" validate:"required,oneof=none debug normal"`
	Destination string `yaml:"destination,omitempty" sanitize:"path_clean,assure_dir_exists_for_file" validate:"omitempty,filepath"`
	Mode        string `yaml:"mode,omitempty" validate:"omitempty,oneof=append overwrite rotate"`
	// file only, sessions may run for days and json lines are easier to
	// feed to log processors
	Encoding string `yaml:"encoding,omitempty" validate:"omitempty,oneof=console json"`
	// rotate mode only, megabytes
	MaxSize    int `yaml:"max_size,omitempty" validate:"gte=0"`
	MaxBackups int `yaml:"max_backups,omitempty" validate:"gte=0"`
}

type LoggingConfig struct {
	FileLogger    LoggerConfig `yaml:"file"`
	ConsoleLogger LoggerConfig `yaml:"console"`
}

func levelOf(name string) (zapcore.Level, bool) {
	switch name {
	case "debug":
		return zapcore.DebugLevel, true
	case "normal":
		return zapcore.InfoLevel, true
	}
	return zapcore.InvalidLevel, false
}

// consoleCores splits console output: errors go to stderr without verbose
// error details, everything else to stdout.
func consoleCores(level string) []zapcore.Core {
	low, ok := levelOf(level)
	if !ok {
		return nil
	}
	encoderFor := func(stream *os.File) zapcore.EncoderConfig {
		ec := zap.NewDevelopmentEncoderConfig()
		ec.EncodeCaller = nil
		ec.EncodeLevel = zapcore.CapitalLevelEncoder
		if colorOutput(stream) {
			ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
			ec.TimeKey = zapcore.OmitKey
		}
		return ec
	}
	return []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(encoderFor(os.Stdout)), zapcore.Lock(os.Stdout),
			zap.LevelEnablerFunc(func(lvl zapcore.Level) bool { return low <= lvl && lvl < zapcore.ErrorLevel })),
		zapcore.NewCore(shortErrors{zapcore.NewConsoleEncoder(encoderFor(os.Stderr))}, zapcore.Lock(os.Stderr),
			zap.LevelEnablerFunc(func(lvl zapcore.Level) bool { return lvl >= zapcore.ErrorLevel })),
	}
}

func openLog(name, mode string) (*os.File, error) {
	flags := os.O_CREATE | os.O_WRONLY
	if mode == "append" {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	return os.OpenFile(name, flags, 0644)
}

// capturePanics sends runtime crash output next to the log file, so it ends
// up in debug report.
func capturePanics(dir, mode string, rpt *Report) {
	f, err := openLog(filepath.Join(dir, misc.GetAppName()+"-panic.log"), mode)
	if err != nil {
		if f, err = os.CreateTemp("", misc.GetAppName()+"-panic.*.log"); err != nil {
			return
		}
	}
	defer f.Close()
	if debug.SetCrashOutput(f, debug.CrashOptions{}) == nil {
		rpt.Store("panic.log", f.Name())
	}
}

// Prepare returns program logger: console cores plus optional file core.
// When debug report is requested file logging is forced to debug level.
func (conf *LoggingConfig) Prepare(rpt *Report) (*zap.Logger, error) {
	cores := consoleCores(conf.ConsoleLogger.Level)

	fc := conf.FileLogger
	if rpt != nil {
		fc.Level = "debug"
		if fc.Mode != "rotate" {
			fc.Mode = "overwrite"
		}
	}

	var redirected string
	if level, ok := levelOf(fc.Level); ok {
		capturePanics(filepath.Dir(fc.Destination), fc.Mode, rpt)

		encoder := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
		if fc.Encoding == "json" {
			encoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
		}

		var sink zapcore.WriteSyncer
		if fc.Mode == "rotate" {
			sink = zapcore.AddSync(&lumberjack.Logger{
				Filename:   fc.Destination,
				MaxSize:    fc.MaxSize,
				MaxBackups: fc.MaxBackups,
			})
			rpt.Store("final.log", fc.Destination)
		} else if f, err := openLog(fc.Destination, fc.Mode); err == nil {
			sink = zapcore.Lock(f)
			rpt.Store("final.log", f.Name())
		} else if f, er := os.CreateTemp("", misc.GetAppName()+".*.log"); er == nil {
			redirected = f.Name()
			sink = zapcore.Lock(f)
			rpt.Store("final.log", redirected)
		} else {
			return nil, fmt.Errorf("unable to access file log destination (%s): %w", fc.Destination, errors.Join(err, er))
		}
		cores = append(cores, zapcore.NewCore(encoder, sink, zap.NewAtomicLevelAt(level)))
	}

	log := zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	if len(redirected) != 0 {
		log.Warn("Log file was redirected to new location", zap.String("location", redirected))
	}
	return log.Named(misc.GetAppName()), nil
}

// shortErrors prints only error message to console, verbose details (stack
// traces of wrapped errors) stay in the file log.
type shortErrors struct {
	zapcore.Encoder
}

func (c shortErrors) Clone() zapcore.Encoder {
	return shortErrors{c.Encoder.Clone()}
}

func (c shortErrors) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	out := make([]zapcore.Field, 0, len(fields))
	for _, f := range fields {
		if f.Type == zapcore.ErrorType {
			if e, ok := f.Interface.(error); ok {
				f.Interface = errors.New(e.Error())
			}
		}
		out = append(out, f)
	}
	return c.Encoder.EncodeEntry(ent, out)
}
