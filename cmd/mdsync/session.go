package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"mdsync/common"
	"mdsync/document"
	"mdsync/preview"
	"mdsync/state"
	"mdsync/store"
	"mdsync/transport"
)

const (
	snapshotDelay = 2 * time.Second
	historyKeep   = 100
	loopCapacity  = 64
)

// sessionEditor stands in for editor widget: files on disk are the real
// editing surface.
type sessionEditor struct {
	text   string
	mode   common.Mode
	scroll float64
}

func (e *sessionEditor) Text() string                     { return e.text }
func (e *sessionEditor) SetText(text string)              { e.text = text }
func (e *sessionEditor) ScrollPercentage() float64        { return e.scroll }
func (e *sessionEditor) SetScrollPercentage(p float64)    { e.scroll = p }
func (e *sessionEditor) SetLanguageMode(mode common.Mode) { e.mode = mode }

// session ties coordinator to files in a directory. All methods except
// watch and readControl run on the loop goroutine.
type session struct {
	log   *zap.Logger
	loop  *document.Loop
	coord *document.Coordinator
	store *store.Store

	files   map[common.Mode]string
	written map[string]string
	saver   *time.Timer
}

func runSession(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("session")
	cfg := env.Cfg

	dir := cmd.Args().Get(0)
	if len(dir) == 0 {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("unable to create session directory: %w", err)
	}

	s := &session{
		log:  log,
		loop: document.NewLoop(loopCapacity, log),
		files: map[common.Mode]string{
			common.ModeMarkdown: filepath.Join(dir, cfg.Session.Files.Markdown),
			common.ModeHTML:     filepath.Join(dir, cfg.Session.Files.HTML),
			common.ModeCSS:      filepath.Join(dir, cfg.Session.Files.CSS),
		},
		written: make(map[string]string),
	}

	storePath := cfg.Session.StorePath
	if name := cmd.String("store"); len(name) > 0 {
		storePath = name
	}
	if len(storePath) > 0 {
		st, err := store.Open(storePath, log)
		if err != nil {
			return err
		}
		s.store = st
		defer func() {
			if n, err := st.Prune(historyKeep); err != nil {
				log.Warn("Unable to prune snapshot history", zap.Error(err))
			} else if n > 0 {
				log.Debug("Snapshot history pruned", zap.Int("removed", n))
			}
			if err := st.Close(); err != nil {
				log.Warn("Unable to close snapshot store", zap.Error(err))
			}
		}()
	} else if cmd.Bool("resume") {
		return errors.New("--resume requires snapshot store")
	}

	conv := env.Converter()
	highlight, err := conv.HighlightCSS()
	if err != nil {
		log.Warn("Unable to produce highlighting stylesheet", zap.Error(err))
	}
	renderer, err := env.Renderer()
	if err != nil {
		return err
	}
	pv := preview.NewFile(filepath.Join(dir, cmd.String("preview")), renderer, highlight, log)

	bus, err := transport.New(ctx, &cfg.Transport, log)
	if err != nil {
		return err
	}
	opts := []document.Option{
		document.WithEditor(&sessionEditor{}),
		document.WithPreview(pv),
		document.WithObserver(s.changed),
		document.WithPoster(func(fn func()) { s.loop.Post(fn) }),
	}
	if bus != nil {
		defer func() {
			if err := bus.Close(); err != nil {
				log.Warn("Unable to close transport", zap.Error(err))
			}
		}()
		opts = append(opts, document.WithTransport(bus))
	}
	s.coord = document.New(cfg, conv, log, opts...)
	defer s.coord.Close()

	if err := s.load(cmd.Bool("resume")); err != nil {
		return err
	}
	if err := s.coord.Start(); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("unable to create file watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("unable to watch '%s': %w", dir, err)
	}
	go s.watch(ctx, watcher, cfg.Session.Debounce)

	if cmd.Bool("control") {
		ctl := &controller{coord: s.coord, picker: pv, out: os.Stdout}
		go s.readControl(ctl)
	}

	log.Info("Session started", zap.String("dir", dir), zap.String("preview", pv.Path()), zap.String("origin", s.coord.Origin()))

	err = s.loop.Run(ctx)
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	s.save()
	for _, name := range s.files {
		if er := env.Rpt.StoreCopy("session/"+filepath.Base(name), name); er != nil {
			log.Debug("Unable to store session file in report", zap.Error(er))
		}
	}
	log.Info("Session ended")
	return err
}

// load brings existing documents into coordinator. Markdown file wins over
// html file when both are present.
func (s *session) load(resume bool) error {
	if resume {
		e, ok, err := s.store.Latest()
		if err != nil {
			return err
		}
		if ok {
			s.log.Info("Resuming session", zap.Int64("snapshot", e.ID), zap.Time("created", e.Created))
			s.coord.Restore(e.Snapshot)
			s.writeAll()
			return nil
		}
		s.log.Warn("No stored snapshots, starting from files")
	}
	for _, mode := range []common.Mode{common.ModeCSS, common.ModeMarkdown, common.ModeHTML} {
		text, ok, err := s.read(s.files[mode])
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		s.coord.HandleEdit(mode, text)
		if mode == common.ModeMarkdown {
			break
		}
	}
	s.writeAll()
	return nil
}

func (s *session) read(name string) (string, bool, error) {
	data, err := os.ReadFile(name)
	if errors.Is(err, os.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("unable to read '%s': %w", name, err)
	}
	return string(data), true, nil
}

func (s *session) write(name, text string) {
	if old, ok := s.written[name]; ok && old == text {
		return
	}
	if err := os.WriteFile(name, []byte(text), 0o644); err != nil {
		s.log.Warn("Unable to write document", zap.String("file", name), zap.Error(err))
		return
	}
	s.written[name] = text
}

func (s *session) writeAll() {
	for mode, name := range s.files {
		s.write(name, s.coord.Representation(mode).Text)
	}
}

// changed is coordinator observer.
func (s *session) changed(rep document.Representation) {
	s.write(s.files[rep.Mode], rep.Text)
	if s.store == nil {
		return
	}
	if s.saver == nil {
		s.saver = time.AfterFunc(snapshotDelay, func() { s.loop.Post(s.save) })
		return
	}
	s.saver.Reset(snapshotDelay)
}

func (s *session) save() {
	if s.store == nil {
		return
	}
	if _, err := s.store.Save(s.coord.Snapshot()); err != nil {
		s.log.Warn("Unable to save snapshot", zap.Error(err))
	}
}

// reload is called on loop goroutine after file settled.
func (s *session) reload(mode common.Mode) {
	name := s.files[mode]
	text, ok, err := s.read(name)
	if err != nil || !ok {
		if err != nil {
			s.log.Warn("Unable to reload document", zap.Error(err))
		}
		return
	}
	if old, seen := s.written[name]; seen && old == text {
		// our own write
		return
	}
	s.written[name] = text
	s.log.Debug("Document changed on disk", zap.String("file", name))
	s.coord.Activate(mode)
	s.coord.HandleEdit(mode, text)
}

// watch debounces file system events per document and posts reloads to the
// loop.
func (s *session) watch(ctx context.Context, w *fsnotify.Watcher, debounce time.Duration) {
	modes := make(map[string]common.Mode, len(s.files))
	for mode, name := range s.files {
		modes[filepath.Clean(name)] = mode
	}
	timers := make(map[common.Mode]*time.Timer)
	defer func() {
		for _, t := range timers {
			t.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			s.log.Warn("File watcher error", zap.Error(err))
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			mode, tracked := modes[filepath.Clean(ev.Name)]
			if !tracked {
				continue
			}
			if t, ok := timers[mode]; ok {
				t.Reset(debounce)
				continue
			}
			timers[mode] = time.AfterFunc(debounce, func() {
				s.loop.Post(func() { s.reload(mode) })
			})
		}
	}
}

// readControl feeds STDIN lines to controller until input is closed.
func (s *session) readControl(ctl *controller) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := scanner.Text()
		if !s.loop.Post(func() {
			if err := ctl.exec(line); err != nil {
				s.log.Warn("Command failed", zap.String("command", line), zap.Error(err))
			}
		}) {
			return
		}
	}
	if err := scanner.Err(); err != nil {
		s.log.Warn("Unable to read commands", zap.Error(err))
	}
}
