package preview

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// File is a preview which writes standalone page to disk on every render,
// so any browser with auto reload can show it.
type File struct {
	*Headless
	log       *zap.Logger
	path      string
	renderer  *Renderer
	highlight string
}

// NewFile creates file preview. Highlight stylesheet is added to every page.
func NewFile(path string, renderer *Renderer, highlight string, log *zap.Logger) *File {
	if log == nil {
		log = zap.NewNop()
	}
	return &File{
		Headless:  NewHeadless(log),
		log:       log.Named("file-preview"),
		path:      path,
		renderer:  renderer,
		highlight: highlight,
	}
}

// Render implements document.Preview. Failures are logged, preview keeps
// previous page.
func (f *File) Render(html, css string) {
	f.Headless.Render(html, css)
	data, err := f.renderer.Render(Page{CSS: css, Highlight: f.highlight, Body: html})
	if err != nil {
		f.log.Warn("Unable to render preview page", zap.Error(err))
		return
	}
	if err := writeFileAtomic(f.path, data); err != nil {
		f.log.Warn("Unable to write preview page", zap.String("path", f.path), zap.Error(err))
	}
}

// Path returns page location.
func (f *File) Path() string {
	return f.path
}

// writeFileAtomic replaces file content so readers never see partial page.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("unable to replace %s: %w", path, err)
	}
	return nil
}
