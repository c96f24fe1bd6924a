package keyfile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/doodlesbykumbi/amtt/pkg/logger"
)

// ErrNotFound is returned when the key file does not exist.
var ErrNotFound = errors.New("key file does not exist")

// Exists reports whether path names an existing regular file.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Read returns the whole contents of a PEM key file.
func Read(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read key file %s: %w", path, err)
	}
	return data, nil
}

// ReadAll reads key material from r, for keys piped on stdin.
func ReadAll(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read key: %w", err)
	}
	return data, nil
}

// Watcher reports rewrites of a single key file.
//
// The parent directory is watched rather than the file itself so that
// replacing the file by rename, as most rotation tools do, is still seen.
type Watcher struct {
	path    string
	watcher *fsnotify.Watcher
	log     *zap.Logger
}

// NewWatcher starts watching path. Events are buffered until Run is called.
func NewWatcher(path string) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", path, err)
	}

	return &Watcher{
		path:    abs,
		watcher: w,
		log:     logger.Named("keyfile"),
	}, nil
}

// Run calls onChange with the new file contents, or the read error, each time
// the file is written or replaced. It returns when ctx is done or the watcher
// is closed.
func (w *Watcher) Run(ctx context.Context, onChange func(data []byte, err error)) error {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			w.log.Debug("key file changed", logger.Path(w.path), zap.String("op", event.Op.String()))
			data, err := Read(w.path)
			onChange(data, err)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watcher error", logger.Path(w.path), zap.Error(err))
		case <-ctx.Done():
			return nil
		}
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
