package astedit

import (
	"context"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher reparses an Editor's backing file whenever it changes on disk.
// It watches a single file with no polling fallback, since the live
// reparse it drives is an optional helper rather than a primary path.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	editor    *Editor
	path      string
	language  string
	events    chan struct{}
	errors    chan error
	stopCh    chan struct{}
	mu        sync.Mutex
}

// NewWatcher starts watching path and reparsing editor whenever the file
// is written. The editor must already be backed by the same language as
// the file at path.
func NewWatcher(editor *Editor, path, language string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(path); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &Watcher{
		fsWatcher: fsw,
		editor:    editor,
		path:      path,
		language:  language,
		events:    make(chan struct{}, 8),
		errors:    make(chan error, 8),
		stopCh:    make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

// Events reports one signal per completed live reparse.
func (w *Watcher) Events() <-chan struct{} {
	return w.events
}

// Errors reports reparse failures; the editor is left unchanged on error.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

func (w *Watcher) loop() {
	for {
		select {
		case <-w.stopCh:
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.reparse()
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			select {
			case w.errors <- err:
			default:
			}
		}
	}
}

func (w *Watcher) reparse() {
	data, err := os.ReadFile(w.path)
	if err != nil {
		select {
		case w.errors <- err:
		default:
		}
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	tree, err := w.editor.parser.Parse(context.Background(), data, w.language)
	if err != nil {
		select {
		case w.errors <- err:
		default:
		}
		return
	}
	w.editor.tree = tree
	w.editor.pending = nil

	select {
	case w.events <- struct{}{}:
	default:
	}
}

// Close stops the watcher and releases its fsnotify resources.
func (w *Watcher) Close() error {
	close(w.stopCh)
	return w.fsWatcher.Close()
}
