package plan

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/forgeworks/foreman/internal/event"
	"github.com/forgeworks/foreman/internal/logging"
)

// Watcher publishes PlanChanged events when plan or roadmap documents
// change on disk. Display consumers subscribe on the bus; the core itself
// re-reads documents per operation and does not depend on these events.
type Watcher struct {
	store   *Store
	bus     *event.Bus
	logger  *logging.Logger
	watcher *fsnotify.Watcher
}

// NewWatcher creates a Watcher over the store's project tree.
func NewWatcher(store *Store, bus *event.Bus, logger *logging.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{store: store, bus: bus, logger: logger, watcher: fsw}
	if err := w.addWatches(); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

// addWatches registers the project root and every phase directory.
// Directories that do not exist yet are picked up later when their parent
// reports a create event.
func (w *Watcher) addWatches() error {
	if err := w.watcher.Add(w.store.root); err != nil {
		return err
	}

	phasesDir := filepath.Join(w.store.root, w.store.layout.PhasesDir)
	if err := w.watcher.Add(phasesDir); err == nil {
		entries, _ := filepath.Glob(filepath.Join(phasesDir, "*"))
		for _, entry := range entries {
			_ = w.watcher.Add(entry)
		}
	}
	return nil
}

// Run processes filesystem events until the context is canceled.
func (w *Watcher) Run(ctx context.Context) {
	defer func() { _ = w.watcher.Close() }()

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(ev)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("plan watcher error", "error", err)
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if ev.Op.Has(fsnotify.Create) {
		// New phase directories need their own watch.
		if !strings.Contains(filepath.Base(ev.Name), ".") {
			_ = w.watcher.Add(ev.Name)
		}
	}

	if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) {
		return
	}
	if !strings.HasSuffix(ev.Name, ".md") {
		return
	}
	// Skip lock files and editor droppings outside the plan convention.
	if strings.HasSuffix(ev.Name, ".lock") {
		return
	}

	w.logger.Debug("plan document changed", "path", ev.Name)
	w.bus.Publish(event.PlanChanged{Path: ev.Name})
}
