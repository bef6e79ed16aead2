package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"reflect"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-csg/common"
	"github.com/Carmen-Shannon/oxy-csg/engine/events"
	"github.com/Carmen-Shannon/oxy-csg/engine/primitive"
	"github.com/fsnotify/fsnotify"
)

// KindResolver maps a configured kind name to a primitive kind. primitive.Registry.Lookup satisfies it.
type KindResolver func(name string) (primitive.Kind, error)

// ReloadHandler observes every reload attempt.
// cfg is the configuration now in effect; err is the load or dispatch error, if any.
type ReloadHandler func(cfg Config, emitted []events.Event, err error)

// Diff compares two configurations and returns the edit events that turn old into next.
// Geometry events come first in slot order, then the operation, then material properties.
// A kind change is always followed by the slot's placement, because a kind change restores
// the brush's home placement.
//
// Parameters:
//   - old: the configuration in effect
//   - next: the new configuration
//   - resolve: resolves kind names, or nil for built-in kinds only
//
// Returns:
//   - []events.Event: the events, empty when nothing changed
//   - error: if a kind or operation name cannot be resolved
func Diff(old, next Config, resolve KindResolver) ([]events.Event, error) {
	if resolve == nil {
		resolve = primitive.ParseKind
	}

	var out []events.Event
	n := min(len(old.Composition.Brushes), len(next.Composition.Brushes))
	for i := 0; i < n; i++ {
		ob, nb := old.Composition.Brushes[i], next.Composition.Brushes[i]
		ok, err := resolve(ob.Kind)
		if err != nil {
			return nil, fmt.Errorf("brush %d: %w", i+1, err)
		}
		nk, err := resolve(nb.Kind)
		if err != nil {
			return nil, fmt.Errorf("brush %d: %w", i+1, err)
		}
		kindChanged := ok != nk
		if kindChanged {
			out = append(out, events.BrushGeometryChanged{Slot: i, Kind: nk})
		}
		if kindChanged || ob.Placement() != nb.Placement() {
			out = append(out, events.BrushPlacementChanged{Slot: i, Placement: nb.Placement()})
		}
	}

	oldOp, err := old.Composition.ParsedOperation()
	if err != nil {
		return nil, err
	}
	newOp, err := next.Composition.ParsedOperation()
	if err != nil {
		return nil, err
	}
	if oldOp != newOp {
		out = append(out, events.OperationChanged{Operation: newOp})
	}

	oldProps, newProps := old.Material.properties(), next.Material.properties()
	for i := range newProps {
		if !reflect.DeepEqual(oldProps[i].value, newProps[i].value) {
			out = append(out, events.MaterialPropertyChanged{Name: newProps[i].name, Value: newProps[i].value})
		}
	}
	return out, nil
}

// Watcher hot-reloads a configuration file and dispatches the differences as edit events.
//
// Thread Safety: Safe for concurrent use.
type Watcher struct {
	mu *sync.RWMutex

	path       string
	current    Config
	dispatcher events.Dispatcher
	resolve    KindResolver
	debounce   time.Duration
	onReload   ReloadHandler
	logger     *slog.Logger

	watcher  *fsnotify.Watcher
	watching bool
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithKindResolver sets how kind names are resolved when diffing.
//
// Parameters:
//   - resolve: the resolver
//
// Returns:
//   - WatcherOption: option function to apply
func WithKindResolver(resolve KindResolver) WatcherOption {
	return func(w *Watcher) {
		w.resolve = resolve
	}
}

// WithDebounce sets how long the watcher waits for writes to settle before reloading.
//
// Parameters:
//   - d: the debounce window (default 100ms)
//
// Returns:
//   - WatcherOption: option function to apply
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithReloadHandler registers a callback invoked after every reload attempt.
//
// Parameters:
//   - h: the handler
//
// Returns:
//   - WatcherOption: option function to apply
func WithReloadHandler(h ReloadHandler) WatcherOption {
	return func(w *Watcher) {
		w.onReload = h
	}
}

// WithLogger sets the structured logger used by the watcher.
//
// Parameters:
//   - logger: the logger
//
// Returns:
//   - WatcherOption: option function to apply
func WithLogger(logger *slog.Logger) WatcherOption {
	return func(w *Watcher) {
		w.logger = logger
	}
}

// NewWatcher creates a watcher for the file at path.
//
// Parameters:
//   - path: the configuration file
//   - current: the configuration currently in effect
//   - dispatcher: receives the edit events of each reload
//   - options: functional options
//
// Returns:
//   - *Watcher: the watcher
//   - error: if the file system watcher cannot be created
func NewWatcher(path string, current Config, dispatcher events.Dispatcher, options ...WatcherOption) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("watch config: %w", err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch config: %w", err)
	}

	w := &Watcher{
		mu:         &sync.RWMutex{},
		path:       abs,
		current:    current,
		dispatcher: dispatcher,
		debounce:   100 * time.Millisecond,
		watcher:    fw,
		done:       make(chan struct{}),
	}
	for _, opt := range options {
		opt(w)
	}
	w.logger = common.Coalesce(w.logger, common.Logger())
	return w, nil
}

// Start begins watching. The parent directory is watched so that editors which replace the file
// on save are seen. Watching stops when ctx is done or Stop is called.
//
// Parameters:
//   - ctx: context for cancellation
//
// Returns:
//   - error: if the directory cannot be watched
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.watching {
		w.mu.Unlock()
		return nil
	}
	w.watching = true
	w.mu.Unlock()

	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch config: %w", err)
	}

	w.wg.Add(1)
	go w.loop(ctx)
	return nil
}

// Stop stops the watcher and waits for the event loop to exit.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		_ = w.watcher.Close()
		w.wg.Wait()

		w.mu.Lock()
		w.watching = false
		w.mu.Unlock()
	})
}

// Current returns the configuration in effect.
//
// Returns:
//   - Config: the configuration
func (w *Watcher) Current() Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// Reload loads the file now, dispatches the differences and makes the new configuration current.
// A file that fails to load or validate leaves the current configuration in place.
//
// Returns:
//   - []events.Event: the dispatched events
//   - error: the load error or the joined dispatch errors
func (w *Watcher) Reload() ([]events.Event, error) {
	w.mu.Lock()
	emitted, cfg, err := w.reloadLocked()
	handler := w.onReload
	w.mu.Unlock()

	if handler != nil {
		handler(cfg, emitted, err)
	}
	return emitted, err
}

func (w *Watcher) reloadLocked() ([]events.Event, Config, error) {
	next, err := Load(w.path)
	if err != nil {
		w.logger.Warn("config reload rejected", "path", w.path, "error", err)
		return nil, w.current, err
	}

	emitted, err := Diff(w.current, next, w.resolve)
	if err != nil {
		w.logger.Warn("config diff failed", "path", w.path, "error", err)
		return nil, w.current, err
	}
	if restartOnly(w.current, next) {
		w.logger.Info("config sections changed that apply on restart", "path", w.path)
	}

	prev := w.current
	w.current = next
	if len(emitted) == 0 {
		return nil, next, nil
	}

	var dispatchErr error
	if w.dispatcher != nil {
		dispatchErr = w.dispatcher.DispatchAll(emitted...)
	}
	w.logger.Info("config reloaded",
		"path", w.path,
		"events", len(emitted),
		"operation_before", prev.Composition.Operation,
		"operation_after", next.Composition.Operation,
		"rejected", dispatchErr != nil,
	)
	return emitted, next, dispatchErr
}

// restartOnly reports whether sections that are not hot-reloaded differ.
func restartOnly(a, b Config) bool {
	return a.Render != b.Render || a.Log != b.Log || a.Metrics != b.Metrics ||
		a.Composition.Resolution != b.Composition.Resolution || a.Composition.Workers != b.Composition.Workers
}

// loop converts file system events for the watched file into debounced reloads.
func (w *Watcher) loop(ctx context.Context) {
	defer w.wg.Done()

	var timer *time.Timer
	var timerC <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}
		case <-timerC:
			timer, timerC = nil, nil
			if _, err := w.Reload(); err != nil && !errors.Is(err, ErrInvalid) {
				w.logger.Debug("config reload finished with errors", "error", err)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watcher error", "error", err)
		}
	}
}
