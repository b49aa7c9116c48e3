// Package registry keeps a bounded set of open documents with LRU eviction.
package registry

import (
	"container/list"
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"uiforge/catalog"
	"uiforge/engine"
	"uiforge/history"
	"uiforge/internal/autosave"
	"uiforge/internal/store"
)

var (
	ErrClosed      = errors.New("registry closed")
	ErrInvalidName = errors.New("invalid document name")
)

// Store loads and saves document history.
type Store interface {
	autosave.Sink
	LoadHistory(ctx context.Context, name string) ([]history.Snapshot, int, error)
}

// Observer is told how many documents are open after every change.
type Observer interface {
	OpenDocuments(n int)
}

// Handle is an open document.
type Handle struct {
	Name   string
	Engine *engine.Engine

	saver    *autosave.Saver
	lastUsed time.Time
	active   int32
	mu       sync.Mutex
	element  *list.Element
}

// Config configures the registry.
type Config struct {
	MaxOpen          int           // LRU capacity
	IdleTTL          time.Duration // close documents idle longer than this
	HistoryCapacity  int
	AutosaveInterval time.Duration
	Catalog          *catalog.Catalog
	Recorder         engine.Recorder
	Observer         Observer
	Logger           *zap.Logger
}

// Registry manages open documents. Evicted and reaped documents are saved
// before they are dropped.
type Registry struct {
	cfg    Config
	store  Store
	logger *zap.Logger

	mu     sync.RWMutex
	docs   map[string]*Handle
	lru    *list.List
	closed bool

	ctx    context.Context
	cancel context.CancelFunc
	stop   chan struct{}
	done   chan struct{}
}

// New creates a registry and starts its idle reaper.
func New(st Store, cfg Config) *Registry {
	if cfg.MaxOpen <= 0 {
		cfg.MaxOpen = 64
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 10 * time.Minute
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	r := &Registry{
		cfg:    cfg,
		store:  st,
		logger: cfg.Logger,
		docs:   make(map[string]*Handle),
		lru:    list.New(),
		ctx:    ctx,
		cancel: cancel,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}

	go r.reapLoop()

	return r
}

// Get returns the named document, opening it if needed. A document that
// does not exist yet starts empty and is created by its first save.
//
// The handle may be evicted as soon as Get returns; callers that edit the
// document should use Acquire.
func (r *Registry) Get(ctx context.Context, name string) (*Handle, error) {
	return r.get(ctx, name, false)
}

// Acquire opens the named document and marks it in use so it cannot be
// evicted until Release.
func (r *Registry) Acquire(ctx context.Context, name string) (*Handle, error) {
	return r.get(ctx, name, true)
}

// get looks up or opens a document. The pin is taken under the registry
// lock so no eviction can run between the lookup and the pin.
func (r *Registry) get(ctx context.Context, name string, pin bool) (*Handle, error) {
	if name == "" {
		return nil, ErrInvalidName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrClosed
	}
	h, ok := r.docs[name]
	if !ok {
		var err error
		if h, err = r.openLocked(ctx, name); err != nil {
			return nil, err
		}
	}
	r.touchLocked(h)
	if pin {
		h.mu.Lock()
		h.active++
		h.mu.Unlock()
	}
	return h, nil
}

// Release marks a handle as no longer in use.
func (r *Registry) Release(h *Handle) {
	h.mu.Lock()
	h.active--
	h.lastUsed = time.Now()
	h.mu.Unlock()
}

// Open returns the names of open documents, sorted.
func (r *Registry) Open() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.docs))
	for name := range r.docs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of open documents.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.docs)
}

// Flush saves every open document that has unsaved changes.
func (r *Registry) Flush(ctx context.Context) error {
	r.mu.RLock()
	handles := make([]*Handle, 0, len(r.docs))
	for _, h := range r.docs {
		handles = append(handles, h)
	}
	r.mu.RUnlock()

	var errs []error
	for _, h := range handles {
		if _, err := h.saver.Flush(ctx); err != nil {
			errs = append(errs, fmt.Errorf("saving %s: %w", h.Name, err))
		}
	}
	return errors.Join(errs...)
}

// Forget drops an open document without saving it, as after a delete.
func (r *Registry) Forget(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.docs[name]
	if !ok {
		return
	}
	h.saver.Discard()
	r.removeLocked(h)
	r.observeLocked()
}

// Close saves and closes every open document.
func (r *Registry) Close(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	close(r.stop)
	r.mu.Unlock()
	<-r.done

	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for _, h := range r.docs {
		if err := r.closeLocked(ctx, h, true); err != nil {
			errs = append(errs, err)
		}
	}
	r.cancel()
	r.observeLocked()
	return errors.Join(errs...)
}

// openLocked loads a document (must hold write lock).
func (r *Registry) openLocked(ctx context.Context, name string) (*Handle, error) {
	for len(r.docs) >= r.cfg.MaxOpen {
		if !r.evictOneLocked(ctx) {
			break
		}
	}

	e := engine.New(engine.Options{
		Catalog:  r.cfg.Catalog,
		Capacity: r.cfg.HistoryCapacity,
		Logger:   r.logger.With(zap.String("document", name)),
		Recorder: r.cfg.Recorder,
	})

	entries, cursor, err := r.store.LoadHistory(ctx, name)
	switch {
	case errors.Is(err, store.ErrDocumentNotFound):
	case err != nil:
		return nil, fmt.Errorf("loading %s: %w", name, err)
	default:
		if err := e.RestoreHistory(entries, cursor); err != nil {
			return nil, fmt.Errorf("restoring %s: %w", name, err)
		}
	}

	h := &Handle{
		Name:     name,
		Engine:   e,
		saver:    autosave.New(e, r.store, name, r.cfg.AutosaveInterval, r.logger),
		lastUsed: time.Now(),
	}
	h.saver.Start(r.ctx)

	h.element = r.lru.PushFront(name)
	r.docs[name] = h
	r.observeLocked()

	r.logger.Debug("document opened", zap.String("document", name), zap.Int("entries", len(entries)))
	return h, nil
}

// closeLocked saves and removes a document (must hold write lock). When
// the save fails the document stays open with its saver running, so the
// change is retried, unless force is set.
func (r *Registry) closeLocked(ctx context.Context, h *Handle, force bool) error {
	if _, err := h.saver.Flush(ctx); err != nil {
		r.logger.Warn("saving document on close failed",
			zap.String("document", h.Name), zap.Bool("kept_open", !force), zap.Error(err))
		if !force {
			return fmt.Errorf("saving %s: %w", h.Name, err)
		}
		h.saver.Discard()
		r.removeLocked(h)
		return fmt.Errorf("saving %s: %w", h.Name, err)
	}

	err := h.saver.Stop(ctx)
	r.removeLocked(h)
	if err != nil {
		r.logger.Warn("saving document on close failed", zap.String("document", h.Name), zap.Error(err))
		return fmt.Errorf("saving %s: %w", h.Name, err)
	}
	r.logger.Debug("document closed", zap.String("document", h.Name))
	return nil
}

func (r *Registry) removeLocked(h *Handle) {
	if h.element != nil {
		r.lru.Remove(h.element)
		h.element = nil
	}
	delete(r.docs, h.Name)
}

func (r *Registry) observeLocked() {
	if r.cfg.Observer != nil {
		r.cfg.Observer.OpenDocuments(len(r.docs))
	}
}

// touchLocked updates LRU position (must hold write lock).
func (r *Registry) touchLocked(h *Handle) {
	h.mu.Lock()
	h.lastUsed = time.Now()
	h.mu.Unlock()
	if h.element != nil {
		r.lru.MoveToFront(h.element)
	}
}

// evictOneLocked closes the least recently used inactive document that
// saves cleanly. It reports false when nothing could be closed.
func (r *Registry) evictOneLocked(ctx context.Context) bool {
	for e := r.lru.Back(); e != nil; {
		prev := e.Prev()
		h := r.docs[e.Value.(string)]
		h.mu.Lock()
		idle := h.active == 0
		h.mu.Unlock()
		if idle && r.closeLocked(ctx, h, false) == nil {
			r.observeLocked()
			return true
		}
		e = prev
	}
	return false
}

func (r *Registry) reapLoop() {
	defer close(r.done)
	ticker := time.NewTicker(r.cfg.IdleTTL / 2)
	defer ticker.Stop()

	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			r.reapIdle()
		}
	}
}

// reapIdle closes documents that have been idle too long.
func (r *Registry) reapIdle() {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := time.Now().Add(-r.cfg.IdleTTL)
	reaped := 0
	for e := r.lru.Back(); e != nil; {
		h := r.docs[e.Value.(string)]
		prev := e.Prev()

		h.mu.Lock()
		idle := h.active == 0 && h.lastUsed.Before(cutoff)
		h.mu.Unlock()

		if idle && r.closeLocked(r.ctx, h, false) == nil {
			reaped++
		}
		e = prev
	}
	if reaped > 0 {
		r.observeLocked()
		r.logger.Info("reaped idle documents", zap.Int("count", reaped))
	}
}
