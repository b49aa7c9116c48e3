// Package autosave periodically persists an open document.
package autosave

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"uiforge/engine"
	"uiforge/history"
)

// Source is the document being saved.
type Source interface {
	Checkpoint() engine.Checkpoint
}

// Sink stores a document's undo log.
type Sink interface {
	SaveHistory(ctx context.Context, name string, entries []history.Snapshot, cursor int, revision uint64) error
}

// Saver writes the source to the sink whenever its revision has moved
// since the last successful save.
type Saver struct {
	src      Source
	sink     Sink
	name     string
	interval time.Duration
	logger   *zap.Logger

	mu    sync.Mutex
	saved uint64

	started atomic.Bool
	stop    chan struct{}
	done    chan struct{}
	once    sync.Once
}

// New creates a saver. The source's current revision counts as saved.
func New(src Source, sink Sink, name string, interval time.Duration, logger *zap.Logger) *Saver {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Saver{
		src:      src,
		sink:     sink,
		name:     name,
		interval: interval,
		logger:   logger.With(zap.String("document", name)),
		saved:    src.Checkpoint().Revision,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start begins the save loop.
func (s *Saver) Start(ctx context.Context) {
	if s.started.CompareAndSwap(false, true) {
		go s.run(ctx)
	}
}

// Stop ends the save loop, waits for it to exit and writes any pending
// change.
func (s *Saver) Stop(ctx context.Context) error {
	s.Discard()
	_, err := s.Flush(ctx)
	return err
}

// Discard ends the save loop without writing pending changes.
func (s *Saver) Discard() {
	s.once.Do(func() { close(s.stop) })
	if s.started.Load() {
		<-s.done
	}
}

func (s *Saver) run(ctx context.Context) {
	defer close(s.done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case <-ticker.C:
			if _, err := s.Flush(ctx); err != nil {
				s.logger.Warn("autosave failed", zap.Error(err))
			}
		}
	}
}

// Flush saves the source if it changed. It reports whether a write
// happened.
func (s *Saver) Flush(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := s.src.Checkpoint()
	if cp.Revision == s.saved {
		return false, nil
	}
	if err := s.sink.SaveHistory(ctx, s.name, cp.Entries, cp.Cursor, cp.Revision); err != nil {
		return false, err
	}
	s.saved = cp.Revision
	s.logger.Debug("document saved",
		zap.Uint64("revision", cp.Revision),
		zap.Int("entries", len(cp.Entries)))
	return true, nil
}

// Saved returns the last revision written.
func (s *Saver) Saved() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saved
}
