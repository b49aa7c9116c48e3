// Package engine owns one document: its forest, undo history and
// selection. It is the single write boundary for the tree; every edit goes
// through one of its methods and callers only ever see copies.
package engine

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"uiforge/catalog"
	"uiforge/codegen"
	"uiforge/element"
	"uiforge/history"
	"uiforge/mutate"
	"uiforge/placement"
)

// Recorder receives engine activity, typically for metrics.
type Recorder interface {
	Mutation(op string, applied bool)
	HistoryDepth(entries int)
	Export(flavor string, elapsed time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) Mutation(string, bool)        {}
func (nopRecorder) HistoryDepth(int)             {}
func (nopRecorder) Export(string, time.Duration) {}

// Options configures a new Engine.
type Options struct {
	Catalog  *catalog.Catalog
	Capacity int
	Logger   *zap.Logger
	Recorder Recorder
	Initial  element.Forest
}

// Engine is safe for concurrent use.
type Engine struct {
	mu       sync.RWMutex
	catalog  *catalog.Catalog
	capacity int
	forest   element.Forest
	history  *history.Log
	selected string
	revision uint64
	logger   *zap.Logger
	rec      Recorder
}

// HistoryInfo summarizes the undo log.
type HistoryInfo struct {
	Cursor   int  `json:"cursor"`
	Len      int  `json:"len"`
	Capacity int  `json:"capacity"`
	CanUndo  bool `json:"canUndo"`
	CanRedo  bool `json:"canRedo"`
}

// DropResult describes the outcome of Drop.
type DropResult struct {
	Intent  *placement.Intent `json:"intent,omitempty"`
	Applied bool              `json:"applied"`
	ID      string            `json:"id,omitempty"`
}

// New creates an engine. A nil catalog uses the builtin table; a nil
// logger discards output.
func New(opts Options) *Engine {
	e := &Engine{
		catalog:  opts.Catalog,
		capacity: opts.Capacity,
		logger:   opts.Logger,
		rec:      opts.Recorder,
	}
	if e.catalog == nil {
		e.catalog = catalog.Default()
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	if e.rec == nil {
		e.rec = nopRecorder{}
	}
	e.forest = element.Clone(opts.Initial)
	e.history = history.New(opts.Capacity, e.forest)
	return e
}

// Catalog returns the variant table used for new nodes.
func (e *Engine) Catalog() *catalog.Catalog {
	return e.catalog
}

// commit publishes next as the current forest. Callers hold e.mu.
func (e *Engine) commit(op string, next element.Forest) {
	e.forest = next
	e.history.Record(next)
	e.revision++
	e.rec.Mutation(op, true)
	e.rec.HistoryDepth(e.history.Len())
	e.logger.Debug("mutation applied",
		zap.String("op", op),
		zap.Uint64("revision", e.revision),
		zap.Int("nodes", next.Count()))
}

func (e *Engine) noop(op string, fields ...zap.Field) {
	e.rec.Mutation(op, false)
	e.logger.Debug("mutation ignored", append([]zap.Field{zap.String("op", op)}, fields...)...)
}

func (e *Engine) notFound(op string, err error) error {
	e.rec.Mutation(op, false)
	e.logger.Debug("mutation target not found", zap.String("op", op), zap.Error(err))
	return err
}

// Insert materializes a node of variant from the catalog and inserts it
// under parentID (root when empty) at index (append when negative).
func (e *Engine) Insert(variant, parentID string, index int) (string, error) {
	return e.InsertNode(e.catalog.NewNode(variant), parentID, index)
}

// InsertNode inserts a copy of n. Missing or colliding ids are replaced.
func (e *Engine) InsertNode(n *element.Node, parentID string, index int) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	next, id, err := mutate.Insert(e.forest, n, parentID, index)
	if err != nil {
		return "", e.notFound("insert", err)
	}
	e.commit("insert", next)
	return id, nil
}

// Remove deletes a node and its subtree. It reports false when id was
// already absent. A selection inside the removed subtree is cleared.
func (e *Engine) Remove(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	selectionGone := e.selected != "" && (e.selected == id || e.forest.IsDescendant(id, e.selected))
	next, ok := mutate.Remove(e.forest, id)
	if !ok {
		e.noop("remove", zap.String("id", id))
		return false
	}
	if selectionGone {
		e.selected = ""
	}
	e.commit("remove", next)
	return true
}

// Update applies a patch to a node.
func (e *Engine) Update(id string, p mutate.Patch) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.forest.Contains(id) {
		return e.notFound("update", fmt.Errorf("%w: %s", mutate.ErrTargetNotFound, id))
	}
	if p.Empty() {
		e.noop("update", zap.String("id", id))
		return nil
	}
	next, err := mutate.Update(e.forest, id, p)
	if err != nil {
		e.rec.Mutation("update", false)
		return err
	}
	e.commit("update", next)
	return nil
}

// Move relocates a subtree. It reports false for rejected or redundant
// moves, which leave the document untouched.
func (e *Engine) Move(activeID, overID string, pos mutate.Position) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.move(activeID, overID, pos)
}

func (e *Engine) move(activeID, overID string, pos mutate.Position) bool {
	next, ok := mutate.Move(e.forest, activeID, overID, pos)
	if !ok {
		e.noop("move", zap.String("active", activeID), zap.String("over", overID), zap.String("position", string(pos)))
		return false
	}
	e.commit("move", next)
	return true
}

// Duplicate copies a subtree next to the original and returns the new id.
func (e *Engine) Duplicate(id string) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	next, newID, ok := mutate.Duplicate(e.forest, id)
	if !ok {
		e.noop("duplicate", zap.String("id", id))
		return "", false
	}
	e.commit("duplicate", next)
	return newID, true
}

// Preview resolves a drag signal against the current tree without
// applying it.
func (e *Engine) Preview(active placement.Active, hover placement.Hover) *placement.Intent {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return placement.Resolve(e.forest, e.catalog.IsContainer, active, hover)
}

// Drop resolves a drag signal and commits the resulting edit. An illegal
// drop applies nothing and returns a result with a nil intent.
func (e *Engine) Drop(active placement.Active, hover placement.Hover) (DropResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	intent := placement.Resolve(e.forest, e.catalog.IsContainer, active, hover)
	if intent == nil {
		e.noop("drop", zap.String("active", active.ID), zap.String("target", hover.TargetID))
		return DropResult{}, nil
	}

	res := DropResult{Intent: intent}
	switch intent.Kind {
	case placement.KindInsert:
		next, id, err := mutate.Insert(e.forest, e.catalog.NewNode(active.Variant), intent.ParentID, intent.Index)
		if err != nil {
			return res, e.notFound("drop", err)
		}
		e.commit("drop", next)
		res.Applied, res.ID = true, id
	case placement.KindMove:
		res.Applied = e.move(active.ID, intent.OverID, intent.Position)
		res.ID = active.ID
	}
	return res, nil
}

// Undo steps back one history entry and clears the selection. It reports
// false when there is nothing to undo.
func (e *Engine) Undo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	f, ok := e.history.Undo()
	if !ok {
		e.noop("undo")
		return false
	}
	e.restore("undo", f)
	return true
}

// Redo steps forward one history entry and clears the selection. It
// reports false when there is nothing to redo.
func (e *Engine) Redo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	f, ok := e.history.Redo()
	if !ok {
		e.noop("redo")
		return false
	}
	e.restore("redo", f)
	return true
}

func (e *Engine) restore(op string, f element.Forest) {
	e.forest = f
	e.selected = ""
	e.revision++
	e.rec.Mutation(op, true)
	e.logger.Debug("history step",
		zap.String("op", op),
		zap.Int("cursor", e.history.Cursor()),
		zap.Uint64("revision", e.revision))
}

// Select marks a node as selected; an empty id clears the selection. It
// reports false when id is not in the tree.
func (e *Engine) Select(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if id != "" && !e.forest.Contains(id) {
		return false
	}
	e.selected = id
	return true
}

// Selection returns the selected id, or "".
func (e *Engine) Selection() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.selected
}

// Forest returns a deep copy of the current tree.
func (e *Engine) Forest() element.Forest {
	f, _ := e.Snapshot()
	return f
}

// Snapshot returns a deep copy of the current tree with its revision. The
// pair is read under one lock so it never reflects a half-applied edit.
func (e *Engine) Snapshot() (element.Forest, uint64) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return element.Clone(e.forest), e.revision
}

// Node returns a copy of one node, or nil.
func (e *Engine) Node(id string) *element.Node {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.forest.Find(id).Clone()
}

// Revision counts applied changes, history steps included.
func (e *Engine) Revision() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.revision
}

// History summarizes the undo log.
func (e *Engine) History() HistoryInfo {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return HistoryInfo{
		Cursor:   e.history.Cursor(),
		Len:      e.history.Len(),
		Capacity: e.history.Capacity(),
		CanUndo:  e.history.CanUndo(),
		CanRedo:  e.history.CanRedo(),
	}
}

// Entries returns copies of every history entry and the cursor, for
// persistence.
func (e *Engine) Entries() ([]history.Snapshot, int) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.history.Entries(), e.history.Cursor()
}

// Checkpoint is a consistent copy of the undo log.
type Checkpoint struct {
	Entries  []history.Snapshot
	Cursor   int
	Revision uint64
}

// Checkpoint copies the undo log, cursor and revision under one lock.
func (e *Engine) Checkpoint() Checkpoint {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return Checkpoint{
		Entries:  e.history.Entries(),
		Cursor:   e.history.Cursor(),
		Revision: e.revision,
	}
}

// RestoreHistory replaces the undo log, usually with one loaded from
// storage, and makes the entry at cursor current.
func (e *Engine) RestoreHistory(entries []history.Snapshot, cursor int) error {
	for i, s := range entries {
		if err := element.Validate(s.Forest); err != nil {
			return fmt.Errorf("history entry %d: %w", i, err)
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.history.Restore(entries, cursor)
	e.restore("restore", e.history.Current())
	e.rec.HistoryDepth(e.history.Len())
	return nil
}

// Load replaces the document with f and starts a fresh history.
func (e *Engine) Load(f element.Forest) error {
	if err := element.Validate(f); err != nil {
		return fmt.Errorf("loading document: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.history = history.New(e.capacity, f)
	e.restore("load", e.history.Current())
	e.rec.HistoryDepth(e.history.Len())
	return nil
}

// Export serializes the current tree.
func (e *Engine) Export(flavor codegen.Flavor, opts codegen.Options) string {
	start := time.Now()
	e.mu.RLock()
	f := e.forest
	e.mu.RUnlock()

	out := codegen.Serialize(f, flavor, opts)
	e.rec.Export(string(flavor), time.Since(start))
	return out
}

// ExportAll serializes the current tree in both flavors with one walk.
func (e *Engine) ExportAll(opts codegen.Options) codegen.Output {
	start := time.Now()
	e.mu.RLock()
	f := e.forest
	e.mu.RUnlock()

	out := codegen.SerializeAll(f, opts)
	e.rec.Export("all", time.Since(start))
	return out
}
