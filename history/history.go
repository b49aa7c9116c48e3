// Package history implements the bounded linear undo log.
package history

import (
	"time"

	"uiforge/element"
)

// DefaultCapacity is used when New is given a non-positive capacity.
const DefaultCapacity = 50

// Snapshot is a deep copy of a forest at one instant.
type Snapshot struct {
	Forest    element.Forest `json:"forest"`
	CreatedAt time.Time      `json:"createdAt"`
}

// Log is a bounded sequence of snapshots with a cursor at the current one.
// Entries after the cursor form the redo branch and are dropped by Record.
//
// Log is not safe for concurrent use; the engine serializes access.
type Log struct {
	capacity int
	entries  []Snapshot
	cursor   int
	now      func() time.Time
}

// New creates a log whose first entry is initial.
func New(capacity int, initial element.Forest) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	l := &Log{capacity: capacity, now: time.Now}
	l.entries = []Snapshot{l.snapshot(initial)}
	return l
}

func (l *Log) snapshot(f element.Forest) Snapshot {
	return Snapshot{Forest: element.Clone(f), CreatedAt: l.now()}
}

// Record truncates the redo branch, appends f and moves the cursor onto
// it. The oldest entry is evicted once the log is full.
func (l *Log) Record(f element.Forest) {
	l.entries = append(l.entries[:l.cursor+1], l.snapshot(f))
	l.cursor++
	if over := len(l.entries) - l.capacity; over > 0 {
		l.entries = append([]Snapshot(nil), l.entries[over:]...)
		l.cursor -= over
	}
}

// Undo steps the cursor back and returns the forest there. At the oldest
// entry it returns nil, false.
func (l *Log) Undo() (element.Forest, bool) {
	if !l.CanUndo() {
		return nil, false
	}
	l.cursor--
	return l.Current(), true
}

// Redo steps the cursor forward and returns the forest there. At the newest
// entry it returns nil, false.
func (l *Log) Redo() (element.Forest, bool) {
	if !l.CanRedo() {
		return nil, false
	}
	l.cursor++
	return l.Current(), true
}

// Current returns a copy of the forest at the cursor.
func (l *Log) Current() element.Forest {
	return element.Clone(l.entries[l.cursor].Forest)
}

func (l *Log) CanUndo() bool { return l.cursor > 0 }
func (l *Log) CanRedo() bool { return l.cursor < len(l.entries)-1 }
func (l *Log) Cursor() int   { return l.cursor }
func (l *Log) Len() int      { return len(l.entries) }
func (l *Log) Capacity() int { return l.capacity }

// Entries returns a copy of every snapshot, oldest first.
func (l *Log) Entries() []Snapshot {
	out := make([]Snapshot, len(l.entries))
	for i, s := range l.entries {
		out[i] = Snapshot{Forest: element.Clone(s.Forest), CreatedAt: s.CreatedAt}
	}
	return out
}

// Restore replaces the log contents, typically with entries loaded from
// storage. Only the newest entries that fit the capacity are kept and the
// cursor is clamped into range. An empty entries slice resets the log to a
// single empty forest.
func (l *Log) Restore(entries []Snapshot, cursor int) {
	if len(entries) == 0 {
		l.entries = []Snapshot{l.snapshot(nil)}
		l.cursor = 0
		return
	}
	if over := len(entries) - l.capacity; over > 0 {
		entries = entries[over:]
		cursor -= over
	}
	l.entries = make([]Snapshot, len(entries))
	for i, s := range entries {
		l.entries[i] = Snapshot{Forest: element.Clone(s.Forest), CreatedAt: s.CreatedAt}
	}
	switch {
	case cursor < 0:
		cursor = 0
	case cursor >= len(l.entries):
		cursor = len(l.entries) - 1
	}
	l.cursor = cursor
}
