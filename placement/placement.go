// Package placement turns a drag signal into a single structural edit.
//
// Resolve is pure. It is safe to call on every pointer-over tick and is
// called once more, authoritatively, when the drag ends; a cancelled drag
// simply discards the last result.
package placement

import (
	"uiforge/element"
	"uiforge/mutate"
)

// Active describes the item being dragged: either an existing node (ID set)
// or a brand-new element of the given variant taken from the palette.
type Active struct {
	ID      string `json:"id,omitempty"`
	IsNew   bool   `json:"isNew"`
	Variant string `json:"variant,omitempty"`
}

// Hover describes what the pointer is over. Root marks the canvas itself;
// a TargetID equal to element.CanvasRoot means the same.
type Hover struct {
	TargetID string `json:"targetId,omitempty"`
	Root     bool   `json:"root,omitempty"`
}

// IsRoot reports whether the hover target is the canvas root.
func (h Hover) IsRoot() bool {
	return h.Root || h.TargetID == element.CanvasRoot
}

// Kind distinguishes the two intents.
type Kind string

const (
	KindInsert Kind = "insert"
	KindMove   Kind = "move"
)

// Intent is the resolved edit.
//
// An insert intent places a new element under ParentID (root when empty)
// at Index; an Index of -1 appends. A move intent relocates the active node
// relative to OverID by Position.
type Intent struct {
	Kind     Kind            `json:"kind"`
	ParentID string          `json:"parentId,omitempty"`
	Index    int             `json:"index"`
	OverID   string          `json:"overId,omitempty"`
	Position mutate.Position `json:"position,omitempty"`
}

// ContainerFunc reports whether a variant accepts children.
type ContainerFunc func(variant string) bool

// Resolve decides the edit for dropping active onto hover in f. It returns
// nil when the drop is illegal or refers to nodes that are not in f.
func Resolve(f element.Forest, isContainer ContainerFunc, active Active, hover Hover) *Intent {
	if !active.IsNew {
		if active.ID == "" || !f.Contains(active.ID) {
			return nil
		}
	}

	if hover.IsRoot() {
		if active.IsNew {
			return &Intent{Kind: KindInsert, Index: -1}
		}
		return &Intent{Kind: KindMove, OverID: element.CanvasRoot, Position: mutate.After}
	}

	target := f.Find(hover.TargetID)
	if target == nil {
		return nil
	}

	if active.IsNew {
		if isContainer != nil && isContainer(target.Variant) {
			return &Intent{Kind: KindInsert, ParentID: target.ID, Index: -1}
		}
		parent, index, _ := f.Locate(target.ID)
		in := &Intent{Kind: KindInsert, Index: index + 1}
		if parent != nil {
			in.ParentID = parent.ID
		}
		return in
	}

	if target.ID == active.ID || f.IsDescendant(active.ID, target.ID) {
		return nil
	}
	return &Intent{Kind: KindMove, OverID: target.ID, Position: mutate.After}
}
