// Package mutate provides the pure tree-rewrite operations of the document
// engine. Every operation returns a new forest and leaves its input
// untouched; only the path from the changed node up to the root is
// rebuilt, all other subtrees are shared with the input.
package mutate

import (
	"errors"
	"fmt"

	"uiforge/element"
)

var (
	// ErrTargetNotFound indicates that a referenced node id does not exist.
	ErrTargetNotFound = errors.New("target node not found")

	// ErrInvalidBucket indicates a patch naming an unknown style bucket or breakpoint.
	ErrInvalidBucket = errors.New("unknown style bucket")
)

// Position selects where Move places the active node relative to the target.
type Position string

const (
	Before Position = "before"
	After  Position = "after"
	Inside Position = "inside"
)

// ParsePosition validates a position name.
func ParsePosition(s string) (Position, error) {
	switch p := Position(s); p {
	case Before, After, Inside:
		return p, nil
	}
	return "", fmt.Errorf("invalid position %q (want before, after or inside)", s)
}

// Patch describes an update. Attribute keys are merged into the existing
// map and a nil value removes the key. Each named bucket or breakpoint
// has its token list replaced wholesale.
type Patch struct {
	DisplayName *string
	Attributes  map[string]any
	Groups      map[element.Bucket][]string
	Breakpoints map[element.Breakpoint][]string
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.DisplayName == nil && len(p.Attributes) == 0 && len(p.Groups) == 0 && len(p.Breakpoints) == 0
}

// Insert adds n under parentID (at root when parentID is empty) at index,
// appending when index is negative or past the end. The inserted subtree is
// copied; nodes without an id, or whose id is already used in f, receive a
// fresh one. A nil node anywhere in the subtree is rejected with
// element.ErrNilNode. The returned string is the id of the inserted root.
func Insert(f element.Forest, n *element.Node, parentID string, index int) (element.Forest, string, error) {
	if hasNil(n) {
		return f, "", element.ErrNilNode
	}
	if parentID != "" && !f.Contains(parentID) {
		return f, "", fmt.Errorf("%w: parent %s", ErrTargetNotFound, parentID)
	}

	used := make(map[string]bool, f.Count())
	for _, id := range f.IDs() {
		used[id] = true
	}
	node := n.Clone()
	assignIDs(node, parentID, used)

	if parentID == "" {
		return element.Forest(insertAt(f, index, node)), node.ID, nil
	}
	out, _ := rewrite(f, parentID, func(p *element.Node) *element.Node {
		cp := p.ShallowCopy()
		cp.Children = insertAt(p.Children, index, node)
		return cp
	})
	return out, node.ID, nil
}

func hasNil(n *element.Node) bool {
	if n == nil {
		return true
	}
	for _, c := range n.Children {
		if hasNil(c) {
			return true
		}
	}
	return false
}

// Remove deletes the node with the given id and its subtree. Removing an
// absent id returns f unchanged and false.
func Remove(f element.Forest, id string) (element.Forest, bool) {
	return rewrite(f, id, func(*element.Node) *element.Node { return nil })
}

// Update applies p to the node with the given id.
func Update(f element.Forest, id string, p Patch) (element.Forest, error) {
	for b := range p.Groups {
		if !element.ValidBucket(b) {
			return f, fmt.Errorf("%w: %q", ErrInvalidBucket, b)
		}
	}
	for bp := range p.Breakpoints {
		if !element.ValidBreakpoint(bp) {
			return f, fmt.Errorf("%w: breakpoint %q", ErrInvalidBucket, bp)
		}
	}

	out, ok := rewrite(f, id, func(n *element.Node) *element.Node {
		return applyPatch(n, p)
	})
	if !ok {
		return f, fmt.Errorf("%w: %s", ErrTargetNotFound, id)
	}
	return out, nil
}

func applyPatch(n *element.Node, p Patch) *element.Node {
	cp := n.ShallowCopy()
	if p.DisplayName != nil {
		cp.DisplayName = *p.DisplayName
	}
	if len(p.Attributes) > 0 {
		attrs := make(map[string]any, len(n.Attributes)+len(p.Attributes))
		for k, v := range n.Attributes {
			attrs[k] = v
		}
		for k, v := range p.Attributes {
			if v == nil {
				delete(attrs, k)
				continue
			}
			attrs[k] = v
		}
		cp.Attributes = attrs
	}
	if len(p.Groups) > 0 {
		groups := make(map[element.Bucket][]string, len(n.Styles.Groups)+len(p.Groups))
		for k, v := range n.Styles.Groups {
			groups[k] = v
		}
		for k, v := range p.Groups {
			groups[k] = append([]string(nil), v...)
		}
		cp.Styles.Groups = groups
	}
	if len(p.Breakpoints) > 0 {
		bps := make(map[element.Breakpoint][]string, len(n.Styles.Breakpoints)+len(p.Breakpoints))
		for k, v := range n.Styles.Breakpoints {
			bps[k] = v
		}
		for k, v := range p.Breakpoints {
			bps[k] = append([]string(nil), v...)
		}
		cp.Styles.Breakpoints = bps
	}
	return cp
}

// Move relocates the subtree rooted at activeID next to overID (Before or
// After) or as its last child (Inside). overID may be element.CanvasRoot,
// which appends the subtree at the end of the root list regardless of pos.
//
// Moving a node onto itself or into its own subtree, naming an absent
// node, or a relocation that leaves the node where it already is, returns
// f unchanged and false.
func Move(f element.Forest, activeID, overID string, pos Position) (element.Forest, bool) {
	if activeID == "" || activeID == overID {
		return f, false
	}
	active := f.Find(activeID)
	if active == nil {
		return f, false
	}
	oldParent, oldIndex, _ := f.Locate(activeID)
	oldParentID := ""
	if oldParent != nil {
		oldParentID = oldParent.ID
	}

	if overID == element.CanvasRoot {
		if oldParentID == "" && oldIndex == len(f)-1 {
			return f, false
		}
		detached, _ := Remove(f, activeID)
		moved := active.ShallowCopy()
		moved.ParentID = ""
		return element.Forest(insertAt(detached, -1, moved)), true
	}

	if !f.Contains(overID) || f.IsDescendant(activeID, overID) {
		return f, false
	}

	detached, _ := Remove(f, activeID)

	var newParentID string
	var index int
	switch pos {
	case Inside:
		newParentID = overID
		index = len(detached.Find(overID).Children)
	case Before, After:
		parent, overIndex, _ := detached.Locate(overID)
		if parent != nil {
			newParentID = parent.ID
		}
		index = overIndex
		if pos == After {
			index++
		}
	default:
		return f, false
	}

	if newParentID == oldParentID && index == oldIndex {
		return f, false
	}

	moved := active.ShallowCopy()
	moved.ParentID = newParentID
	if newParentID == "" {
		return element.Forest(insertAt(detached, index, moved)), true
	}
	out, _ := rewrite(detached, newParentID, func(p *element.Node) *element.Node {
		cp := p.ShallowCopy()
		cp.Children = insertAt(p.Children, index, moved)
		return cp
	})
	return out, true
}

// Duplicate deep-copies the subtree rooted at id with fresh ids throughout
// and inserts the copy as the next sibling of the original. It returns the
// id of the copy, or false when id is absent.
func Duplicate(f element.Forest, id string) (element.Forest, string, bool) {
	orig := f.Find(id)
	if orig == nil {
		return f, "", false
	}
	parent, index, _ := f.Locate(id)
	parentID := ""
	if parent != nil {
		parentID = parent.ID
	}

	clone := orig.Clone()
	assignIDs(clone, parentID, nil)

	if parentID == "" {
		return element.Forest(insertAt(f, index+1, clone)), clone.ID, true
	}
	out, _ := rewrite(f, parentID, func(p *element.Node) *element.Node {
		cp := p.ShallowCopy()
		cp.Children = insertAt(p.Children, index+1, clone)
		return cp
	})
	return out, clone.ID, true
}

// assignIDs fixes ids and parent links of a privately owned subtree. With a
// nil used set every node gets a fresh id; otherwise only empty ids and ids
// already present in used are replaced. used is extended as ids are taken.
func assignIDs(n *element.Node, parentID string, used map[string]bool) {
	if used == nil || n.ID == "" || used[n.ID] {
		n.ID = element.NewID()
	}
	if used != nil {
		used[n.ID] = true
	}
	n.ParentID = parentID
	for _, c := range n.Children {
		assignIDs(c, n.ID, used)
	}
}

// insertAt returns a new slice with n at index; out-of-range indexes append.
func insertAt(nodes []*element.Node, index int, n *element.Node) []*element.Node {
	if index < 0 || index > len(nodes) {
		index = len(nodes)
	}
	out := make([]*element.Node, 0, len(nodes)+1)
	out = append(out, nodes[:index]...)
	out = append(out, n)
	out = append(out, nodes[index:]...)
	return out
}

// rewrite replaces the node with the given id by fn's result (removing it
// when fn returns nil) and rebuilds every ancestor on the way up.
func rewrite(nodes []*element.Node, id string, fn func(*element.Node) *element.Node) ([]*element.Node, bool) {
	for i, n := range nodes {
		if n.ID == id {
			out := make([]*element.Node, 0, len(nodes))
			out = append(out, nodes[:i]...)
			if repl := fn(n); repl != nil {
				out = append(out, repl)
			}
			out = append(out, nodes[i+1:]...)
			if len(out) == 0 {
				return nil, true
			}
			return out, true
		}
		if children, ok := rewrite(n.Children, id, fn); ok {
			cp := n.ShallowCopy()
			cp.Children = children
			out := make([]*element.Node, len(nodes))
			copy(out, nodes)
			out[i] = cp
			return out, true
		}
	}
	return nodes, false
}
