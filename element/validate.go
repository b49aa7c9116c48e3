package element

import (
	"errors"
	"fmt"
)

// Invariant errors
var (
	// ErrNilNode indicates a nil entry in a root list or child list.
	ErrNilNode = errors.New("nil node")

	// ErrEmptyID indicates a node without an identifier.
	ErrEmptyID = errors.New("node has empty id")

	// ErrDuplicateID indicates an id that occurs more than once. A node
	// pointer reachable twice (a shared or cyclic subtree) is reported the
	// same way.
	ErrDuplicateID = errors.New("duplicate node id")

	// ErrParentMismatch indicates a parentId that disagrees with the nesting.
	ErrParentMismatch = errors.New("parentId does not match structural parent")
)

// Validate checks the tree-wide invariants: unique non-empty ids, no node
// reachable twice, and parentId consistency. Child order is a slice and
// therefore always total.
func Validate(f Forest) error {
	seen := make(map[string]bool)
	for _, n := range f {
		if err := validateNode(n, "", seen); err != nil {
			return err
		}
	}
	return nil
}

func validateNode(n *Node, parentID string, seen map[string]bool) error {
	if n == nil {
		return ErrNilNode
	}
	if n.ID == "" {
		return ErrEmptyID
	}
	if seen[n.ID] {
		return fmt.Errorf("%w: %s", ErrDuplicateID, n.ID)
	}
	seen[n.ID] = true
	if n.ParentID != parentID {
		return fmt.Errorf("%w: node %s has parentId %q, want %q", ErrParentMismatch, n.ID, n.ParentID, parentID)
	}
	for _, c := range n.Children {
		if err := validateNode(c, n.ID, seen); err != nil {
			return err
		}
	}
	return nil
}
