package element

// Find returns the node with the given id, or nil.
func (f Forest) Find(id string) *Node {
	if id == "" {
		return nil
	}
	var found *Node
	f.Walk(func(n *Node, _ int) bool {
		if n.ID == id {
			found = n
			return false
		}
		return true
	})
	return found
}

// Contains reports whether a node with the given id exists.
func (f Forest) Contains(id string) bool {
	return f.Find(id) != nil
}

// Locate returns the structural parent of id (nil for a root node) and the
// index of id among its siblings. ok is false when id is absent.
func (f Forest) Locate(id string) (parent *Node, index int, ok bool) {
	for i, n := range f {
		if n.ID == id {
			return nil, i, true
		}
	}
	for _, n := range f {
		if p, i, found := locateIn(n, id); found {
			return p, i, true
		}
	}
	return nil, -1, false
}

func locateIn(n *Node, id string) (*Node, int, bool) {
	for i, c := range n.Children {
		if c.ID == id {
			return n, i, true
		}
	}
	for _, c := range n.Children {
		if p, i, found := locateIn(c, id); found {
			return p, i, true
		}
	}
	return nil, -1, false
}

// IsDescendant reports whether id lies inside the subtree rooted at
// ancestorID, excluding the ancestor itself.
func (f Forest) IsDescendant(ancestorID, id string) bool {
	anc := f.Find(ancestorID)
	if anc == nil {
		return false
	}
	return Forest(anc.Children).Contains(id)
}

// Walk visits every node depth-first, pre-order. fn receives the depth
// (0 for roots) and returns false to stop the walk.
func (f Forest) Walk(fn func(n *Node, depth int) bool) {
	for _, n := range f {
		if !walk(n, 0, fn) {
			return
		}
	}
}

func walk(n *Node, depth int, fn func(*Node, int) bool) bool {
	if !fn(n, depth) {
		return false
	}
	for _, c := range n.Children {
		if !walk(c, depth+1, fn) {
			return false
		}
	}
	return true
}

// Count returns the number of nodes in the forest.
func (f Forest) Count() int {
	count := 0
	f.Walk(func(*Node, int) bool {
		count++
		return true
	})
	return count
}

// IDs returns every node id in pre-order.
func (f Forest) IDs() []string {
	ids := make([]string, 0, f.Count())
	f.Walk(func(n *Node, _ int) bool {
		ids = append(ids, n.ID)
		return true
	})
	return ids
}
