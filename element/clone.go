package element

// Clone returns a deep copy of the forest. Attribute values that are
// maps or slices are copied recursively so the result shares no mutable
// state with f.
func Clone(f Forest) Forest {
	if f == nil {
		return nil
	}
	out := make(Forest, len(f))
	for i, n := range f {
		out[i] = n.Clone()
	}
	return out
}

// Clone returns a deep copy of the node and its subtree, ids included.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := &Node{
		ID:          n.ID,
		Variant:     n.Variant,
		DisplayName: n.DisplayName,
		Attributes:  CloneAttributes(n.Attributes),
		Styles:      n.Styles.Clone(),
		ParentID:    n.ParentID,
	}
	if n.Children != nil {
		c.Children = make([]*Node, len(n.Children))
		for i, child := range n.Children {
			c.Children[i] = child.Clone()
		}
	}
	return c
}

// ShallowCopy copies the node header; children and maps are shared.
func (n *Node) ShallowCopy() *Node {
	c := *n
	return &c
}

// Clone returns a deep copy of the style buckets.
func (s Styles) Clone() Styles {
	var out Styles
	if s.Groups != nil {
		out.Groups = make(map[Bucket][]string, len(s.Groups))
		for k, v := range s.Groups {
			out.Groups[k] = cloneTokens(v)
		}
	}
	if s.Breakpoints != nil {
		out.Breakpoints = make(map[Breakpoint][]string, len(s.Breakpoints))
		for k, v := range s.Breakpoints {
			out.Breakpoints[k] = cloneTokens(v)
		}
	}
	return out
}

func cloneTokens(tokens []string) []string {
	if tokens == nil {
		return nil
	}
	out := make([]string, len(tokens))
	copy(out, tokens)
	return out
}

// CloneAttributes deep-copies an attribute map.
func CloneAttributes(attrs map[string]any) map[string]any {
	if attrs == nil {
		return nil
	}
	out := make(map[string]any, len(attrs))
	for k, v := range attrs {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return CloneAttributes(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	case []string:
		return cloneTokens(val)
	default:
		return v
	}
}
