package element

import (
	"strings"
	"unicode"
)

// Segment returns the path segment of a node: its display name folded to
// lower-case with runs of non-alphanumerics collapsed to "-", or the
// variant when the display name folds to nothing.
func Segment(n *Node) string {
	var sb strings.Builder
	dash := false
	for _, r := range strings.ToLower(n.DisplayName) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if dash && sb.Len() > 0 {
				sb.WriteByte('-')
			}
			dash = false
			sb.WriteRune(r)
			continue
		}
		dash = true
	}
	if sb.Len() == 0 {
		return n.Variant
	}
	return sb.String()
}

// Path returns the slash-separated segment path from the root to id, or
// "" when id is absent.
func (f Forest) Path(id string) string {
	for _, n := range f {
		if p, ok := pathIn(n, id, ""); ok {
			return p
		}
	}
	return ""
}

func pathIn(n *Node, id, prefix string) (string, bool) {
	p := join(prefix, Segment(n))
	if n.ID == id {
		return p, true
	}
	for _, c := range n.Children {
		if r, ok := pathIn(c, id, p); ok {
			return r, true
		}
	}
	return "", false
}

func join(prefix, seg string) string {
	if prefix == "" {
		return seg
	}
	return prefix + "/" + seg
}

// Prune returns a forest holding every node for which keep reports true,
// with its whole subtree, plus the ancestors needed to reach it. Kept
// subtrees are shared with f; rebuilt ancestors are shallow copies.
func Prune(f Forest, keep func(path string, n *Node) bool) Forest {
	out := Forest{}
	for _, n := range f {
		if kept := pruneNode(n, "", keep); kept != nil {
			out = append(out, kept)
		}
	}
	return out
}

func pruneNode(n *Node, prefix string, keep func(string, *Node) bool) *Node {
	p := join(prefix, Segment(n))
	if keep(p, n) {
		return n
	}
	var children []*Node
	for _, c := range n.Children {
		if kept := pruneNode(c, p, keep); kept != nil {
			children = append(children, kept)
		}
	}
	if len(children) == 0 {
		return nil
	}
	cp := n.ShallowCopy()
	cp.Children = children
	return cp
}
