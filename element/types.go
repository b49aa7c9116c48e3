// Package element provides the core tree types for the uiforge document engine.
package element

import "github.com/google/uuid"

// CanvasRoot is the hover target that stands for the canvas itself rather
// than any node in the tree.
const CanvasRoot = "__canvas_root__"

// Bucket names a group of utility class tokens.
type Bucket string

const (
	BucketLayout     Bucket = "layout"
	BucketSpacing    Bucket = "spacing"
	BucketTypography Bucket = "typography"
	BucketColor      Bucket = "color"
	BucketBorder     Bucket = "border"
	BucketEffect     Bucket = "effect"
)

// Buckets lists every bucket in class composition order.
var Buckets = []Bucket{
	BucketLayout,
	BucketSpacing,
	BucketTypography,
	BucketColor,
	BucketBorder,
	BucketEffect,
}

// Breakpoint names a responsive overlay.
type Breakpoint string

const (
	BreakpointSM  Breakpoint = "sm"
	BreakpointMD  Breakpoint = "md"
	BreakpointLG  Breakpoint = "lg"
	BreakpointXL  Breakpoint = "xl"
	Breakpoint2XL Breakpoint = "2xl"
)

// Breakpoints lists every breakpoint in class composition order.
var Breakpoints = []Breakpoint{
	BreakpointSM,
	BreakpointMD,
	BreakpointLG,
	BreakpointXL,
	Breakpoint2XL,
}

// Marker returns the class prefix for the breakpoint (e.g. "md:").
func (b Breakpoint) Marker() string {
	return string(b) + ":"
}

// ValidBucket reports whether b is one of the fixed buckets.
func ValidBucket(b Bucket) bool {
	for _, known := range Buckets {
		if known == b {
			return true
		}
	}
	return false
}

// ValidBreakpoint reports whether b is one of the fixed breakpoints.
func ValidBreakpoint(b Breakpoint) bool {
	for _, known := range Breakpoints {
		if known == b {
			return true
		}
	}
	return false
}

// Styles holds the ordered class tokens of a node.
type Styles struct {
	Groups      map[Bucket][]string     `json:"groups,omitempty" yaml:"groups,omitempty"`
	Breakpoints map[Breakpoint][]string `json:"breakpoints,omitempty" yaml:"breakpoints,omitempty"`
}

// Empty reports whether no bucket or breakpoint carries a token.
func (s Styles) Empty() bool {
	for _, tokens := range s.Groups {
		if len(tokens) > 0 {
			return false
		}
	}
	for _, tokens := range s.Breakpoints {
		if len(tokens) > 0 {
			return false
		}
	}
	return true
}

// Node is a single element in the document tree.
//
// A node owns its children. ParentID is a cache kept in sync by the
// mutation functions; the nesting itself is authoritative. An empty
// ParentID marks a root-level node.
type Node struct {
	ID          string         `json:"id"`
	Variant     string         `json:"variant"`
	DisplayName string         `json:"displayName,omitempty"`
	Attributes  map[string]any `json:"attributes,omitempty"`
	Styles      Styles         `json:"styles"`
	Children    []*Node        `json:"children,omitempty"`
	ParentID    string         `json:"parentId,omitempty"`
}

// Forest is the ordered list of root nodes of a document.
type Forest []*Node

// NewID returns a fresh node identifier.
func NewID() string {
	return uuid.NewString()
}

// Attr returns the attribute value for key, or nil.
func (n *Node) Attr(key string) any {
	if n == nil || n.Attributes == nil {
		return nil
	}
	return n.Attributes[key]
}

// Label returns the display name, falling back to the variant.
func (n *Node) Label() string {
	if n.DisplayName != "" {
		return n.DisplayName
	}
	return n.Variant
}
