// Package codegen serializes a document forest into component source.
//
// One walk of the tree yields the JSX body and the handler props it
// references; the loose and typed flavors differ only in the header wrapped
// around that body, so both flavors always agree on node order and
// attribute formatting. Serialization never fails: unknown variants render
// through a fallback rule and malformed attribute values are coerced.
package codegen

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"uiforge/element"
)

// DefaultComponentName names the component when Options leaves it blank.
const DefaultComponentName = "GeneratedComponent"

// ErrBadPattern is returned by Options.Validate for a malformed include pattern.
var ErrBadPattern = errors.New("invalid include pattern")

// Options controls serialization.
type Options struct {
	// ComponentName is folded to PascalCase.
	ComponentName string
	// Include restricts output to nodes whose path (see element.Forest.Path)
	// matches one of these doublestar patterns, plus their ancestors.
	// Empty means the whole forest.
	Include []string
}

// Validate checks the include patterns.
func (o Options) Validate() error {
	for _, p := range o.Include {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("%w: %q", ErrBadPattern, p)
		}
	}
	return nil
}

// Output holds the source text of both flavors.
type Output struct {
	Loose string `json:"loose"`
	Typed string `json:"typed"`
}

// Get returns the text for flavor.
func (o Output) Get(f Flavor) string {
	if f == Typed {
		return o.Typed
	}
	return o.Loose
}

// Serialize renders f in the given flavor. Any flavor other than Typed
// renders loose.
func Serialize(f element.Forest, flavor Flavor, opts Options) string {
	b := renderBody(f, opts)
	return b.source(flavor, ComponentName(opts.ComponentName))
}

// SerializeAll renders both flavors from a single walk.
func SerializeAll(f element.Forest, opts Options) Output {
	b := renderBody(f, opts)
	name := ComponentName(opts.ComponentName)
	return Output{
		Loose: b.source(Loose, name),
		Typed: b.source(Typed, name),
	}
}

// ComponentName folds s into a PascalCase identifier made of ASCII letters
// and digits.
func ComponentName(s string) string {
	var sb strings.Builder
	upper := true
	for _, r := range s {
		isLetter := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		isDigit := r >= '0' && r <= '9'
		if !isLetter && !isDigit {
			upper = true
			continue
		}
		if upper && r >= 'a' && r <= 'z' {
			r -= 'a' - 'A'
		}
		upper = false
		sb.WriteRune(r)
	}
	name := sb.String()
	if name == "" {
		return DefaultComponentName
	}
	if name[0] >= '0' && name[0] <= '9' {
		return "Component" + name
	}
	return name
}

type body struct {
	markup   string
	handlers []string
}

func renderBody(f element.Forest, opts Options) body {
	if len(opts.Include) > 0 {
		f = element.Prune(f, func(path string, _ *element.Node) bool {
			for _, p := range opts.Include {
				if ok, _ := doublestar.Match(p, path); ok {
					return true
				}
			}
			return false
		})
	}

	w := &walker{handlers: make(map[string]struct{})}
	switch len(f) {
	case 0:
	case 1:
		w.node(f[0], 2)
	default:
		w.line(2, "<>")
		for _, n := range f {
			w.node(n, 3)
		}
		w.line(2, "</>")
	}

	handlers := make([]string, 0, len(w.handlers))
	for h := range w.handlers {
		handlers = append(handlers, h)
	}
	sort.Strings(handlers)
	return body{markup: w.b.String(), handlers: handlers}
}

func (b body) source(flavor Flavor, name string) string {
	var sb strings.Builder
	sb.WriteString("import React from 'react';\n\n")

	if flavor == Typed {
		props := name + "Props"
		if len(b.handlers) == 0 {
			fmt.Fprintf(&sb, "export interface %s {}\n\n", props)
		} else {
			fmt.Fprintf(&sb, "export interface %s {\n", props)
			for _, h := range b.handlers {
				fmt.Fprintf(&sb, "  %s?: () => void;\n", h)
			}
			sb.WriteString("}\n\n")
		}
		fmt.Fprintf(&sb, "export default function %s(props: %s): React.ReactElement | null {\n", name, props)
	} else {
		fmt.Fprintf(&sb, "export default function %s(props) {\n", name)
	}

	if b.markup == "" {
		sb.WriteString("  return null;\n")
	} else {
		sb.WriteString("  return (\n")
		sb.WriteString(b.markup)
		sb.WriteString("  );\n")
	}
	sb.WriteString("}\n")
	return sb.String()
}

// walker accumulates markup lines and the handler props they reference.
type walker struct {
	b        strings.Builder
	handlers map[string]struct{}
}

func (w *walker) line(depth int, s string) {
	w.b.WriteString(strings.Repeat("  ", depth))
	w.b.WriteString(s)
	w.b.WriteByte('\n')
}

func (w *walker) node(n *element.Node, depth int) {
	if n == nil {
		return
	}
	render, ok := rules[n.Variant]
	if !ok {
		render = renderFallback
	}
	render(w, n, depth)
}

// attrs formats className, then the rule's own attributes in order, then
// pass-through and handler attributes of the node sorted by key.
func (w *walker) attrs(n *element.Node, own []attr) string {
	var parts []string
	seen := map[string]bool{"className": true}
	if s, ok := formatAttr("className", ClassList(n.Styles)); ok {
		parts = append(parts, s)
	}
	for _, a := range own {
		seen[a.key] = true
		if s, ok := formatAttr(a.key, a.value); ok {
			parts = append(parts, s)
		}
	}

	keys := make([]string, 0, len(n.Attributes))
	for k := range n.Attributes {
		if !seen[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		switch {
		case isHandler(k):
			prop, _ := n.Attributes[k].(string)
			if !identRe.MatchString(prop) {
				continue
			}
			w.handlers[prop] = struct{}{}
			parts = append(parts, k+"={props."+prop+"}")
		case isPassthrough(k):
			if s, ok := formatAttr(k, n.Attributes[k]); ok {
				parts = append(parts, s)
			}
		}
	}
	return strings.Join(parts, " ")
}

func openTag(tag, attrs string) string {
	if attrs == "" {
		return "<" + tag + ">"
	}
	return "<" + tag + " " + attrs + ">"
}

// void renders a self-closing element. Children of a node whose element
// cannot hold any are emitted after it inside a fragment.
func (w *walker) void(n *element.Node, depth int, tag string, own ...attr) {
	w.withChildrenAfter(n, depth, func(depth int) {
		w.selfClosing(n, depth, tag, own)
	})
}

func (w *walker) selfClosing(n *element.Node, depth int, tag string, own []attr) {
	attrs := w.attrs(n, own)
	if attrs == "" {
		w.line(depth, "<"+tag+" />")
		return
	}
	w.line(depth, "<"+tag+" "+attrs+" />")
}

func (w *walker) withChildrenAfter(n *element.Node, depth int, render func(depth int)) {
	if len(n.Children) == 0 {
		render(depth)
		return
	}
	w.line(depth, "<>")
	render(depth + 1)
	for _, c := range n.Children {
		w.node(c, depth+1)
	}
	w.line(depth, "</>")
}

// text renders an element holding text. Children, if any, follow the text
// inside the element.
func (w *walker) text(n *element.Node, depth int, tag, text string, own ...attr) {
	open := openTag(tag, w.attrs(n, own))
	if len(n.Children) == 0 {
		w.line(depth, open+escapeText(text)+"</"+tag+">")
		return
	}
	w.line(depth, open)
	w.line(depth+1, escapeText(text))
	for _, c := range n.Children {
		w.node(c, depth+1)
	}
	w.line(depth, "</"+tag+">")
}

// container renders the node's children, or the variant placeholder when
// it has none.
func (w *walker) container(n *element.Node, depth int, tag string, own ...attr) {
	w.line(depth, openTag(tag, w.attrs(n, own)))
	if len(n.Children) == 0 {
		w.line(depth+1, placeholder(n.Variant))
	}
	for _, c := range n.Children {
		w.node(c, depth+1)
	}
	w.line(depth, "</"+tag+">")
}

// block renders rule-generated inner lines; with none it self-closes.
func (w *walker) block(n *element.Node, depth int, tag string, inner []string, own ...attr) {
	w.withChildrenAfter(n, depth, func(depth int) {
		if len(inner) == 0 {
			w.selfClosing(n, depth, tag, own)
			return
		}
		w.line(depth, openTag(tag, w.attrs(n, own)))
		for _, s := range inner {
			w.line(depth+1, s)
		}
		w.line(depth, "</"+tag+">")
	})
}
