package codegen

import (
	"strconv"

	"uiforge/element"
)

// renderFunc emits the markup of one node at the given depth.
type renderFunc func(w *walker, n *element.Node, depth int)

// rules maps each catalog variant to its rendering rule. Variants missing
// from the table render through renderFallback.
var rules map[string]renderFunc

func init() {
	rules = map[string]renderFunc{
		"container": containerRule("div"),
		"section":   containerRule("section"),
		"header":    containerRule("header"),
		"footer":    containerRule("footer"),
		"nav":       containerRule("nav"),
		"row":       containerRule("div"),
		"column":    containerRule("div"),
		"grid":      containerRule("div"),
		"card":      containerRule("div"),
		"list-item": containerRule("li"),
		"form":      renderForm,
		"list":      renderList,
		"text":      textRule("p", "Text"),
		"heading":   renderHeading,
		"link":      renderLink,
		"button":    renderButton,
		"image":     renderImage,
		"input":     renderInput,
		"textarea":  renderTextarea,
		"select":    renderSelect,
		"checkbox":  renderCheckbox,
		"divider":   voidRule("hr"),
		"spacer":    renderSpacer,
		"video":     renderVideo,
	}
}

// HasRule reports whether variant has a dedicated rendering rule.
func HasRule(variant string) bool {
	_, ok := rules[variant]
	return ok
}

func containerRule(tag string) renderFunc {
	return func(w *walker, n *element.Node, depth int) {
		w.container(n, depth, tag)
	}
}

func textRule(tag, def string) renderFunc {
	return func(w *walker, n *element.Node, depth int) {
		w.text(n, depth, tag, textOf(n, def))
	}
}

func voidRule(tag string) renderFunc {
	return func(w *walker, n *element.Node, depth int) {
		w.void(n, depth, tag)
	}
}

// renderFallback keeps unknown variants visible in the output as a tagged
// div so no node is ever dropped.
func renderFallback(w *walker, n *element.Node, depth int) {
	own := attr{"data-variant", n.Variant}
	if len(n.Children) == 0 {
		w.void(n, depth, "div", own)
		return
	}
	w.container(n, depth, "div", own)
}

func textOf(n *element.Node, def string) string {
	if s := stringAttr(n.Attributes, "text", ""); s != "" {
		return s
	}
	return def
}

func renderForm(w *walker, n *element.Node, depth int) {
	w.container(n, depth, "form",
		attr{"action", stringAttr(n.Attributes, "action", "")},
		attr{"method", oneOf(n.Attributes, "method", "post", "get", "post", "dialog")},
	)
}

func renderList(w *walker, n *element.Node, depth int) {
	tag := "ul"
	if boolAttr(n.Attributes, "ordered", false) {
		tag = "ol"
	}
	w.container(n, depth, tag)
}

func renderHeading(w *walker, n *element.Node, depth int) {
	level := intAttr(n.Attributes, "level", 2, 1, 6)
	w.text(n, depth, "h"+strconv.Itoa(level), textOf(n, "Heading"))
}

func renderLink(w *walker, n *element.Node, depth int) {
	href := stringAttr(n.Attributes, "href", "#")
	if href == "" {
		href = "#"
	}
	w.text(n, depth, "a", textOf(n, "Link"), attr{"href", href})
}

func renderButton(w *walker, n *element.Node, depth int) {
	w.text(n, depth, "button", textOf(n, "Button"),
		attr{"type", oneOf(n.Attributes, "type", "button", "button", "submit", "reset")},
	)
}

func renderImage(w *walker, n *element.Node, depth int) {
	w.void(n, depth, "img",
		attr{"src", stringAttr(n.Attributes, "src", "")},
		attr{"alt", stringAttr(n.Attributes, "alt", "")},
	)
}

func renderInput(w *walker, n *element.Node, depth int) {
	w.void(n, depth, "input",
		attr{"type", oneOf(n.Attributes, "type", "text",
			"text", "email", "password", "number", "tel", "url", "search", "date")},
		attr{"placeholder", stringAttr(n.Attributes, "placeholder", "")},
		attr{"name", stringAttr(n.Attributes, "name", "")},
	)
}

func renderTextarea(w *walker, n *element.Node, depth int) {
	w.void(n, depth, "textarea",
		attr{"placeholder", stringAttr(n.Attributes, "placeholder", "")},
		attr{"rows", intAttr(n.Attributes, "rows", 3, 1, 1000)},
		attr{"name", stringAttr(n.Attributes, "name", "")},
	)
}

func renderSelect(w *walker, n *element.Node, depth int) {
	var inner []string
	for _, opt := range options(n.Attributes["options"]) {
		open := "<option>"
		if v, ok := formatAttr("value", opt.value); ok {
			open = "<option " + v + ">"
		}
		inner = append(inner, open+escapeText(opt.label)+"</option>")
	}
	w.block(n, depth, "select", inner, attr{"name", stringAttr(n.Attributes, "name", "")})
}

func renderCheckbox(w *walker, n *element.Node, depth int) {
	input := "<input"
	for _, a := range []attr{
		{"type", "checkbox"},
		{"name", stringAttr(n.Attributes, "name", "")},
		{"defaultChecked", boolAttr(n.Attributes, "checked", false)},
	} {
		if s, ok := formatAttr(a.key, a.value); ok {
			input += " " + s
		}
	}
	input += " />"
	label := stringAttr(n.Attributes, "label", "")
	if label == "" {
		label = "Checkbox"
	}
	w.block(n, depth, "label", []string{input, escapeText(label)})
}

func renderSpacer(w *walker, n *element.Node, depth int) {
	w.void(n, depth, "div", attr{"aria-hidden", true})
}

func renderVideo(w *walker, n *element.Node, depth int) {
	w.void(n, depth, "video",
		attr{"src", stringAttr(n.Attributes, "src", "")},
		attr{"controls", boolAttr(n.Attributes, "controls", true)},
	)
}

type option struct {
	value any
	label string
}

// options coerces a select's option list. Strings and numbers stand for
// both value and label; maps may carry separate "value" and "label" keys.
// Anything else is skipped.
func options(v any) []option {
	var items []any
	switch list := v.(type) {
	case []any:
		items = list
	case []string:
		for _, s := range list {
			items = append(items, s)
		}
	default:
		return nil
	}

	var out []option
	for _, item := range items {
		switch it := item.(type) {
		case string:
			out = append(out, option{value: it, label: it})
		case map[string]any:
			value := stringAttr(it, "value", "")
			label := stringAttr(it, "label", value)
			if label == "" {
				continue
			}
			out = append(out, option{value: value, label: label})
		default:
			if s, ok := number(it); ok {
				out = append(out, option{value: s, label: s})
			}
		}
	}
	return out
}
