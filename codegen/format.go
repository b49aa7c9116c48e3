package codegen

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"

	"uiforge/cas"
)

var (
	identRe    = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)
	handlerRe  = regexp.MustCompile(`^on[A-Z][A-Za-z]*$`)
	dataAriaRe = regexp.MustCompile(`^(data|aria)-[A-Za-z0-9_.:-]+$`)
)

// attr is one markup attribute before formatting. A nil value, false, or
// an empty string omits it.
type attr struct {
	key   string
	value any
}

// formatAttr renders key/value as JSX. ok is false when the attribute
// should be omitted.
func formatAttr(key string, value any) (string, bool) {
	switch v := value.(type) {
	case nil:
		return "", false
	case string:
		if v == "" {
			return "", false
		}
		if strings.ContainsAny(v, "\"\\{}&\n\r") {
			return key + "={" + quote(v) + "}", true
		}
		return key + `="` + v + `"`, true
	case bool:
		if !v {
			return "", false
		}
		return key, true
	}
	if n, ok := number(value); ok {
		return key + "={" + n + "}", true
	}
	data, err := cas.CanonicalJSON(value)
	if err != nil {
		return "", false
	}
	return key + "={" + string(data) + "}", true
}

// number formats any numeric value the same way regardless of its Go type,
// so a document decoded from JSON renders like the one that was encoded.
func number(v any) (string, bool) {
	var f float64
	switch n := v.(type) {
	case int:
		return strconv.Itoa(n), true
	case int32:
		return strconv.FormatInt(int64(n), 10), true
	case int64:
		return strconv.FormatInt(n, 10), true
	case uint:
		return strconv.FormatUint(uint64(n), 10), true
	case uint64:
		return strconv.FormatUint(n, 10), true
	case float32:
		f = float64(n)
	case float64:
		f = n
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return "", false
		}
		f = parsed
	default:
		return "", false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", false
	}
	return strconv.FormatFloat(f, 'f', -1, 64), true
}

// escapeText renders text content. Text that JSX would interpret (markup,
// expressions, entities), or whose surrounding whitespace JSX would
// collapse, becomes a string expression.
func escapeText(s string) string {
	if strings.ContainsAny(s, "{}<>&\n\r") || strings.TrimSpace(s) != s {
		return "{" + quote(s) + "}"
	}
	return s
}

// placeholder renders the marker for an empty container.
func placeholder(label string) string {
	label = strings.ReplaceAll(label, "*/", "* /")
	return "{/* " + label + " */}"
}

func quote(s string) string {
	data, err := cas.CanonicalJSON(s)
	if err != nil {
		return strconv.Quote(s)
	}
	return string(data)
}

// stringAttr returns the attribute as a string, stringifying numbers and
// falling back to def for anything else.
func stringAttr(attrs map[string]any, key, def string) string {
	switch v := attrs[key].(type) {
	case string:
		return v
	case nil:
		return def
	}
	if n, ok := number(attrs[key]); ok {
		return n
	}
	return def
}

// intAttr returns the attribute as an integer within [lo, hi], or def.
func intAttr(attrs map[string]any, key string, def, lo, hi int) int {
	var n int
	switch v := attrs[key].(type) {
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return def
		}
		n = parsed
	default:
		s, ok := number(v)
		if !ok {
			return def
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || f != math.Trunc(f) {
			return def
		}
		n = int(f)
	}
	if n < lo || n > hi {
		return def
	}
	return n
}

// boolAttr returns the attribute when it is a bool, else def.
func boolAttr(attrs map[string]any, key string, def bool) bool {
	if b, ok := attrs[key].(bool); ok {
		return b
	}
	return def
}

// oneOf returns the string attribute when it is in allowed, else def.
func oneOf(attrs map[string]any, key, def string, allowed ...string) string {
	v, _ := attrs[key].(string)
	for _, a := range allowed {
		if v == a {
			return v
		}
	}
	return def
}

// isPassthrough reports whether key is copied to the markup. data- and
// aria- keys must be valid JSX attribute names.
func isPassthrough(key string) bool {
	return dataAriaRe.MatchString(key) || key == "id" || key == "title"
}

func isHandler(key string) bool {
	return handlerRe.MatchString(key)
}
