package codegen

import (
	"strings"

	"uiforge/element"
)

// ClassList composes the class attribute of a node: bucket tokens in
// bucket order, then each breakpoint's tokens behind its marker in
// breakpoint order. Blank tokens are dropped and tokens holding
// whitespace are split.
func ClassList(s element.Styles) string {
	var tokens []string
	for _, b := range element.Buckets {
		for _, tok := range s.Groups[b] {
			tokens = append(tokens, strings.Fields(tok)...)
		}
	}
	for _, bp := range element.Breakpoints {
		for _, tok := range s.Breakpoints[bp] {
			for _, f := range strings.Fields(tok) {
				tokens = append(tokens, bp.Marker()+f)
			}
		}
	}
	return strings.Join(tokens, " ")
}
