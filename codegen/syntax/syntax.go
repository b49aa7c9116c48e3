// Package syntax checks generated component source with Tree-sitter.
package syntax

import (
	"context"
	"errors"
	"fmt"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"

	"uiforge/codegen"
)

// ErrSyntax is wrapped by Check when the source does not parse cleanly.
var ErrSyntax = errors.New("syntax error in generated source")

// Parsers are not safe for concurrent use, so each grammar gets one parser
// behind a mutex.
type checker struct {
	mu     sync.Mutex
	parser *sitter.Parser
}

var (
	loose = newChecker(javascript.GetLanguage())
	typed = newChecker(tsx.GetLanguage())
)

func newChecker(lang *sitter.Language) *checker {
	p := sitter.NewParser()
	p.SetLanguage(lang)
	return &checker{parser: p}
}

// Check parses src with the grammar matching flavor: JavaScript (which
// includes JSX) for loose output and TSX for typed output. It reports the
// position of the first ERROR or MISSING node.
func Check(src string, flavor codegen.Flavor) error {
	c := loose
	if flavor == codegen.Typed {
		c = typed
	}

	c.mu.Lock()
	tree, err := c.parser.ParseCtx(context.Background(), nil, []byte(src))
	c.mu.Unlock()
	if err != nil {
		return fmt.Errorf("parsing failed: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if !root.HasError() {
		return nil
	}
	if bad := firstError(root); bad != nil {
		p := bad.StartPoint()
		return fmt.Errorf("%w: %s at line %d, column %d", ErrSyntax, describe(bad), p.Row+1, p.Column+1)
	}
	return ErrSyntax
}

func firstError(n *sitter.Node) *sitter.Node {
	iter := sitter.NewIterator(n, sitter.DFSMode)
	for {
		node, err := iter.Next()
		if err != nil || node == nil {
			return nil
		}
		if node.IsError() || node.IsMissing() {
			return node
		}
	}
}

func describe(n *sitter.Node) string {
	if n.IsMissing() {
		return "missing " + n.Type()
	}
	return "unexpected input"
}
