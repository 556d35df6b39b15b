//go:build cgo

package syntax

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
)

// JavaScriptChecker parses code with tree-sitter and rejects trees that
// contain error or missing nodes.
type JavaScriptChecker struct{}

// NewJavaScriptChecker creates a tree-sitter backed checker.
func NewJavaScriptChecker() *JavaScriptChecker {
	return &JavaScriptChecker{}
}

// Check implements Checker.
func (c *JavaScriptChecker) Check(ctx context.Context, code string) error {
	if err := checkNotEmpty(code); err != nil {
		return err
	}

	// sitter.Parser is not safe for concurrent use.
	parser := sitter.NewParser()
	parser.SetLanguage(javascript.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, []byte(code))
	if err != nil {
		return fmt.Errorf("parse error: %w", err)
	}

	root := tree.RootNode()
	if root.HasError() {
		line := firstErrorLine(root)
		return invalid("syntax error near line %d", line)
	}
	return nil
}

func firstErrorLine(n *sitter.Node) int {
	if n.IsError() || n.IsMissing() {
		return int(n.StartPoint().Row) + 1
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child != nil && child.HasError() {
			return firstErrorLine(child)
		}
	}
	return int(n.StartPoint().Row) + 1
}

// IsAvailable reports whether full parsing is compiled in.
func IsAvailable() bool {
	return true
}
