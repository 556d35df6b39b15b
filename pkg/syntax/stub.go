//go:build !cgo

package syntax

import "context"

// JavaScriptChecker falls back to a delimiter balance scan when tree-sitter
// is unavailable.
type JavaScriptChecker struct{}

// NewJavaScriptChecker creates a balance-scanning checker.
func NewJavaScriptChecker() *JavaScriptChecker {
	return &JavaScriptChecker{}
}

// Check implements Checker.
func (c *JavaScriptChecker) Check(_ context.Context, code string) error {
	if err := checkNotEmpty(code); err != nil {
		return err
	}
	return checkBalance(code)
}

// IsAvailable reports whether full parsing is compiled in.
func IsAvailable() bool {
	return false
}
