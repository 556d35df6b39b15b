// Package syntax checks that remotely generated JavaScript is structurally
// sound before it is returned to callers.
package syntax

import (
	"context"
	"fmt"
	"strings"

	"github.com/polisai/codeforge/pkg/domain"
)

// Checker validates generated source code.
type Checker interface {
	Check(ctx context.Context, code string) error
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc func(ctx context.Context, code string) error

// Check calls f.
func (f CheckerFunc) Check(ctx context.Context, code string) error {
	return f(ctx, code)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrRemoteContentInvalid, fmt.Sprintf(format, args...))
}

func checkNotEmpty(code string) error {
	if strings.TrimSpace(code) == "" {
		return invalid("empty source")
	}
	return nil
}

// Backend names the structural check compiled into this binary.
func Backend() string {
	if IsAvailable() {
		return "tree-sitter"
	}
	return "balance scan"
}
