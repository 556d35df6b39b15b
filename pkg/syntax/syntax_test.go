package syntax

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polisai/codeforge/pkg/domain"
)

func TestJavaScriptChecker(t *testing.T) {
	checker := NewJavaScriptChecker()
	ctx := context.Background()

	valid := []string{
		"const x = 1;",
		"function draw(ctx) {\n  ctx.fillRect(0, 0, 10, 10);\n}\n",
		"const s = \"a { b\"; // trailing ( comment\n/* ) */\nconst t = `multi\nline`;\n",
		"const pts = [1, 2, 3].map((p) => ({ x: p }));",
	}
	for _, code := range valid {
		assert.NoError(t, checker.Check(ctx, code), code)
	}

	invalidCode := []string{
		"",
		"   \n",
		"function f( {",
		"const a = [1, 2;",
		"if (x) { y(); ",
	}
	for _, code := range invalidCode {
		err := checker.Check(ctx, code)
		require.Error(t, err, code)
		assert.ErrorIs(t, err, domain.ErrRemoteContentInvalid, code)
	}
}

func TestCheckBalance(t *testing.T) {
	assert.NoError(t, checkBalance("a(b[c]{d})"))
	assert.NoError(t, checkBalance(`const s = 'it\'s ok';`))
	assert.ErrorIs(t, checkBalance("a(b]"), domain.ErrRemoteContentInvalid)
	assert.ErrorIs(t, checkBalance("'open"), domain.ErrRemoteContentInvalid)
	assert.ErrorIs(t, checkBalance("/* never closed"), domain.ErrRemoteContentInvalid)
	assert.ErrorIs(t, checkBalance("\"line\nbreak\""), domain.ErrRemoteContentInvalid)

	err := checkBalance("x;\ny;\n}")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 3")
}

func TestCheckerFunc(t *testing.T) {
	called := false
	var c Checker = CheckerFunc(func(_ context.Context, code string) error {
		called = true
		assert.Equal(t, "x", code)
		return nil
	})
	require.NoError(t, c.Check(context.Background(), "x"))
	assert.True(t, called)
}

func TestBackend(t *testing.T) {
	if IsAvailable() {
		assert.Equal(t, "tree-sitter", Backend())
	} else {
		assert.Equal(t, "balance scan", Backend())
	}
}
