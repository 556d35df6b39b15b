package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestResourceAttributes(t *testing.T) {
	set := attribute.NewSet(resourceAttributes(Config{
		ServiceName:    "codeforge",
		ServiceVersion: "1.2.3",
		ModulesSource:  "/etc/codeforge/modules.yaml",
		SyntaxBackend:  "tree-sitter",
		RemoteModel:    "gpt-4o",
	})...)

	for key, want := range map[attribute.Key]string{
		"service.name":               "codeforge",
		"service.version":            "1.2.3",
		"codeforge.registry.modules": "/etc/codeforge/modules.yaml",
		"codeforge.registry.levels":  "built-in",
		"codeforge.syntax.backend":   "tree-sitter",
		"codeforge.remote.model":     "gpt-4o",
	} {
		v, ok := set.Value(key)
		require.True(t, ok, "missing %s", key)
		assert.Equal(t, want, v.AsString(), key)
	}
	enabled, _ := set.Value("codeforge.remote.enabled")
	assert.True(t, enabled.AsBool())
}

func TestResourceAttributes_LocalOnly(t *testing.T) {
	set := attribute.NewSet(resourceAttributes(Config{ServiceName: "codeforge"})...)

	enabled, ok := set.Value("codeforge.remote.enabled")
	require.True(t, ok)
	assert.False(t, enabled.AsBool())
	_, ok = set.Value("codeforge.remote.model")
	assert.False(t, ok)
	_, ok = set.Value("service.version")
	assert.False(t, ok)
}

func TestSetupProvider_NoEndpointIsNoop(t *testing.T) {
	shutdown, err := SetupProvider(context.Background(), Config{})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}
