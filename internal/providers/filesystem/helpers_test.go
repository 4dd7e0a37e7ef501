package filesystem

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/GriffinCanCode/homefs/internal/archive"
	"github.com/GriffinCanCode/homefs/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/homefs/internal/sandbox"
	"github.com/GriffinCanCode/homefs/internal/shared/types"
)

type operation func(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error)

func newTestOps(t *testing.T) (*FilesystemOps, string) {
	t.Helper()

	root := t.TempDir()
	sb, err := sandbox.New(root)
	require.NoError(t, err)

	return &FilesystemOps{
		Sandbox: sb,
		Archive: archive.New(),
		Logger:  zaptest.NewLogger(t),
		Metrics: monitoring.NewMetrics(prometheus.NewRegistry()),
	}, root
}

func run(t *testing.T, op operation, params map[string]interface{}) *types.Result {
	t.Helper()

	result, err := op(context.Background(), params, &types.Context{RequestID: "req_test", Transport: "test"})
	require.NoError(t, err, "failures travel inside the Result")
	require.NotNil(t, result)
	return result
}

func requireSuccess(t *testing.T, result *types.Result) map[string]interface{} {
	t.Helper()
	if !result.Success {
		require.FailNowf(t, "expected success", "kind=%s error=%s", result.Kind, *result.Error)
	}
	return result.Data
}

func requireKind(t *testing.T, result *types.Result, kind string) {
	t.Helper()
	require.False(t, result.Success, "expected failure")
	require.NotNil(t, result.Error)
	require.Equal(t, kind, result.Kind, "error: %s", *result.Error)
}

func writeTestFile(t *testing.T, root, rel, content string) string {
	t.Helper()

	full := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	return full
}

func readTestFile(t *testing.T, root, rel string) string {
	t.Helper()

	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(data)
}
