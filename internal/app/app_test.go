package app

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/homefs/internal/infrastructure/config"
	"github.com/GriffinCanCode/homefs/internal/shared/types"
)

func testConfig(t *testing.T) *config.Config {
	cfg := config.Default()
	cfg.Sandbox.Root = t.TempDir()
	return cfg
}

func TestNewRegistersFilesystem(t *testing.T) {
	a, err := New(testConfig(t), nil)
	require.NoError(t, err)

	_, ok := a.Registry.Get("filesystem")
	assert.True(t, ok)
	assert.Len(t, a.Registry.Tools(), 23)

	families, err := a.Gatherer.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestTracerFollowsConfig(t *testing.T) {
	a, err := New(testConfig(t), nil)
	require.NoError(t, err)
	assert.Nil(t, a.Tracer)
	a.Close()

	cfg := testConfig(t)
	cfg.Tracing.Enabled = true
	a, err = New(cfg, nil)
	require.NoError(t, err)
	assert.NotNil(t, a.Tracer)
	a.Close()
}

func TestNewRejectsMissingRoot(t *testing.T) {
	cfg := testConfig(t)
	cfg.Sandbox.Root = filepath.Join(cfg.Sandbox.Root, "does-not-exist")

	_, err := New(cfg, nil)
	assert.Error(t, err)
}

func TestStrictSymlinksConfinesLinks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}

	outside := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(outside, "secret.txt"), []byte("secret"), 0o644))

	cfg := testConfig(t)
	require.NoError(t, os.Symlink(outside, filepath.Join(cfg.Sandbox.Root, "link")))

	a, err := New(cfg, nil)
	require.NoError(t, err)

	result, err := a.Registry.Execute(context.Background(), "filesystem.read",
		map[string]interface{}{"path": "link/secret.txt"}, &types.Context{Transport: "cli"})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "path_restricted", result.Kind)
}

func TestLenientSymlinksFollowLinks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}

	outside := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(outside, "shared.txt"), []byte("shared"), 0o644))

	cfg := testConfig(t)
	cfg.Sandbox.StrictSymlinks = false
	require.NoError(t, os.Symlink(outside, filepath.Join(cfg.Sandbox.Root, "link")))

	a, err := New(cfg, nil)
	require.NoError(t, err)

	result, err := a.Registry.Execute(context.Background(), "filesystem.read",
		map[string]interface{}{"path": "link/shared.txt"}, nil)
	require.NoError(t, err)
	assert.True(t, result.Success)
}
