package render

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkdownToHTML(t *testing.T) {
	doc, err := MarkdownToHTML([]byte("# Notes\n\nSome **bold** text.\n\n| a | b |\n|---|---|\n| 1 | 2 |\n"), "My <Notes>")
	require.NoError(t, err)

	out := string(doc)
	assert.Contains(t, out, "<title>My &lt;Notes&gt;</title>")
	assert.Contains(t, out, "<h1")
	assert.Contains(t, out, "<strong>bold</strong>")
	assert.Contains(t, out, "<table>")
}

func TestMarkdownToHTMLSanitizes(t *testing.T) {
	doc, err := MarkdownToHTML([]byte("[click](javascript:alert(1))\n\n<script>alert(1)</script>\n"), "x")
	require.NoError(t, err)

	out := string(doc)
	assert.NotContains(t, out, "javascript:")
	assert.NotContains(t, out, "<script>")
}

func TestCommandRendererUnavailable(t *testing.T) {
	r := NewCommandRenderer(CommandConfig{Command: "homefs-no-such-renderer"}, nil)

	err := r.RenderPDF(context.Background(), []byte("<html></html>"), filepath.Join(t.TempDir(), "out.pdf"))
	assert.True(t, errors.Is(err, ErrRendererUnavailable))
}

// writeScript creates a fake renderer that copies its input to its output.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script renderer requires a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "fake-renderer")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func TestCommandRendererRuns(t *testing.T) {
	script := writeScript(t, `cp "$1" "$2"`)
	r := NewCommandRenderer(CommandConfig{Command: script}, nil)

	out := filepath.Join(t.TempDir(), "out.pdf")
	require.NoError(t, r.RenderPDF(context.Background(), []byte("<p>hi</p>"), out))

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "<p>hi</p>", string(got))

	leftovers, _ := filepath.Glob(filepath.Join(os.TempDir(), "homefs-*.html"))
	for _, f := range leftovers {
		data, _ := os.ReadFile(f)
		assert.NotEqual(t, "<p>hi</p>", string(data), "renderer input must be removed")
	}
}

func TestCommandRendererEmptyOutput(t *testing.T) {
	script := writeScript(t, `: > "$2"`)
	r := NewCommandRenderer(CommandConfig{Command: script}, nil)

	err := r.RenderPDF(context.Background(), []byte("<p>hi</p>"), filepath.Join(t.TempDir(), "out.pdf"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")
}

func TestCommandRendererFailureOpensBreaker(t *testing.T) {
	script := writeScript(t, `echo "bad input" >&2; exit 1`)
	r := NewCommandRenderer(CommandConfig{Command: script}, nil)
	out := filepath.Join(t.TempDir(), "out.pdf")

	for i := 0; i < 3; i++ {
		err := r.RenderPDF(context.Background(), []byte("x"), out)
		require.Error(t, err)
		assert.True(t, strings.Contains(err.Error(), "bad input"))
	}

	err := r.RenderPDF(context.Background(), []byte("x"), out)
	assert.Contains(t, err.Error(), "circuit breaker is open")
}
