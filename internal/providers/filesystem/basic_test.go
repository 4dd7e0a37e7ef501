package filesystem

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRead(t *testing.T) {
	ops, root := newTestOps(t)
	b := &BasicOps{FilesystemOps: ops}
	writeTestFile(t, root, "docs/notes.txt", "hello\nworld\n")

	data := requireSuccess(t, run(t, b.Read, map[string]interface{}{"path": "docs/notes.txt"}))
	assert.Equal(t, "hello\nworld\n", data["content"])
	assert.EqualValues(t, 12, data["size"])
	assert.Equal(t, "utf-8", data["encoding"])
}

func TestReadTranscodesLegacyCharset(t *testing.T) {
	ops, root := newTestOps(t)
	b := &BasicOps{FilesystemOps: ops}

	// ISO-8859-1: é is 0xE9, è is 0xE8, à is 0xE0.
	var latin1 []byte
	for i := 0; i < 20; i++ {
		latin1 = append(latin1, []byte("Le caf\xe9 de la ville est tr\xe8s agr\xe9able, voil\xe0 la v\xe9rit\xe9. ")...)
	}
	require.NoError(t, os.WriteFile(filepath.Join(root, "latin1.txt"), latin1, 0o644))

	data := requireSuccess(t, run(t, b.Read, map[string]interface{}{"path": "latin1.txt"}))
	assert.NotEqual(t, "utf-8", data["encoding"])
	assert.Contains(t, data["content"], "Le café de la ville")
}

func TestReadFailures(t *testing.T) {
	ops, root := newTestOps(t)
	b := &BasicOps{FilesystemOps: ops}
	require.NoError(t, os.Mkdir(filepath.Join(root, "dir"), 0o755))

	tests := []struct {
		name   string
		params map[string]interface{}
		kind   string
	}{
		{"missing path", map[string]interface{}{}, "invalid_argument"},
		{"wrong type", map[string]interface{}{"path": 42}, "invalid_argument"},
		{"parent segment", map[string]interface{}{"path": "../secret"}, "path_restricted"},
		{"absolute", map[string]interface{}{"path": "/etc/passwd"}, "path_restricted"},
		{"not found", map[string]interface{}{"path": "nope.txt"}, "not_found"},
		{"directory", map[string]interface{}{"path": "dir"}, "invalid_argument"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requireKind(t, run(t, b.Read, tt.params), tt.kind)
		})
	}
}

func TestCreateExclusive(t *testing.T) {
	ops, root := newTestOps(t)
	b := &BasicOps{FilesystemOps: ops}

	data := requireSuccess(t, run(t, b.Create, map[string]interface{}{"path": "new.txt", "content": "first"}))
	assert.Equal(t, true, data["created"])
	assert.EqualValues(t, 5, data["size"])

	requireKind(t, run(t, b.Create, map[string]interface{}{"path": "new.txt", "content": "second"}), "already_exists")
	assert.Equal(t, "first", readTestFile(t, root, "new.txt"))
}

func TestCreateNeedsParent(t *testing.T) {
	ops, _ := newTestOps(t)
	b := &BasicOps{FilesystemOps: ops}

	requireKind(t, run(t, b.Create, map[string]interface{}{"path": "missing/new.txt"}), "not_found")
}

func TestSave(t *testing.T) {
	ops, root := newTestOps(t)
	b := &BasicOps{FilesystemOps: ops}

	requireSuccess(t, run(t, b.Save, map[string]interface{}{"path": "a/b/c.txt", "content": "v1"}))
	assert.Equal(t, "v1", readTestFile(t, root, "a/b/c.txt"))

	// Without overwrite a collision is reported, never retried.
	requireKind(t, run(t, b.Save, map[string]interface{}{"path": "a/b/c.txt", "content": "v2"}), "already_exists")
	assert.Equal(t, "v1", readTestFile(t, root, "a/b/c.txt"))

	requireSuccess(t, run(t, b.Save, map[string]interface{}{"path": "a/b/c.txt", "content": "v3", "overwrite": true}))
	assert.Equal(t, "v3", readTestFile(t, root, "a/b/c.txt"))

	requireKind(t, run(t, b.Save, map[string]interface{}{"path": "a/b", "content": "x", "overwrite": true}), "invalid_argument")
}

func TestAppendAndPrepend(t *testing.T) {
	ops, root := newTestOps(t)
	b := &BasicOps{FilesystemOps: ops}
	writeTestFile(t, root, "log.txt", "middle\n")

	data := requireSuccess(t, run(t, b.Append, map[string]interface{}{"path": "log.txt", "content": "end\n"}))
	assert.EqualValues(t, 11, data["size"])

	data = requireSuccess(t, run(t, b.Prepend, map[string]interface{}{"path": "log.txt", "content": "start\n"}))
	assert.EqualValues(t, 17, data["size"])
	assert.Equal(t, "start\nmiddle\nend\n", readTestFile(t, root, "log.txt"))

	// No temp file is left next to the target.
	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	requireKind(t, run(t, b.Append, map[string]interface{}{"path": "missing.txt", "content": "x"}), "not_found")
	requireKind(t, run(t, b.Prepend, map[string]interface{}{"path": "missing.txt", "content": "x"}), "not_found")
}

func TestPrependKeepsMode(t *testing.T) {
	ops, root := newTestOps(t)
	b := &BasicOps{FilesystemOps: ops}
	full := writeTestFile(t, root, "script.sh", "echo hi\n")
	require.NoError(t, os.Chmod(full, 0o750))

	requireSuccess(t, run(t, b.Prepend, map[string]interface{}{"path": "script.sh", "content": "#!/bin/sh\n"}))

	info, err := os.Stat(full)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o750), info.Mode().Perm())
}

func TestDelete(t *testing.T) {
	ops, root := newTestOps(t)
	b := &BasicOps{FilesystemOps: ops}
	writeTestFile(t, root, "gone.txt", "x")
	require.NoError(t, os.Mkdir(filepath.Join(root, "dir"), 0o755))

	requireSuccess(t, run(t, b.Delete, map[string]interface{}{"path": "gone.txt"}))
	assert.NoFileExists(t, filepath.Join(root, "gone.txt"))

	requireKind(t, run(t, b.Delete, map[string]interface{}{"path": "gone.txt"}), "not_found")
	requireKind(t, run(t, b.Delete, map[string]interface{}{"path": "dir"}), "invalid_argument")
	assert.DirExists(t, filepath.Join(root, "dir"))
}

func TestPathRejectionsAreCounted(t *testing.T) {
	ops, _ := newTestOps(t)
	b := &BasicOps{FilesystemOps: ops}

	run(t, b.Read, map[string]interface{}{"path": "../a"})
	run(t, b.Create, map[string]interface{}{"path": "/abs"})
	run(t, b.Read, map[string]interface{}{"path": "missing"})

	assert.Equal(t, int64(2), ops.Metrics.GetSnapshot().PathRejections)
}
