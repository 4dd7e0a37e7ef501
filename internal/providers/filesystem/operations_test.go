package filesystem

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRename(t *testing.T) {
	ops, root := newTestOps(t)
	o := &OperationsOps{FilesystemOps: ops}
	writeTestFile(t, root, "old.txt", "content")
	writeTestFile(t, root, "taken.txt", "other")

	data := requireSuccess(t, run(t, o.Rename, map[string]interface{}{"source": "old.txt", "destination": "new.txt"}))
	assert.Equal(t, "new.txt", data["destination"])
	assert.Equal(t, "content", readTestFile(t, root, "new.txt"))
	assert.NoFileExists(t, filepath.Join(root, "old.txt"))

	// Never overwrites.
	requireKind(t, run(t, o.Rename, map[string]interface{}{"source": "new.txt", "destination": "taken.txt"}), "already_exists")
	assert.Equal(t, "other", readTestFile(t, root, "taken.txt"))

	requireKind(t, run(t, o.Rename, map[string]interface{}{"source": "new.txt", "destination": "missing/dir.txt"}), "not_found")
	requireKind(t, run(t, o.Rename, map[string]interface{}{"source": "ghost.txt", "destination": "x.txt"}), "not_found")
}

func TestTransferConfinement(t *testing.T) {
	ops, root := newTestOps(t)
	o := &OperationsOps{FilesystemOps: ops}
	writeTestFile(t, root, "file.txt", "x")

	tests := []struct {
		name   string
		params map[string]interface{}
		kind   string
	}{
		{"destination escapes", map[string]interface{}{"source": "file.txt", "destination": "../out.txt"}, "path_restricted"},
		{"source escapes", map[string]interface{}{"source": "../../etc/passwd", "destination": "p"}, "path_restricted"},
		{"moving the root", map[string]interface{}{"source": ".", "destination": "elsewhere"}, "invalid_argument"},
		{"missing destination", map[string]interface{}{"source": "file.txt"}, "invalid_argument"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requireKind(t, run(t, o.Rename, tt.params), tt.kind)
			requireKind(t, run(t, o.Move, tt.params), tt.kind)
		})
	}
	assert.FileExists(t, filepath.Join(root, "file.txt"))
}

func TestMove(t *testing.T) {
	ops, root := newTestOps(t)
	o := &OperationsOps{FilesystemOps: ops}
	writeTestFile(t, root, "a.txt", "a")
	writeTestFile(t, root, "b.txt", "b")
	require.NoError(t, os.Mkdir(filepath.Join(root, "dest"), 0o755))

	// Into an existing directory keeps the name.
	data := requireSuccess(t, run(t, o.Move, map[string]interface{}{"source": "a.txt", "destination": "dest"}))
	assert.Equal(t, "dest/a.txt", data["destination"])
	assert.Equal(t, "a", readTestFile(t, root, "dest/a.txt"))

	// Missing parents are created.
	requireSuccess(t, run(t, o.Move, map[string]interface{}{"source": "b.txt", "destination": "new/parent/b2.txt"}))
	assert.Equal(t, "b", readTestFile(t, root, "new/parent/b2.txt"))

	writeTestFile(t, root, "c.txt", "c")
	requireKind(t, run(t, o.Move, map[string]interface{}{"source": "c.txt", "destination": "dest/a.txt"}), "already_exists")
}

func TestMoveDirectoryIntoItself(t *testing.T) {
	ops, root := newTestOps(t)
	o := &OperationsOps{FilesystemOps: ops}
	writeTestFile(t, root, "tree/leaf.txt", "x")

	requireKind(t, run(t, o.Move, map[string]interface{}{"source": "tree", "destination": "tree/inner"}), "invalid_argument")
	assert.FileExists(t, filepath.Join(root, "tree", "leaf.txt"))
}

func TestChmod(t *testing.T) {
	ops, root := newTestOps(t)
	o := &OperationsOps{FilesystemOps: ops}
	full := writeTestFile(t, root, "run.sh", "#!/bin/sh\n")

	for _, mode := range []string{"755", "0755", "0o755"} {
		data := requireSuccess(t, run(t, o.Chmod, map[string]interface{}{"path": "run.sh", "mode": mode}))
		assert.Equal(t, "0755", data["mode"])

		if runtime.GOOS != "windows" {
			assert.Equal(t, true, data["applied"])
			info, err := os.Stat(full)
			require.NoError(t, err)
			assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())
		}
	}
}

func TestChmodRejectsBadModes(t *testing.T) {
	ops, root := newTestOps(t)
	o := &OperationsOps{FilesystemOps: ops}
	writeTestFile(t, root, "f", "x")

	for _, mode := range []string{"rwx", "888", "4755", "-1", ""} {
		requireKind(t, run(t, o.Chmod, map[string]interface{}{"path": "f", "mode": mode}), "invalid_argument")
	}
	requireKind(t, run(t, o.Chmod, map[string]interface{}{"path": "nope", "mode": "644"}), "not_found")
}
