package filesystem

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/homefs/internal/shared/utils"
)

func TestStatFile(t *testing.T) {
	ops, root := newTestOps(t)
	m := &MetadataOps{FilesystemOps: ops}
	writeTestFile(t, root, "docs/notes.txt", "hello world\n")

	data := requireSuccess(t, run(t, m.Stat, map[string]interface{}{"path": "docs/notes.txt"}))
	assert.Equal(t, "notes.txt", data["name"])
	assert.Equal(t, "docs/notes.txt", data["path"])
	assert.EqualValues(t, 12, data["size"])
	assert.Equal(t, false, data["is_dir"])
	assert.Equal(t, ".txt", data["extension"])
	assert.Contains(t, data["mime_type"], "text/plain")
	assert.Equal(t, true, data["is_text"])
	assert.Equal(t, "utf-8", data["charset"])
	assert.NotContains(t, data, "checksum")
}

func TestStatBinaryHasNoCharset(t *testing.T) {
	ops, root := newTestOps(t)
	m := &MetadataOps{FilesystemOps: ops}
	png := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}
	require.NoError(t, os.WriteFile(filepath.Join(root, "img.png"), png, 0o644))

	data := requireSuccess(t, run(t, m.Stat, map[string]interface{}{"path": "img.png"}))
	assert.Equal(t, "image/png", data["mime_type"])
	assert.Equal(t, false, data["is_text"])
	assert.NotContains(t, data, "charset")
}

func TestStatDirectoryEntry(t *testing.T) {
	ops, root := newTestOps(t)
	m := &MetadataOps{FilesystemOps: ops}
	require.NoError(t, os.Mkdir(filepath.Join(root, "dir"), 0o755))

	data := requireSuccess(t, run(t, m.Stat, map[string]interface{}{"path": "dir", "checksum": true}))
	assert.Equal(t, true, data["is_dir"])
	assert.NotContains(t, data, "mime_type")
	assert.NotContains(t, data, "checksum")
}

func TestStatChecksum(t *testing.T) {
	ops, root := newTestOps(t)
	m := &MetadataOps{FilesystemOps: ops}
	writeTestFile(t, root, "hello.txt", "hello")

	tests := []struct {
		algorithm string
		want      utils.HashAlgorithm
	}{
		{"", utils.SHA256},
		{"sha256", utils.SHA256},
		{"BLAKE2b", utils.BLAKE2b},
	}

	for _, tt := range tests {
		t.Run(string(tt.want)+"/"+tt.algorithm, func(t *testing.T) {
			data := requireSuccess(t, run(t, m.Stat, map[string]interface{}{
				"path":      "hello.txt",
				"checksum":  true,
				"algorithm": tt.algorithm,
			}))
			assert.Equal(t, string(tt.want), data["algorithm"])
			assert.Equal(t, utils.NewHasher(tt.want).HashString("hello"), data["checksum"])
		})
	}

	data := requireSuccess(t, run(t, m.Stat, map[string]interface{}{"path": "hello.txt", "checksum": true}))
	assert.Equal(t, "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824", data["checksum"])

	requireKind(t, run(t, m.Stat, map[string]interface{}{"path": "hello.txt", "checksum": true, "algorithm": "md5"}), "invalid_argument")
}

func TestStatFailures(t *testing.T) {
	ops, _ := newTestOps(t)
	m := &MetadataOps{FilesystemOps: ops}

	requireKind(t, run(t, m.Stat, map[string]interface{}{}), "invalid_argument")
	requireKind(t, run(t, m.Stat, map[string]interface{}{"path": "missing"}), "not_found")
	requireKind(t, run(t, m.Stat, map[string]interface{}{"path": "../outside"}), "path_restricted")
}

func TestTrimPartialRune(t *testing.T) {
	euro := []byte("a€") // € is three bytes
	assert.Equal(t, []byte("a"), trimPartialRune(euro[:2]))
	assert.Equal(t, []byte("a"), trimPartialRune(euro[:3]))
	assert.Equal(t, euro, trimPartialRune(euro))
	assert.Equal(t, []byte{}, trimPartialRune([]byte{}))
}
