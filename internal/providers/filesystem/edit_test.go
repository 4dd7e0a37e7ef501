package filesystem

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEditUniqueReplace(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		params   map[string]interface{}
		kind     string
		expected string
	}{
		{
			name:     "single occurrence",
			content:  "This is some content. This is unique.",
			params:   map[string]interface{}{"old_content": "some content", "new_content": "updated content"},
			expected: "This is updated content. This is unique.",
		},
		{
			name:     "duplicate occurrences",
			content:  "duplicate content duplicate content",
			params:   map[string]interface{}{"old_content": "duplicate content", "new_content": "x"},
			kind:     "not_unique",
			expected: "duplicate content duplicate content",
		},
		{
			name:     "no occurrence",
			content:  "nothing to see",
			params:   map[string]interface{}{"old_content": "absent", "new_content": "x"},
			kind:     "not_found",
			expected: "nothing to see",
		},
		{
			name:     "metacharacters are literal by default",
			content:  "price: $5.00 (approx)",
			params:   map[string]interface{}{"old_content": "$5.00 (approx)", "new_content": "$6.00"},
			expected: "price: $6.00",
		},
		{
			name:     "replacement is literal by default",
			content:  "key=value",
			params:   map[string]interface{}{"old_content": "value", "new_content": "$1"},
			expected: "key=$1",
		},
		{
			name:     "regex with capture group",
			content:  "version: 1.2.3",
			params:   map[string]interface{}{"old_content": `(\d+)\.(\d+)\.(\d+)`, "new_content": "$1.$2.4", "regex": true},
			expected: "version: 1.2.4",
		},
		{
			name:     "regex counts every match",
			content:  "a1 b2 c3",
			params:   map[string]interface{}{"old_content": `\d`, "new_content": "#", "regex": true},
			kind:     "not_unique",
			expected: "a1 b2 c3",
		},
		{
			name:     "invalid regex",
			content:  "abc",
			params:   map[string]interface{}{"old_content": "(", "new_content": "x", "regex": true},
			kind:     "invalid_argument",
			expected: "abc",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ops, root := newTestOps(t)
			e := &EditOps{FilesystemOps: ops}
			writeTestFile(t, root, "file.txt", tt.content)

			params := map[string]interface{}{"path": "file.txt"}
			for k, v := range tt.params {
				params[k] = v
			}

			result := run(t, e.Edit, params)
			if tt.kind == "" {
				requireSuccess(t, result)
			} else {
				requireKind(t, result, tt.kind)
			}
			assert.Equal(t, tt.expected, readTestFile(t, root, "file.txt"))
		})
	}
}

func TestEditRequiresOldContent(t *testing.T) {
	ops, root := newTestOps(t)
	e := &EditOps{FilesystemOps: ops}
	writeTestFile(t, root, "file.txt", "abc")

	requireKind(t, run(t, e.Edit, map[string]interface{}{"path": "file.txt", "new_content": "x"}), "invalid_argument")
}

func TestReplaceAll(t *testing.T) {
	tests := []struct {
		name         string
		content      string
		params       map[string]interface{}
		replacements int
		expected     string
	}{
		{
			name:         "every occurrence",
			content:      "one two one three",
			params:       map[string]interface{}{"old_string": "one", "new_string": "zero"},
			replacements: 2,
			expected:     "zero two zero three",
		},
		{
			name:         "absent pattern is a no-op",
			content:      "one two one three",
			params:       map[string]interface{}{"old_string": "four", "new_string": "five"},
			replacements: 0,
			expected:     "one two one three",
		},
		{
			name:         "literal dot",
			content:      "a.b.c abc",
			params:       map[string]interface{}{"old_string": ".", "new_string": "/"},
			replacements: 2,
			expected:     "a/b/c abc",
		},
		{
			name:         "regex",
			content:      "x1 y22 z333",
			params:       map[string]interface{}{"old_string": `\d+`, "new_string": "N", "regex": true},
			replacements: 3,
			expected:     "xN yN zN",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ops, root := newTestOps(t)
			e := &EditOps{FilesystemOps: ops}
			writeTestFile(t, root, "file.txt", tt.content)

			params := map[string]interface{}{"path": "file.txt"}
			for k, v := range tt.params {
				params[k] = v
			}

			data := requireSuccess(t, run(t, e.ReplaceAll, params))
			assert.EqualValues(t, tt.replacements, data["replacements"])
			assert.Equal(t, tt.expected, readTestFile(t, root, "file.txt"))
		})
	}
}

func TestReplaceAllIsIdempotent(t *testing.T) {
	ops, root := newTestOps(t)
	e := &EditOps{FilesystemOps: ops}
	writeTestFile(t, root, "file.txt", "one two one")

	params := map[string]interface{}{"path": "file.txt", "old_string": "one", "new_string": "zero"}
	requireSuccess(t, run(t, e.ReplaceAll, params))
	data := requireSuccess(t, run(t, e.ReplaceAll, params))

	assert.EqualValues(t, 0, data["replacements"])
	assert.Equal(t, "zero two zero", readTestFile(t, root, "file.txt"))
}

func TestReplaceAllRejectsEmptyPattern(t *testing.T) {
	ops, root := newTestOps(t)
	e := &EditOps{FilesystemOps: ops}
	writeTestFile(t, root, "file.txt", "abc")

	requireKind(t, run(t, e.ReplaceAll, map[string]interface{}{"path": "file.txt", "new_string": "x"}), "invalid_argument")
	requireKind(t, run(t, e.ReplaceAll, map[string]interface{}{"path": "../file.txt", "old_string": "a"}), "path_restricted")
}
