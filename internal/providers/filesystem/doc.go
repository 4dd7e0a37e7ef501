// Package filesystem implements the sandboxed file operations behind the
// filesystem service.
//
// This package is organized into specialized modules:
//   - basic: read, create, save, append, prepend, delete
//   - edit: unique edit and replace-all (literal by default, regex opt-in)
//   - directory: list, mkdir, delete_directory, stat_directory
//   - operations: rename, move, chmod
//   - metadata: stat with MIME type, charset and checksums
//   - search: glob search, recent files, filtered file search
//   - export: Markdown and PDF export
//   - archives: compress, extract and list through the archive engine
//
// Every path argument is resolved through the sandbox before any filesystem
// call. Failures are returned inside the Result with a machine-readable kind;
// the Go error return is reserved for programming errors.
//
// Example Usage:
//
//	basic := &filesystem.BasicOps{FilesystemOps: ops}
//	result, err := basic.Read(ctx, map[string]interface{}{"path": "notes.txt"}, appCtx)
package filesystem
