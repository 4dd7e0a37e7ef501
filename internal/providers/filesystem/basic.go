package filesystem

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/GriffinCanCode/homefs/internal/shared/fserr"
	"github.com/GriffinCanCode/homefs/internal/shared/types"
)

const (
	toolRead    = "filesystem.read"
	toolCreate  = "filesystem.create"
	toolSave    = "filesystem.save"
	toolAppend  = "filesystem.append"
	toolPrepend = "filesystem.prepend"
	toolDelete  = "filesystem.delete"
)

// BasicOps handles basic file operations
type BasicOps struct {
	*FilesystemOps
}

// GetTools returns basic file operation tool definitions
func (b *BasicOps) GetTools() []types.Tool {
	return []types.Tool{
		{
			ID:          toolRead,
			Name:        "Read File",
			Description: "Read file contents as UTF-8 text (other encodings are detected and transcoded)",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "File path", Required: true},
			},
			Returns: "object",
		},
		{
			ID:          toolCreate,
			Name:        "Create File",
			Description: "Create a new file; fails if anything already exists at the path",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "File path (parent must exist)", Required: true},
				{Name: "content", Type: "string", Description: "Initial content", Required: false},
			},
			Returns: "object",
		},
		{
			ID:          toolSave,
			Name:        "Save Content",
			Description: "Write content to a file, creating parent directories",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "File path", Required: true},
				{Name: "content", Type: "string", Description: "Content to write", Required: true},
				{Name: "overwrite", Type: "boolean", Description: "Replace an existing file (default false)", Required: false},
			},
			Returns: "object",
		},
		{
			ID:          toolAppend,
			Name:        "Append to File",
			Description: "Append content to the end of an existing file",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "File path", Required: true},
				{Name: "content", Type: "string", Description: "Content to append", Required: true},
			},
			Returns: "object",
		},
		{
			ID:          toolPrepend,
			Name:        "Prepend to File",
			Description: "Insert content at the start of an existing file",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "File path", Required: true},
				{Name: "content", Type: "string", Description: "Content to prepend", Required: true},
			},
			Returns: "object",
		},
		{
			ID:          toolDelete,
			Name:        "Delete File",
			Description: "Delete a file (use delete_directory for directories)",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "File path", Required: true},
			},
			Returns: "object",
		},
	}
}

type pathArgs struct {
	Path string `json:"path"`
}

type contentArgs struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

type saveArgs struct {
	Path      string `json:"path"`
	Content   string `json:"content"`
	Overwrite bool   `json:"overwrite"`
}

// Read reads file contents
func (b *BasicOps) Read(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	var args pathArgs
	if err := bind(toolRead, params, &args); err != nil {
		return Failure(err)
	}
	if err := required(toolRead, "path", args.Path); err != nil {
		return Failure(err)
	}

	full, err := b.resolve(toolRead, args.Path)
	if err != nil {
		return Failure(err)
	}
	if _, err := statFile(toolRead, full); err != nil {
		return Failure(err)
	}

	data, err := os.ReadFile(full)
	if err != nil {
		return Failure(fserr.FromOS(toolRead, full, err))
	}

	content, encoding := decodeText(data)
	return Success(map[string]interface{}{
		"path":     args.Path,
		"content":  content,
		"size":     len(data),
		"encoding": encoding,
	})
}

// Create creates a new file exclusively
func (b *BasicOps) Create(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	var args contentArgs
	if err := bind(toolCreate, params, &args); err != nil {
		return Failure(err)
	}
	if err := required(toolCreate, "path", args.Path); err != nil {
		return Failure(err)
	}

	full, err := b.resolve(toolCreate, args.Path)
	if err != nil {
		return Failure(err)
	}

	n, err := writeFile(toolCreate, full, args.Content, os.O_WRONLY|os.O_CREATE|os.O_EXCL)
	if err != nil {
		return Failure(err)
	}

	return Success(map[string]interface{}{"created": true, "path": args.Path, "size": n})
}

// Save writes content, creating parent directories. Without overwrite it is
// an exclusive create; a collision is reported, never retried as overwrite.
func (b *BasicOps) Save(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	var args saveArgs
	if err := bind(toolSave, params, &args); err != nil {
		return Failure(err)
	}
	if err := required(toolSave, "path", args.Path); err != nil {
		return Failure(err)
	}

	full, err := b.resolve(toolSave, args.Path)
	if err != nil {
		return Failure(err)
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return Failure(fserr.FromOS(toolSave, full, err))
	}

	flags := os.O_WRONLY | os.O_CREATE | os.O_EXCL
	if args.Overwrite {
		if info, err := os.Stat(full); err == nil && info.IsDir() {
			return Failure(fserr.InvalidArgument(toolSave, "path is a directory: "+args.Path))
		}
		flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}

	n, err := writeFile(toolSave, full, args.Content, flags)
	if err != nil {
		return Failure(err)
	}

	return Success(map[string]interface{}{
		"saved":     true,
		"path":      args.Path,
		"size":      n,
		"overwrite": args.Overwrite,
	})
}

// Append appends content to an existing file
func (b *BasicOps) Append(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	var args contentArgs
	if err := bind(toolAppend, params, &args); err != nil {
		return Failure(err)
	}
	if err := required(toolAppend, "path", args.Path); err != nil {
		return Failure(err)
	}

	full, err := b.resolve(toolAppend, args.Path)
	if err != nil {
		return Failure(err)
	}
	if _, err := statFile(toolAppend, full); err != nil {
		return Failure(err)
	}

	if _, err := writeFile(toolAppend, full, args.Content, os.O_WRONLY|os.O_APPEND); err != nil {
		return Failure(err)
	}

	info, err := os.Stat(full)
	if err != nil {
		return Failure(fserr.FromOS(toolAppend, full, err))
	}

	return Success(map[string]interface{}{
		"appended": true,
		"path":     args.Path,
		"size":     info.Size(),
	})
}

// Prepend writes content followed by the old file into a sibling temp file,
// then renames it over the original.
func (b *BasicOps) Prepend(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	var args contentArgs
	if err := bind(toolPrepend, params, &args); err != nil {
		return Failure(err)
	}
	if err := required(toolPrepend, "path", args.Path); err != nil {
		return Failure(err)
	}

	full, err := b.resolve(toolPrepend, args.Path)
	if err != nil {
		return Failure(err)
	}
	info, err := statFile(toolPrepend, full)
	if err != nil {
		return Failure(err)
	}

	size, err := prependFile(full, args.Content, info.Mode().Perm())
	if err != nil {
		return Failure(err)
	}

	return Success(map[string]interface{}{
		"prepended": true,
		"path":      args.Path,
		"size":      size,
	})
}

func prependFile(full, content string, perm os.FileMode) (int64, error) {
	src, err := os.Open(full)
	if err != nil {
		return 0, fserr.FromOS(toolPrepend, full, err)
	}
	defer src.Close()

	tmp := filepath.Join(filepath.Dir(full), "."+filepath.Base(full)+"."+uuid.NewString()+".tmp")
	dst, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return 0, fserr.FromOS(toolPrepend, tmp, err)
	}

	n, err := io.WriteString(dst, content)
	var copied int64
	if err == nil {
		copied, err = io.Copy(dst, src)
	}
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp)
		return 0, fserr.IO(toolPrepend, full, err)
	}

	if err := os.Rename(tmp, full); err != nil {
		os.Remove(tmp)
		return 0, fserr.IO(toolPrepend, full, err)
	}
	return int64(n) + copied, nil
}

// Delete removes a file
func (b *BasicOps) Delete(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	var args pathArgs
	if err := bind(toolDelete, params, &args); err != nil {
		return Failure(err)
	}
	if err := required(toolDelete, "path", args.Path); err != nil {
		return Failure(err)
	}

	full, err := b.resolve(toolDelete, args.Path)
	if err != nil {
		return Failure(err)
	}

	info, err := os.Lstat(full)
	if err != nil {
		return Failure(fserr.FromOS(toolDelete, full, err))
	}
	if info.IsDir() {
		return Failure(fserr.InvalidArgument(toolDelete, "path is a directory, use delete_directory: "+args.Path))
	}

	if err := os.Remove(full); err != nil {
		return Failure(fserr.FromOS(toolDelete, full, err))
	}

	return Success(map[string]interface{}{"deleted": true, "path": args.Path})
}

func writeFile(op, full, content string, flags int) (int, error) {
	f, err := os.OpenFile(full, flags, 0o644)
	if err != nil {
		return 0, fserr.FromOS(op, full, err)
	}

	n, err := f.WriteString(content)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return n, fserr.IO(op, full, err)
	}
	return n, nil
}
