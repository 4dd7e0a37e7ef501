package filesystem

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"syscall"

	"github.com/GriffinCanCode/homefs/internal/shared/fserr"
	"github.com/GriffinCanCode/homefs/internal/shared/types"
)

const (
	toolList            = "filesystem.list"
	toolMkdir           = "filesystem.mkdir"
	toolDeleteDirectory = "filesystem.delete_directory"
	toolStatDirectory   = "filesystem.stat_directory"
)

// DirectoryOps handles directory operations
type DirectoryOps struct {
	*FilesystemOps
}

// GetTools returns directory operation tool definitions
func (d *DirectoryOps) GetTools() []types.Tool {
	return []types.Tool{
		{
			ID:          toolList,
			Name:        "List Directory",
			Description: "List directory contents with metadata",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "Directory path (default: root)", Required: false},
			},
			Returns: "object",
		},
		{
			ID:          toolMkdir,
			Name:        "Create Directory",
			Description: "Create a directory and any missing parents",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "Directory path", Required: true},
			},
			Returns: "object",
		},
		{
			ID:          toolDeleteDirectory,
			Name:        "Delete Directory",
			Description: "Delete a directory; only empty ones unless recursive is set",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "Directory path", Required: true},
				{Name: "recursive", Type: "boolean", Description: "Delete contents too (default false)", Required: false},
			},
			Returns: "object",
		},
		{
			ID:          toolStatDirectory,
			Name:        "Directory Stats",
			Description: "Count files and directories recursively and total their size",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "Directory path (default: root)", Required: false},
			},
			Returns: "object",
		},
	}
}

type deleteDirArgs struct {
	Path      string `json:"path"`
	Recursive bool   `json:"recursive"`
}

// List lists directory contents
func (d *DirectoryOps) List(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	var args pathArgs
	if err := bind(toolList, params, &args); err != nil {
		return Failure(err)
	}

	full, err := d.resolve(toolList, args.Path)
	if err != nil {
		return Failure(err)
	}
	if _, err := statDir(toolList, full); err != nil {
		return Failure(err)
	}

	dirEntries, err := os.ReadDir(full)
	if err != nil {
		return Failure(fserr.FromOS(toolList, full, err))
	}

	entries := make([]FileInfo, 0, len(dirEntries))
	for _, de := range dirEntries {
		info, err := de.Info()
		if err != nil {
			// Removed between ReadDir and Info.
			continue
		}
		entries = append(entries, FileInfo{
			Name:     de.Name(),
			Path:     d.relative(filepath.Join(full, de.Name())),
			Size:     info.Size(),
			IsDir:    de.IsDir(),
			Mode:     info.Mode().String(),
			Modified: formatTime(info.ModTime()),
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })

	return Success(map[string]interface{}{
		"path":    d.relative(full),
		"entries": entries,
		"count":   len(entries),
	})
}

// Mkdir creates a directory with parents
func (d *DirectoryOps) Mkdir(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	var args pathArgs
	if err := bind(toolMkdir, params, &args); err != nil {
		return Failure(err)
	}
	if err := required(toolMkdir, "path", args.Path); err != nil {
		return Failure(err)
	}

	full, err := d.resolve(toolMkdir, args.Path)
	if err != nil {
		return Failure(err)
	}

	if err := os.MkdirAll(full, 0o755); err != nil {
		// MkdirAll reports ENOTDIR when a file sits on the path.
		if errors.Is(err, syscall.ENOTDIR) || errors.Is(err, fs.ErrExist) {
			return Failure(fserr.AlreadyExists(toolMkdir, full, err))
		}
		return Failure(fserr.FromOS(toolMkdir, full, err))
	}

	return Success(map[string]interface{}{"created": true, "path": args.Path})
}

// DeleteDirectory removes a directory. The root itself is never removed.
func (d *DirectoryOps) DeleteDirectory(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	var args deleteDirArgs
	if err := bind(toolDeleteDirectory, params, &args); err != nil {
		return Failure(err)
	}

	full, err := d.resolve(toolDeleteDirectory, args.Path)
	if err != nil {
		return Failure(err)
	}
	if full == d.Sandbox.Root() {
		return Failure(fserr.InvalidArgument(toolDeleteDirectory, "refusing to delete the root directory"))
	}

	info, err := os.Lstat(full)
	if err != nil {
		return Failure(fserr.FromOS(toolDeleteDirectory, full, err))
	}
	if !info.IsDir() {
		return Failure(fserr.InvalidArgument(toolDeleteDirectory, "path is not a directory: "+args.Path))
	}

	if args.Recursive {
		err = os.RemoveAll(full)
	} else {
		err = os.Remove(full)
	}
	if err != nil {
		// ENOTEMPTY also satisfies fs.ErrExist, so test it first.
		if errors.Is(err, syscall.ENOTEMPTY) {
			return Failure(fserr.InvalidArgument(toolDeleteDirectory, "directory not empty, set recursive to delete contents: "+args.Path))
		}
		return Failure(fserr.FromOS(toolDeleteDirectory, full, err))
	}

	return Success(map[string]interface{}{
		"deleted":   true,
		"path":      args.Path,
		"recursive": args.Recursive,
	})
}

// StatDirectory totals a directory tree
func (d *DirectoryOps) StatDirectory(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	var args pathArgs
	if err := bind(toolStatDirectory, params, &args); err != nil {
		return Failure(err)
	}

	full, err := d.resolve(toolStatDirectory, args.Path)
	if err != nil {
		return Failure(err)
	}
	if _, err := statDir(toolStatDirectory, full); err != nil {
		return Failure(err)
	}

	var files, dirs, size int64
	err = walkTree(ctx, full, func(p string, de fs.DirEntry) error {
		if p == full {
			return nil
		}
		if de.IsDir() {
			dirs++
			return nil
		}
		files++
		if info, err := de.Info(); err == nil {
			size += info.Size()
		}
		return nil
	})
	if err != nil {
		return Failure(walkError(toolStatDirectory, full, err))
	}

	return Success(map[string]interface{}{
		"path":        d.relative(full),
		"files":       files,
		"directories": dirs,
		"total_size":  size,
	})
}
