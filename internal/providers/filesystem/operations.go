package filesystem

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/GriffinCanCode/homefs/internal/sandbox"
	"github.com/GriffinCanCode/homefs/internal/shared/fserr"
	"github.com/GriffinCanCode/homefs/internal/shared/types"
)

const (
	toolRename = "filesystem.rename"
	toolMove   = "filesystem.move"
	toolChmod  = "filesystem.chmod"
)

// OperationsOps handles file operations (rename, move, permissions)
type OperationsOps struct {
	*FilesystemOps
}

// GetTools returns file operation tool definitions
func (o *OperationsOps) GetTools() []types.Tool {
	return []types.Tool{
		{
			ID:          toolRename,
			Name:        "Rename",
			Description: "Rename a file or directory; never overwrites the destination",
			Parameters: []types.Parameter{
				{Name: "source", Type: "string", Description: "Source path", Required: true},
				{Name: "destination", Type: "string", Description: "New path", Required: true},
			},
			Returns: "object",
		},
		{
			ID:          toolMove,
			Name:        "Move",
			Description: "Move a file or directory; an existing destination directory receives the source",
			Parameters: []types.Parameter{
				{Name: "source", Type: "string", Description: "Source path", Required: true},
				{Name: "destination", Type: "string", Description: "Destination path or directory", Required: true},
			},
			Returns: "object",
		},
		{
			ID:          toolChmod,
			Name:        "Change Mode",
			Description: "Set POSIX permission bits from an octal string such as \"644\"",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "File or directory path", Required: true},
				{Name: "mode", Type: "string", Description: "Octal mode (e.g., \"0755\")", Required: true},
			},
			Returns: "object",
		},
	}
}

type transferArgs struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
}

type chmodArgs struct {
	Path string `json:"path"`
	Mode string `json:"mode"`
}

// resolvePair resolves both ends of a transfer. Either escaping fails the
// whole operation.
func (o *OperationsOps) resolvePair(tool string, args transferArgs) (string, string, error) {
	if err := required(tool, "source", args.Source); err != nil {
		return "", "", err
	}
	if err := required(tool, "destination", args.Destination); err != nil {
		return "", "", err
	}

	src, err := o.resolve(tool, args.Source)
	if err != nil {
		return "", "", err
	}
	dst, err := o.resolve(tool, args.Destination)
	if err != nil {
		return "", "", err
	}
	if src == o.Sandbox.Root() {
		return "", "", fserr.InvalidArgument(tool, "cannot move the root directory")
	}
	return src, dst, nil
}

// Rename renames a file. It checks the destination first and then renames,
// so a concurrent creator can still race it.
func (o *OperationsOps) Rename(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	var args transferArgs
	if err := bind(toolRename, params, &args); err != nil {
		return Failure(err)
	}
	src, dst, err := o.resolvePair(toolRename, args)
	if err != nil {
		return Failure(err)
	}

	if _, err := os.Lstat(src); err != nil {
		return Failure(fserr.FromOS(toolRename, src, err))
	}
	if err := checkVacant(toolRename, dst); err != nil {
		return Failure(err)
	}
	if _, err := statDir(toolRename, filepath.Dir(dst)); err != nil {
		return Failure(err)
	}

	if err := rename(toolRename, src, dst); err != nil {
		return Failure(err)
	}

	return Success(map[string]interface{}{
		"renamed":     true,
		"source":      args.Source,
		"destination": o.relative(dst),
	})
}

// Move moves a file or directory, creating missing parents
func (o *OperationsOps) Move(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	var args transferArgs
	if err := bind(toolMove, params, &args); err != nil {
		return Failure(err)
	}
	src, dst, err := o.resolvePair(toolMove, args)
	if err != nil {
		return Failure(err)
	}

	srcInfo, err := os.Lstat(src)
	if err != nil {
		return Failure(fserr.FromOS(toolMove, src, err))
	}
	if info, err := os.Stat(dst); err == nil && info.IsDir() {
		dst = filepath.Join(dst, filepath.Base(src))
	}
	if srcInfo.IsDir() && sandbox.Within(src, dst) {
		return Failure(fserr.InvalidArgument(toolMove, "cannot move a directory into itself"))
	}
	if err := checkVacant(toolMove, dst); err != nil {
		return Failure(err)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return Failure(fserr.FromOS(toolMove, dst, err))
	}

	if err := rename(toolMove, src, dst); err != nil {
		return Failure(err)
	}

	return Success(map[string]interface{}{
		"moved":       true,
		"source":      args.Source,
		"destination": o.relative(dst),
	})
}

func checkVacant(op, path string) error {
	_, err := os.Lstat(path)
	switch {
	case err == nil:
		return fserr.AlreadyExists(op, path, nil)
	case errors.Is(err, os.ErrNotExist):
		return nil
	default:
		return fserr.FromOS(op, path, err)
	}
}

func rename(op, src, dst string) error {
	if err := os.Rename(src, dst); err != nil {
		return fserr.FromOS(op, src, err)
	}
	return nil
}

// Chmod applies permission bits. Platforms without POSIX modes report
// applied:false instead of failing.
func (o *OperationsOps) Chmod(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	var args chmodArgs
	if err := bind(toolChmod, params, &args); err != nil {
		return Failure(err)
	}
	if err := required(toolChmod, "path", args.Path); err != nil {
		return Failure(err)
	}
	if err := required(toolChmod, "mode", args.Mode); err != nil {
		return Failure(err)
	}

	mode, err := parseMode(args.Mode)
	if err != nil {
		return Failure(err)
	}

	full, err := o.resolve(toolChmod, args.Path)
	if err != nil {
		return Failure(err)
	}
	if _, err := os.Stat(full); err != nil {
		return Failure(fserr.FromOS(toolChmod, full, err))
	}

	applied := true
	if runtime.GOOS == "windows" {
		applied = false
	} else if err := os.Chmod(full, mode); err != nil {
		if !errors.Is(err, errors.ErrUnsupported) {
			return Failure(fserr.FromOS(toolChmod, full, err))
		}
		applied = false
	}

	if !applied {
		o.Logger.Debug("Chmod not supported on this platform, skipped")
	}

	return Success(map[string]interface{}{
		"path":    args.Path,
		"mode":    fmt.Sprintf("%04o", uint32(mode)),
		"applied": applied,
	})
}

func parseMode(s string) (os.FileMode, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0o"), "0O")
	v, err := strconv.ParseUint(s, 8, 32)
	if err != nil || v > 0o777 {
		return 0, fserr.InvalidArgument(toolChmod, "mode must be an octal permission between 000 and 777: "+s)
	}
	return os.FileMode(v), nil
}
