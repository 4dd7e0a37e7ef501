package filesystem

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/homefs/internal/archive"
	"github.com/GriffinCanCode/homefs/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/homefs/internal/render"
	"github.com/GriffinCanCode/homefs/internal/sandbox"
	"github.com/GriffinCanCode/homefs/internal/shared/fserr"
	"github.com/GriffinCanCode/homefs/internal/shared/types"
)

// FileInfo represents file metadata
type FileInfo struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	Size     int64  `json:"size"`
	IsDir    bool   `json:"is_dir"`
	Mode     string `json:"mode"`
	Modified string `json:"modified"`
}

// FilesystemOps carries the collaborators shared by every operation group.
type FilesystemOps struct {
	Sandbox  *sandbox.Sandbox
	Archive  *archive.Engine
	Renderer render.PDFRenderer
	Logger   *zap.Logger
	// Metrics may be nil.
	Metrics *monitoring.Metrics
}

// Success helper
func Success(data map[string]interface{}) (*types.Result, error) {
	return &types.Result{Success: true, Data: data}, nil
}

// Failure converts err into a failed Result carrying its kind. The Go error
// return stays nil: failures travel inside the Result.
func Failure(err error) (*types.Result, error) {
	msg := err.Error()
	return &types.Result{
		Success: false,
		Error:   &msg,
		Kind:    string(fserr.KindOf(err)),
	}, nil
}

// bind decodes the loose params map into a typed argument struct.
func bind(op string, params map[string]interface{}, dst interface{}) error {
	data, err := sonic.Marshal(params)
	if err != nil {
		return fserr.InvalidArgument(op, fmt.Sprintf("malformed arguments: %v", err))
	}
	if err := sonic.Unmarshal(data, dst); err != nil {
		return fserr.InvalidArgument(op, fmt.Sprintf("malformed arguments: %v", err))
	}
	return nil
}

func required(op, name, value string) error {
	if value == "" {
		return fserr.InvalidArgument(op, name+" parameter required")
	}
	return nil
}

// resolve maps a user path through the sandbox, counting rejections.
func (ops *FilesystemOps) resolve(tool, userPath string) (string, error) {
	full, err := ops.Sandbox.Resolve(userPath)
	if err != nil {
		if errors.Is(err, fserr.ErrPathRestricted) && ops.Metrics != nil {
			ops.Metrics.RecordPathRejection(tool)
		}
		return "", err
	}
	return full, nil
}

// relative renders an absolute path under the root as a slash path for
// results. The root itself is ".".
func (ops *FilesystemOps) relative(full string) string {
	rel, err := filepath.Rel(ops.Sandbox.Root(), full)
	if err != nil {
		return filepath.ToSlash(full)
	}
	return filepath.ToSlash(rel)
}

// statFile stats a path that must be an existing non-directory.
func statFile(op, full string) (fs.FileInfo, error) {
	info, err := os.Stat(full)
	if err != nil {
		return nil, fserr.FromOS(op, full, err)
	}
	if info.IsDir() {
		return nil, fserr.InvalidArgument(op, "path is a directory: "+full)
	}
	return info, nil
}

// statDir stats a path that must be an existing directory.
func statDir(op, full string) (fs.FileInfo, error) {
	info, err := os.Stat(full)
	if err != nil {
		return nil, fserr.FromOS(op, full, err)
	}
	if !info.IsDir() {
		return nil, fserr.InvalidArgument(op, "path is not a directory: "+full)
	}
	return info, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
