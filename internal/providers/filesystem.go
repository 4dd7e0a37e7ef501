package providers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/homefs/internal/infrastructure/monitoring"
	fsProvider "github.com/GriffinCanCode/homefs/internal/providers/filesystem"
	"github.com/GriffinCanCode/homefs/internal/shared/fserr"
	"github.com/GriffinCanCode/homefs/internal/shared/types"
)

// Filesystem provides sandboxed file, directory and archive operations
type Filesystem struct {
	// Module instances
	basic      *fsProvider.BasicOps
	edit       *fsProvider.EditOps
	directory  *fsProvider.DirectoryOps
	operations *fsProvider.OperationsOps
	metadata   *fsProvider.MetadataOps
	search     *fsProvider.SearchOps
	export     *fsProvider.ExportOps
	archives   *fsProvider.ArchivesOps

	logger  *zap.Logger
	metrics *monitoring.Metrics
	tools   map[string]struct{}
}

// NewFilesystem creates a modular filesystem provider. ops.Sandbox and
// ops.Archive are required; a nil logger becomes a no-op logger.
func NewFilesystem(ops *fsProvider.FilesystemOps) *Filesystem {
	if ops.Logger == nil {
		ops.Logger = zap.NewNop()
	}

	f := &Filesystem{
		basic:      &fsProvider.BasicOps{FilesystemOps: ops},
		edit:       &fsProvider.EditOps{FilesystemOps: ops},
		directory:  &fsProvider.DirectoryOps{FilesystemOps: ops},
		operations: &fsProvider.OperationsOps{FilesystemOps: ops},
		metadata:   &fsProvider.MetadataOps{FilesystemOps: ops},
		search:     &fsProvider.SearchOps{FilesystemOps: ops},
		export:     &fsProvider.ExportOps{FilesystemOps: ops},
		archives:   &fsProvider.ArchivesOps{FilesystemOps: ops},
		logger:     ops.Logger,
		metrics:    ops.Metrics,
		tools:      make(map[string]struct{}),
	}

	for _, tool := range f.Definition().Tools {
		f.tools[tool.ID] = struct{}{}
	}
	return f
}

// Definition returns service metadata with all module tools
func (f *Filesystem) Definition() types.Service {
	// Collect tools from all modules
	tools := []types.Tool{}
	tools = append(tools, f.basic.GetTools()...)
	tools = append(tools, f.edit.GetTools()...)
	tools = append(tools, f.directory.GetTools()...)
	tools = append(tools, f.operations.GetTools()...)
	tools = append(tools, f.metadata.GetTools()...)
	tools = append(tools, f.search.GetTools()...)
	tools = append(tools, f.export.GetTools()...)
	tools = append(tools, f.archives.GetTools()...)

	return types.Service{
		ID:          "filesystem",
		Name:        "Filesystem Service",
		Description: "File, directory and archive operations confined to a single trusted root",
		Category:    types.CategoryFilesystem,
		Capabilities: []string{
			"read",
			"write",
			"edit",
			"delete",
			"list",
			"stat",
			"move",
			"search",
			"export",
			"archive",
			"checksum",
			"charset_detection",
		},
		Tools: tools,
	}
}

// Execute routes to the owning module, timing and logging the call
func (f *Filesystem) Execute(ctx context.Context, toolID string, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	if _, ok := f.tools[toolID]; !ok {
		return fsProvider.Failure(fserr.InvalidArgument("dispatch", fmt.Sprintf("unknown tool: %s", toolID)))
	}
	if params == nil {
		params = map[string]interface{}{}
	}

	timer := monitoring.NewTimer(f.metrics, toolID)
	result, err := f.dispatch(ctx, toolID, params, appCtx)
	if err != nil {
		result, err = fsProvider.Failure(err)
	} else if result == nil {
		result, err = fsProvider.Failure(fserr.IO("dispatch", "", fmt.Errorf("tool %s returned no result", toolID)))
	}
	elapsed := timer.Stop(result.Kind)

	fields := []zap.Field{
		zap.String("tool", toolID),
		zap.Duration("duration", elapsed),
	}
	if appCtx != nil && appCtx.RequestID != "" {
		fields = append(fields, zap.String("request_id", appCtx.RequestID))
	}
	if result.Success {
		f.logger.Debug("Operation completed", fields...)
	} else {
		fields = append(fields, zap.String("kind", result.Kind))
		if result.Error != nil {
			fields = append(fields, zap.String("error", *result.Error))
		}
		f.logger.Warn("Operation failed", fields...)
	}

	return result, err
}

func (f *Filesystem) dispatch(ctx context.Context, toolID string, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	switch toolID {
	// Basic operations
	case "filesystem.read":
		return f.basic.Read(ctx, params, appCtx)
	case "filesystem.create":
		return f.basic.Create(ctx, params, appCtx)
	case "filesystem.save":
		return f.basic.Save(ctx, params, appCtx)
	case "filesystem.append":
		return f.basic.Append(ctx, params, appCtx)
	case "filesystem.prepend":
		return f.basic.Prepend(ctx, params, appCtx)
	case "filesystem.delete":
		return f.basic.Delete(ctx, params, appCtx)

	// Edit operations
	case "filesystem.edit":
		return f.edit.Edit(ctx, params, appCtx)
	case "filesystem.replace_all":
		return f.edit.ReplaceAll(ctx, params, appCtx)

	// Directory operations
	case "filesystem.list":
		return f.directory.List(ctx, params, appCtx)
	case "filesystem.mkdir":
		return f.directory.Mkdir(ctx, params, appCtx)
	case "filesystem.delete_directory":
		return f.directory.DeleteDirectory(ctx, params, appCtx)
	case "filesystem.stat_directory":
		return f.directory.StatDirectory(ctx, params, appCtx)

	// Rename, move, permissions
	case "filesystem.rename":
		return f.operations.Rename(ctx, params, appCtx)
	case "filesystem.move":
		return f.operations.Move(ctx, params, appCtx)
	case "filesystem.chmod":
		return f.operations.Chmod(ctx, params, appCtx)

	// Metadata
	case "filesystem.stat":
		return f.metadata.Stat(ctx, params, appCtx)

	// Search
	case "filesystem.search":
		return f.search.Search(ctx, params, appCtx)
	case "filesystem.recent_files":
		return f.search.RecentFiles(ctx, params, appCtx)
	case "filesystem.search_files":
		return f.search.SearchFiles(ctx, params, appCtx)

	// Export
	case "filesystem.export":
		return f.export.Export(ctx, params, appCtx)

	// Archives
	case "filesystem.compress":
		return f.archives.Compress(ctx, params, appCtx)
	case "filesystem.extract":
		return f.archives.Extract(ctx, params, appCtx)
	case "filesystem.archive_list":
		return f.archives.List(ctx, params, appCtx)

	default:
		return fsProvider.Failure(fserr.InvalidArgument("dispatch", fmt.Sprintf("unknown tool: %s", toolID)))
	}
}
