package filesystem

import (
	"context"
	"os"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/homefs/internal/archive"
	"github.com/GriffinCanCode/homefs/internal/shared/types"
)

const (
	toolCompress    = "filesystem.compress"
	toolExtract     = "filesystem.extract"
	toolArchiveList = "filesystem.archive_list"
)

// ArchivesOps handles archive operations (zip, tar, tar.gz, tar.zst)
type ArchivesOps struct {
	*FilesystemOps
}

// GetTools returns archive operation tool definitions
func (a *ArchivesOps) GetTools() []types.Tool {
	return []types.Tool{
		{
			ID:          toolCompress,
			Name:        "Compress Directory",
			Description: "Archive a directory; format follows the output extension (.zip, .tar, .tar.gz, .tgz, .tar.zst); an existing output is replaced",
			Parameters: []types.Parameter{
				{Name: "source", Type: "string", Description: "Source directory", Required: true},
				{Name: "output", Type: "string", Description: "Output archive path", Required: true},
			},
			Returns: "object",
		},
		{
			ID:          toolExtract,
			Name:        "Extract Archive",
			Description: "Extract an archive; entries escaping the destination abort the run",
			Parameters: []types.Parameter{
				{Name: "archive", Type: "string", Description: "Archive file path", Required: true},
				{Name: "destination", Type: "string", Description: "Destination directory", Required: true},
			},
			Returns: "object",
		},
		{
			ID:          toolArchiveList,
			Name:        "List Archive",
			Description: "List archive entries without extracting",
			Parameters: []types.Parameter{
				{Name: "archive", Type: "string", Description: "Archive file path", Required: true},
			},
			Returns: "object",
		},
	}
}

type compressArgs struct {
	Source string `json:"source"`
	Output string `json:"output"`
}

type extractArgs struct {
	Archive     string `json:"archive"`
	Destination string `json:"destination"`
}

type archiveArgs struct {
	Archive string `json:"archive"`
}

// Compress archives a directory tree
func (a *ArchivesOps) Compress(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	var args compressArgs
	if err := bind(toolCompress, params, &args); err != nil {
		return Failure(err)
	}
	if err := required(toolCompress, "output", args.Output); err != nil {
		return Failure(err)
	}

	src, err := a.resolve(toolCompress, args.Source)
	if err != nil {
		return Failure(err)
	}
	out, err := a.resolve(toolCompress, args.Output)
	if err != nil {
		return Failure(err)
	}

	_, statErr := os.Lstat(out)
	replaced := statErr == nil

	stats, err := a.Archive.Compress(ctx, src, out)
	if err != nil {
		return Failure(err)
	}
	a.recordBytes("compress", stats)

	return Success(map[string]interface{}{
		"created":    true,
		"replaced":   replaced,
		"source":     a.relative(src),
		"output":     a.relative(out),
		"format":     string(stats.Format),
		"files":      stats.Files,
		"dirs":       stats.Dirs,
		"total_size": stats.Bytes,
	})
}

// Extract unpacks an archive into a directory
func (a *ArchivesOps) Extract(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	var args extractArgs
	if err := bind(toolExtract, params, &args); err != nil {
		return Failure(err)
	}
	if err := required(toolExtract, "archive", args.Archive); err != nil {
		return Failure(err)
	}

	archivePath, err := a.resolve(toolExtract, args.Archive)
	if err != nil {
		return Failure(err)
	}
	dest, err := a.resolve(toolExtract, args.Destination)
	if err != nil {
		return Failure(err)
	}

	stats, err := a.Archive.Extract(ctx, archivePath, dest)
	a.recordBytes("extract", stats)
	if err != nil {
		a.Logger.Warn("Extraction aborted",
			zap.String("archive", args.Archive),
			zap.Int("files_written", stats.Files),
			zap.Error(err))
		return Failure(err)
	}

	return Success(map[string]interface{}{
		"extracted":   true,
		"archive":     a.relative(archivePath),
		"destination": a.relative(dest),
		"format":      string(stats.Format),
		"files":       stats.Files,
		"dirs":        stats.Dirs,
		"total_size":  stats.Bytes,
	})
}

// List lists archive entries
func (a *ArchivesOps) List(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	var args archiveArgs
	if err := bind(toolArchiveList, params, &args); err != nil {
		return Failure(err)
	}
	if err := required(toolArchiveList, "archive", args.Archive); err != nil {
		return Failure(err)
	}

	archivePath, err := a.resolve(toolArchiveList, args.Archive)
	if err != nil {
		return Failure(err)
	}

	entries, err := a.Archive.List(ctx, archivePath)
	if err != nil {
		return Failure(err)
	}

	return Success(map[string]interface{}{
		"archive": a.relative(archivePath),
		"entries": entries,
		"count":   len(entries),
	})
}

func (a *ArchivesOps) recordBytes(direction string, stats archive.Stats) {
	if a.Metrics != nil {
		a.Metrics.RecordArchiveBytes(direction, stats.Bytes)
	}
}
