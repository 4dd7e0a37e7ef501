package filesystem

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"

	"github.com/GriffinCanCode/homefs/internal/shared/fserr"
	"github.com/GriffinCanCode/homefs/internal/shared/types"
	"github.com/GriffinCanCode/homefs/internal/shared/utils"
)

const toolStat = "filesystem.stat"

// MetadataOps handles file metadata
type MetadataOps struct {
	*FilesystemOps
}

// GetTools returns metadata tool definitions
func (m *MetadataOps) GetTools() []types.Tool {
	return []types.Tool{
		{
			ID:          toolStat,
			Name:        "File Stats",
			Description: "Size, mode, timestamps and MIME type; text files also report a charset",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "File or directory path", Required: true},
				{Name: "checksum", Type: "boolean", Description: "Compute a content checksum", Required: false},
				{Name: "algorithm", Type: "string", Description: "sha256 (default) or blake2b", Required: false},
			},
			Returns: "object",
		},
	}
}

type statArgs struct {
	Path      string `json:"path"`
	Checksum  bool   `json:"checksum"`
	Algorithm string `json:"algorithm"`
}

// Stat gets file stats
func (m *MetadataOps) Stat(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	var args statArgs
	if err := bind(toolStat, params, &args); err != nil {
		return Failure(err)
	}
	if err := required(toolStat, "path", args.Path); err != nil {
		return Failure(err)
	}

	var hasher *utils.Hasher
	if args.Checksum {
		alg, err := utils.ParseHashAlgorithm(args.Algorithm)
		if err != nil {
			return Failure(fserr.InvalidArgument(toolStat, err.Error()))
		}
		hasher = utils.NewHasher(alg)
	}

	full, err := m.resolve(toolStat, args.Path)
	if err != nil {
		return Failure(err)
	}
	info, err := os.Stat(full)
	if err != nil {
		return Failure(fserr.FromOS(toolStat, full, err))
	}

	result := map[string]interface{}{
		"name":      info.Name(),
		"path":      m.relative(full),
		"size":      info.Size(),
		"mode":      info.Mode().String(),
		"is_dir":    info.IsDir(),
		"modified":  formatTime(info.ModTime()),
		"extension": filepath.Ext(info.Name()),
	}
	if info.IsDir() {
		return Success(result)
	}

	mtype, err := mimetype.DetectFile(full)
	if err != nil {
		return Failure(fserr.FromOS(toolStat, full, err))
	}
	result["mime_type"] = mtype.String()
	result["is_text"] = isText(mtype)

	if isText(mtype) {
		sample, err := readSample(full, charsetSample)
		if err != nil {
			return Failure(err)
		}
		if int64(len(sample)) == charsetSample {
			sample = trimPartialRune(sample)
		}
		result["charset"] = DetectCharset(sample)
	}

	if hasher != nil {
		sum, err := checksum(full, hasher)
		if err != nil {
			return Failure(err)
		}
		result["checksum"] = sum
		result["algorithm"] = string(hasher.Algorithm())
	}

	return Success(result)
}

func readSample(full string, n int64) ([]byte, error) {
	f, err := os.Open(full)
	if err != nil {
		return nil, fserr.FromOS(toolStat, full, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, n))
	if err != nil {
		return nil, fserr.IO(toolStat, full, err)
	}
	return data, nil
}

// checksum streams the file through hasher.
func checksum(full string, hasher *utils.Hasher) (string, error) {
	f, err := os.Open(full)
	if err != nil {
		return "", fserr.FromOS(toolStat, full, err)
	}
	defer f.Close()

	sum, _, err := hasher.HashReader(f)
	if err != nil {
		return "", fserr.IO(toolStat, full, err)
	}
	return sum, nil
}
