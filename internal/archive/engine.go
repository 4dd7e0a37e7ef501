package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charlievieth/fastwalk"
	securejoin "github.com/cyphar/filepath-securejoin"
	"github.com/klauspost/compress/flate"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/homefs/internal/sandbox"
	"github.com/GriffinCanCode/homefs/internal/shared/fserr"
)

const (
	opCompress = "compress"
	opExtract  = "extract"
	opList     = "archive_list"
)

// Stats summarizes a compress or extract run.
type Stats struct {
	Format Format `json:"format"`
	Files  int    `json:"files"`
	Dirs   int    `json:"dirs"`
	Bytes  int64  `json:"bytes"`
}

// Engine compresses and extracts archives.
type Engine struct {
	logger   *zap.Logger
	level    int
	maxBytes int64
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLevel sets the compression level (-2..9, -1 for the codec default).
func WithLevel(level int) Option {
	return func(e *Engine) {
		e.level = level
	}
}

// WithMaxBytes caps the total uncompressed bytes one extraction may write.
// Zero disables the cap.
func WithMaxBytes(n int64) Option {
	return func(e *Engine) {
		e.maxBytes = n
	}
}

// New creates an archive engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		logger: zap.NewNop(),
		level:  flate.DefaultCompression,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Compress archives every file and directory under sourceDir into
// outputPath with names relative to sourceDir. The format follows the output
// extension and defaults to zip. An existing output file is replaced.
func (e *Engine) Compress(ctx context.Context, sourceDir, outputPath string) (Stats, error) {
	sourceDir = filepath.Clean(sourceDir)
	outputPath = filepath.Clean(outputPath)

	info, err := os.Stat(sourceDir)
	if err != nil {
		return Stats{}, fserr.FromOS(opCompress, sourceDir, err)
	}
	if !info.IsDir() {
		return Stats{}, fserr.InvalidArgument(opCompress, "source is not a directory: "+sourceDir)
	}

	format, ok := FormatFromName(outputPath)
	if !ok {
		format = FormatZip
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return Stats{}, fserr.FromOS(opCompress, outputPath, err)
	}
	out, err := os.Create(outputPath)
	if err != nil {
		return Stats{}, fserr.FromOS(opCompress, outputPath, err)
	}

	w, err := e.newWriter(out, format)
	if err != nil {
		out.Close()
		os.Remove(outputPath)
		return Stats{}, fserr.IO(opCompress, outputPath, err)
	}

	stats, walkErr := e.writeTree(ctx, sourceDir, outputPath, w)
	stats.Format = format

	closeErr := w.Close()
	if err := out.Close(); closeErr == nil {
		closeErr = err
	}

	if walkErr != nil || closeErr != nil {
		os.Remove(outputPath)
		if walkErr != nil {
			return Stats{}, walkErr
		}
		return Stats{}, fserr.IO(opCompress, outputPath, closeErr)
	}

	e.logger.Info("Archive created",
		zap.String("source", sourceDir),
		zap.String("output", outputPath),
		zap.String("format", string(format)),
		zap.Int("files", stats.Files),
		zap.Int("dirs", stats.Dirs),
		zap.Int64("bytes", stats.Bytes))

	return stats, nil
}

// writeTree walks sourceDir concurrently. fastwalk invokes the callback from
// several goroutines, so every write to w happens under mu.
func (e *Engine) writeTree(ctx context.Context, sourceDir, outputPath string, w EntryWriter) (Stats, error) {
	var (
		mu    sync.Mutex
		stats Stats
	)

	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, sourceDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fserr.FromOS(opCompress, path, err)
		}
		if err := ctx.Err(); err != nil {
			return fserr.IO(opCompress, sourceDir, err)
		}
		if path == sourceDir || path == outputPath {
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 {
			e.logger.Debug("Skipping symlink", zap.String("path", path))
			return nil
		}

		rel, err := filepath.Rel(sourceDir, path)
		if err != nil {
			return fserr.IO(opCompress, path, err)
		}
		name := filepath.ToSlash(rel)

		info, err := d.Info()
		if err != nil {
			return fserr.FromOS(opCompress, path, err)
		}

		if d.IsDir() {
			mu.Lock()
			defer mu.Unlock()
			if err := w.WriteDir(name, info); err != nil {
				return fserr.IO(opCompress, path, err)
			}
			stats.Dirs++
			return nil
		}
		if !info.Mode().IsRegular() {
			e.logger.Debug("Skipping special file", zap.String("path", path))
			return nil
		}

		f, err := os.Open(path)
		if err != nil {
			return fserr.FromOS(opCompress, path, err)
		}
		defer f.Close()

		mu.Lock()
		defer mu.Unlock()
		n, err := w.WriteFile(name, info, f)
		if err != nil {
			return fserr.IO(opCompress, path, err)
		}
		stats.Files++
		stats.Bytes += n
		return nil
	})

	return stats, err
}

// Extract unpacks archivePath into destDir, creating destDir if needed. Every
// entry must resolve inside destDir without passing through a symlink already
// on disk; the first one that does not aborts the run with a path_restricted
// error. Symlinks, links and devices are skipped.
func (e *Engine) Extract(ctx context.Context, archivePath, destDir string) (Stats, error) {
	destDir = filepath.Clean(destDir)

	r, format, err := e.openReader(opExtract, archivePath)
	if err != nil {
		return Stats{}, err
	}
	defer r.Close()

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return Stats{}, fserr.FromOS(opExtract, destDir, err)
	}

	stats := Stats{Format: format}
	for {
		if err := ctx.Err(); err != nil {
			return stats, fserr.IO(opExtract, archivePath, err)
		}

		entry, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return stats, fserr.IO(opExtract, archivePath, fmt.Errorf("read entry: %w", err))
		}

		target, err := confine(destDir, entry)
		if err != nil {
			e.logger.Warn("Rejected archive entry",
				zap.String("archive", archivePath),
				zap.String("entry", entry.Name))
			return stats, err
		}

		switch entry.Kind {
		case EntryDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return stats, fserr.FromOS(opExtract, target, err)
			}
			stats.Dirs++
		case EntryFile:
			n, err := e.extractFile(entry, target, stats.Bytes)
			stats.Bytes += n
			if err != nil {
				return stats, err
			}
			stats.Files++
		default:
			e.logger.Debug("Skipping non-regular entry", zap.String("entry", entry.Name))
		}
	}

	e.logger.Info("Archive extracted",
		zap.String("archive", archivePath),
		zap.String("destination", destDir),
		zap.String("format", string(format)),
		zap.Int("files", stats.Files),
		zap.Int("dirs", stats.Dirs),
		zap.Int64("bytes", stats.Bytes))

	return stats, nil
}

func (e *Engine) extractFile(entry *Entry, target string, written int64) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return 0, fserr.FromOS(opExtract, target, err)
	}

	src, err := entry.Open()
	if err != nil {
		return 0, fserr.IO(opExtract, entry.Name, err)
	}
	defer src.Close()

	mode := entry.Mode.Perm()
	if mode == 0 {
		mode = 0o644
	}
	dst, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return 0, fserr.FromOS(opExtract, target, err)
	}

	var body io.Reader = src
	remaining := e.maxBytes - written
	if e.maxBytes > 0 {
		body = io.LimitReader(src, remaining+1)
	}

	n, err := io.Copy(dst, body)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return n, fserr.IO(opExtract, target, err)
	}
	if e.maxBytes > 0 && n > remaining {
		return n, fserr.InvalidArgument(opExtract,
			fmt.Sprintf("archive exceeds extraction limit of %d bytes", e.maxBytes))
	}
	return n, nil
}

// List returns entry metadata without extracting anything.
func (e *Engine) List(ctx context.Context, archivePath string) ([]EntryInfo, error) {
	r, _, err := e.openReader(opList, archivePath)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var entries []EntryInfo
	for {
		if err := ctx.Err(); err != nil {
			return nil, fserr.IO(opList, archivePath, err)
		}
		entry, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fserr.IO(opList, archivePath, fmt.Errorf("read entry: %w", err))
		}
		entries = append(entries, EntryInfo{
			Name:     entry.Name,
			Size:     entry.Size,
			IsDir:    entry.Kind == EntryDir,
			Modified: entry.Modified,
		})
	}
	return entries, nil
}

func (e *Engine) newWriter(w io.Writer, format Format) (EntryWriter, error) {
	if format == FormatZip {
		return newZipWriter(w, e.level), nil
	}
	return newTarWriter(w, format, e.level)
}

func (e *Engine) openReader(op, archivePath string) (EntryReader, Format, error) {
	info, err := os.Stat(archivePath)
	if err != nil {
		return nil, "", fserr.FromOS(op, archivePath, err)
	}
	if info.IsDir() {
		return nil, "", fserr.InvalidArgument(op, "archive is a directory: "+archivePath)
	}

	format, ok := FormatFromName(archivePath)
	if !ok {
		format, err = sniffFormat(archivePath)
		if err != nil {
			return nil, "", fserr.InvalidArgument(op, err.Error())
		}
	}

	var r EntryReader
	if format == FormatZip {
		r, err = openZipReader(archivePath)
	} else {
		r, err = openTarReader(archivePath, format)
	}
	if err != nil {
		return nil, "", fserr.IO(op, archivePath, err)
	}
	return r, format, nil
}

// confine maps an untrusted entry name to a path under destDir.
func confine(destDir string, entry *Entry) (string, error) {
	name := entry.Name
	switch {
	case name == "":
		return "", fserr.PathRestricted(opExtract, name, "empty entry name")
	case strings.ContainsRune(name, 0):
		return "", fserr.PathRestricted(opExtract, name, "malformed entry name")
	case sandbox.IsAbsolute(name):
		return "", fserr.PathRestricted(opExtract, name, "absolute entry name")
	}

	target := filepath.Join(destDir, filepath.FromSlash(name))
	if !sandbox.Within(destDir, target) {
		return "", fserr.PathRestricted(opExtract, name, "entry escapes destination directory")
	}
	if target == destDir && entry.Kind != EntryDir {
		return "", fserr.PathRestricted(opExtract, name, "entry resolves to the destination itself")
	}

	// Symlinks already on disk under destDir must not redirect the write.
	scoped, err := securejoin.SecureJoin(destDir, filepath.FromSlash(name))
	if err != nil {
		return "", fserr.IO(opExtract, target, err)
	}
	if scoped != target {
		return "", fserr.PathRestricted(opExtract, name, "entry path traverses a symlink")
	}
	return target, nil
}
