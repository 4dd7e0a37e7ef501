package filesystem

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charlievieth/fastwalk"
	"github.com/sahilm/fuzzy"

	"github.com/GriffinCanCode/homefs/internal/shared/fserr"
	"github.com/GriffinCanCode/homefs/internal/shared/types"
)

const (
	toolSearch      = "filesystem.search"
	toolRecentFiles = "filesystem.recent_files"
	toolSearchFiles = "filesystem.search_files"
)

const (
	defaultSearchLimit = 1000
	defaultRecentHours = 24.0
	defaultRecentLimit = 50
	defaultFilterLimit = 100
)

// SearchOps handles search and filtering operations
type SearchOps struct {
	*FilesystemOps
}

// GetTools returns search operation tool definitions
func (s *SearchOps) GetTools() []types.Tool {
	return []types.Tool{
		{
			ID:          toolSearch,
			Name:        "Glob Search",
			Description: "Recursive glob search with ** patterns, matched against relative paths and base names",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "Root directory (default: root)", Required: false},
				{Name: "pattern", Type: "string", Description: "Glob pattern (e.g., '**/*.go')", Required: true},
				{Name: "limit", Type: "number", Description: "Max results (default 1000)", Required: false},
			},
			Returns: "object",
		},
		{
			ID:          toolRecentFiles,
			Name:        "Recent Files",
			Description: "Files modified within the last N hours, newest first",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "Root directory (default: root)", Required: false},
				{Name: "hours", Type: "number", Description: "Hours to look back (default 24)", Required: false},
				{Name: "limit", Type: "number", Description: "Max results (default 50)", Required: false},
			},
			Returns: "object",
		},
		{
			ID:          toolSearchFiles,
			Name:        "Search Files",
			Description: "Find files by name, size and modification time; all filters must match",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "Root directory (default: root)", Required: false},
				{Name: "name", Type: "string", Description: "Name substring (case-insensitive)", Required: false},
				{Name: "fuzzy", Type: "boolean", Description: "Fuzzy name matching, best first", Required: false},
				{Name: "min_size", Type: "number", Description: "Minimum size in bytes", Required: false},
				{Name: "max_size", Type: "number", Description: "Maximum size in bytes", Required: false},
				{Name: "modified_after", Type: "string", Description: "RFC 3339 timestamp", Required: false},
				{Name: "limit", Type: "number", Description: "Max results (default 100)", Required: false},
			},
			Returns: "object",
		},
	}
}

type searchArgs struct {
	Path    string `json:"path"`
	Pattern string `json:"pattern"`
	Limit   int    `json:"limit"`
}

type recentArgs struct {
	Path  string  `json:"path"`
	Hours float64 `json:"hours"`
	Limit int     `json:"limit"`
}

type searchFilesArgs struct {
	Path          string `json:"path"`
	Name          string `json:"name"`
	Fuzzy         bool   `json:"fuzzy"`
	MinSize       *int64 `json:"min_size"`
	MaxSize       *int64 `json:"max_size"`
	ModifiedAfter string `json:"modified_after"`
	Limit         int    `json:"limit"`
}

// walkTree runs fastwalk over root without following symlinks. Callbacks are
// serialized, so visit may touch shared state. Unreadable entries are skipped.
func walkTree(ctx context.Context, root string, visit func(path string, d fs.DirEntry) error) error {
	var mu sync.Mutex
	conf := fastwalk.Config{Follow: false}

	return fastwalk.Walk(&conf, root, func(path string, d fs.DirEntry, err error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}

		mu.Lock()
		defer mu.Unlock()
		return visit(path, d)
	})
}

func walkError(op, root string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fserr.IO(op, root, err)
	}
	return fserr.FromOS(op, root, err)
}

// Search performs a recursive glob. The pattern only ever sees paths relative
// to the search root.
func (s *SearchOps) Search(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	var args searchArgs
	if err := bind(toolSearch, params, &args); err != nil {
		return Failure(err)
	}
	if err := required(toolSearch, "pattern", args.Pattern); err != nil {
		return Failure(err)
	}
	if !doublestar.ValidatePattern(args.Pattern) {
		return Failure(fserr.InvalidArgument(toolSearch, "invalid glob pattern: "+args.Pattern))
	}
	limit := args.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	full, err := s.resolve(toolSearch, args.Path)
	if err != nil {
		return Failure(err)
	}
	if _, err := statDir(toolSearch, full); err != nil {
		return Failure(err)
	}

	matches := []FileInfo{}
	err = walkTree(ctx, full, func(p string, de fs.DirEntry) error {
		if p == full {
			return nil
		}
		rel, err := filepath.Rel(full, p)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if !globMatch(args.Pattern, rel) && !globMatch(args.Pattern, de.Name()) {
			return nil
		}
		info, err := de.Info()
		if err != nil {
			return nil
		}
		matches = append(matches, fileInfo(s.relative(p), info))
		return nil
	})
	if err != nil {
		return Failure(walkError(toolSearch, full, err))
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].Path < matches[j].Path })
	truncated := len(matches) > limit
	if truncated {
		matches = matches[:limit]
	}

	return Success(map[string]interface{}{
		"path":      s.relative(full),
		"pattern":   args.Pattern,
		"matches":   matches,
		"count":     len(matches),
		"truncated": truncated,
	})
}

func globMatch(pattern, name string) bool {
	ok, err := doublestar.Match(pattern, name)
	return err == nil && ok
}

// RecentFiles finds recently modified files
func (s *SearchOps) RecentFiles(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	var args recentArgs
	if err := bind(toolRecentFiles, params, &args); err != nil {
		return Failure(err)
	}

	hours := args.Hours
	if hours <= 0 {
		hours = defaultRecentHours
	}
	limit := args.Limit
	if limit <= 0 {
		limit = defaultRecentLimit
	}

	full, err := s.resolve(toolRecentFiles, args.Path)
	if err != nil {
		return Failure(err)
	}
	if _, err := statDir(toolRecentFiles, full); err != nil {
		return Failure(err)
	}

	cutoff := time.Now().Add(-time.Duration(hours * float64(time.Hour)))

	type recent struct {
		path    string
		modTime time.Time
		size    int64
	}
	var files []recent

	err = walkTree(ctx, full, func(p string, de fs.DirEntry) error {
		if de.IsDir() {
			return nil
		}
		info, err := de.Info()
		if err != nil || !info.Mode().IsRegular() {
			return nil
		}
		if info.ModTime().After(cutoff) {
			files = append(files, recent{s.relative(p), info.ModTime(), info.Size()})
		}
		return nil
	})
	if err != nil {
		return Failure(walkError(toolRecentFiles, full, err))
	}

	sort.Slice(files, func(i, j int) bool {
		if files[i].modTime.Equal(files[j].modTime) {
			return files[i].path < files[j].path
		}
		return files[i].modTime.After(files[j].modTime)
	})
	if len(files) > limit {
		files = files[:limit]
	}

	results := make([]map[string]interface{}, 0, len(files))
	for _, f := range files {
		results = append(results, map[string]interface{}{
			"path":     f.path,
			"modified": formatTime(f.modTime),
			"size":     f.size,
		})
	}

	return Success(map[string]interface{}{
		"path":  s.relative(full),
		"hours": hours,
		"files": results,
		"count": len(results),
	})
}

// SearchFiles filters files by name, size and mtime. Fuzzy results are ranked
// by score, the rest sorted by path.
func (s *SearchOps) SearchFiles(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	var args searchFilesArgs
	if err := bind(toolSearchFiles, params, &args); err != nil {
		return Failure(err)
	}

	limit := args.Limit
	if limit <= 0 {
		limit = defaultFilterLimit
	}
	if (args.MinSize != nil && *args.MinSize < 0) || (args.MaxSize != nil && *args.MaxSize < 0) {
		return Failure(fserr.InvalidArgument(toolSearchFiles, "sizes must not be negative"))
	}
	if args.MinSize != nil && args.MaxSize != nil && *args.MinSize > *args.MaxSize {
		return Failure(fserr.InvalidArgument(toolSearchFiles, "min_size exceeds max_size"))
	}
	var after time.Time
	if args.ModifiedAfter != "" {
		t, err := time.Parse(time.RFC3339, args.ModifiedAfter)
		if err != nil {
			return Failure(fserr.InvalidArgument(toolSearchFiles, "modified_after must be RFC 3339: "+err.Error()))
		}
		after = t
	}

	full, err := s.resolve(toolSearchFiles, args.Path)
	if err != nil {
		return Failure(err)
	}
	if _, err := statDir(toolSearchFiles, full); err != nil {
		return Failure(err)
	}

	needle := strings.ToLower(args.Name)
	var candidates []FileInfo

	err = walkTree(ctx, full, func(p string, de fs.DirEntry) error {
		if de.IsDir() {
			return nil
		}
		info, err := de.Info()
		if err != nil || !info.Mode().IsRegular() {
			return nil
		}
		if args.MinSize != nil && info.Size() < *args.MinSize {
			return nil
		}
		if args.MaxSize != nil && info.Size() > *args.MaxSize {
			return nil
		}
		if !after.IsZero() && !info.ModTime().After(after) {
			return nil
		}
		if !args.Fuzzy && needle != "" && !strings.Contains(strings.ToLower(de.Name()), needle) {
			return nil
		}
		candidates = append(candidates, fileInfo(s.relative(p), info))
		return nil
	})
	if err != nil {
		return Failure(walkError(toolSearchFiles, full, err))
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Path < candidates[j].Path })
	results := candidates
	if args.Fuzzy && args.Name != "" {
		results = rankFuzzy(args.Name, candidates)
	}
	if len(results) > limit {
		results = results[:limit]
	}
	if results == nil {
		results = []FileInfo{}
	}

	return Success(map[string]interface{}{
		"path":  s.relative(full),
		"files": results,
		"count": len(results),
	})
}

// fileNames adapts a FileInfo slice to fuzzy.Source.
type fileNames []FileInfo

func (f fileNames) String(i int) string { return f[i].Name }
func (f fileNames) Len() int            { return len(f) }

func rankFuzzy(query string, candidates []FileInfo) []FileInfo {
	matches := fuzzy.FindFrom(query, fileNames(candidates))
	ranked := make([]FileInfo, 0, len(matches))
	for _, m := range matches {
		ranked = append(ranked, candidates[m.Index])
	}
	return ranked
}

func fileInfo(rel string, info fs.FileInfo) FileInfo {
	return FileInfo{
		Name:     info.Name(),
		Path:     rel,
		Size:     info.Size(),
		IsDir:    info.IsDir(),
		Mode:     info.Mode().String(),
		Modified: formatTime(info.ModTime()),
	}
}
