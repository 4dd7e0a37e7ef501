package sandbox

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"unicode/utf8"

	"github.com/GriffinCanCode/homefs/internal/shared/fserr"
)

const opResolve = "resolve"

const separator = string(filepath.Separator)

// SymlinkResolver canonicalizes an existing path, typically filepath.EvalSymlinks.
type SymlinkResolver func(path string) (string, error)

// Sandbox resolves user paths against an immutable trusted root.
type Sandbox struct {
	root     string
	resolver SymlinkResolver
}

// Option configures a Sandbox.
type Option func(*Sandbox)

// WithSymlinkResolver enables symlink checks after the lexical ones.
func WithSymlinkResolver(fn SymlinkResolver) Option {
	return func(s *Sandbox) {
		s.resolver = fn
	}
}

// New creates a sandbox rooted at root, which must be absolute.
func New(root string, opts ...Option) (*Sandbox, error) {
	if root == "" {
		return nil, fmt.Errorf("sandbox root cannot be empty")
	}
	if !filepath.IsAbs(root) {
		return nil, fmt.Errorf("sandbox root must be absolute: %s", root)
	}

	s := &Sandbox{root: filepath.Clean(root)}
	for _, opt := range opts {
		opt(s)
	}

	if s.resolver != nil {
		canon, err := s.resolver(s.root)
		if err != nil {
			return nil, fmt.Errorf("failed to canonicalize sandbox root: %w", err)
		}
		s.root = filepath.Clean(canon)
	}

	return s, nil
}

// Root returns the trusted root.
func (s *Sandbox) Root() string {
	return s.root
}

// Resolve validates userPath and returns its absolute location under the root.
// The empty string resolves to the root itself.
func (s *Sandbox) Resolve(userPath string) (string, error) {
	if err := Validate(userPath); err != nil {
		return "", err
	}

	target := filepath.Join(s.root, filepath.FromSlash(userPath))
	if !Within(s.root, target) {
		return "", fserr.PathRestricted(opResolve, userPath, "path escapes sandbox root")
	}

	if s.resolver == nil {
		return target, nil
	}
	return s.checkSymlinks(userPath, target)
}

// Validate applies the lexical rejection rules, in order, without touching
// the filesystem.
func Validate(userPath string) error {
	switch {
	case strings.ContainsRune(userPath, 0) || !utf8.ValidString(userPath):
		return fserr.PathRestricted(opResolve, userPath, "malformed path")
	case IsAbsolute(userPath):
		return fserr.PathRestricted(opResolve, userPath, "absolute paths are not allowed")
	case hasParentSegment(userPath):
		return fserr.PathRestricted(opResolve, userPath, "parent directory segments are not allowed")
	case isNetworkShare(userPath):
		return fserr.PathRestricted(opResolve, userPath, "network share paths are not allowed")
	}
	return nil
}

// Within reports whether target equals root or is a descendant of it, using
// prefix comparison with a trailing separator on both sides.
func Within(root, target string) bool {
	root = filepath.Clean(root)
	target = filepath.Clean(target)
	if target == root {
		return true
	}

	prefix := root
	if !strings.HasSuffix(prefix, separator) {
		prefix += separator
	}
	return strings.HasPrefix(target+separator, prefix)
}

// checkSymlinks walks target one component at a time below the root. Every
// existing component that is a symlink must resolve, and must resolve inside
// the root. The walk stops at the first missing component since nothing past
// it exists to follow. The lexical target is returned so callers act on the
// link itself rather than on what it points to.
func (s *Sandbox) checkSymlinks(userPath, target string) (string, error) {
	current := s.root
	for _, seg := range strings.FieldsFunc(userPath, isSeparator) {
		if seg == "." {
			continue
		}
		current = filepath.Join(current, seg)

		info, err := os.Lstat(current)
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR) {
			return target, nil
		}
		if err != nil {
			return "", fserr.IO(opResolve, current, err)
		}
		if info.Mode()&fs.ModeSymlink == 0 {
			continue
		}

		resolved, err := s.resolver(current)
		if err != nil {
			return "", fserr.PathRestricted(opResolve, userPath, "symlink target cannot be resolved")
		}
		if !Within(s.root, resolved) {
			return "", fserr.PathRestricted(opResolve, userPath, "symlink resolves outside sandbox root")
		}
	}
	return target, nil
}

// IsAbsolute reports whether p is rooted under any platform convention:
// a leading slash or backslash, or a drive letter.
func IsAbsolute(p string) bool {
	if p == "" {
		return false
	}
	if p[0] == '/' || p[0] == '\\' {
		return true
	}
	if hasDriveLetter(p) {
		return true
	}
	return filepath.IsAbs(p)
}

// hasDriveLetter matches "C:", "C:\x" and "C:/x". Drive-relative forms are
// rejected too since they name a location outside the root.
func hasDriveLetter(p string) bool {
	if len(p) < 2 || p[1] != ':' {
		return false
	}
	c := p[0]
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func hasParentSegment(p string) bool {
	for _, seg := range strings.FieldsFunc(p, isSeparator) {
		if seg == ".." {
			return true
		}
	}
	return false
}

func isNetworkShare(p string) bool {
	return strings.HasPrefix(p, `\\`) || strings.HasPrefix(p, "//")
}

func isSeparator(r rune) bool {
	return r == '/' || r == '\\'
}
