// Package sandbox confines caller-supplied relative paths to a single trusted
// root directory.
//
// Resolution is pure path arithmetic. A path is rejected before anything is
// joined if it:
//   - is malformed (NUL bytes, invalid UTF-8)
//   - is absolute in any syntax (leading "/", leading "\", drive letters)
//   - contains a ".." component
//   - starts with a network-share prefix
//
// The joined and cleaned result must then pass the confinement check:
// the result plus a trailing separator must start with the root plus a
// trailing separator, so "/home/user2" is never a descendant of "/home/user".
//
// Symlink checking is opt-in through WithSymlinkResolver and only runs for
// paths that already passed the lexical checks. Each existing component that
// is a symlink must resolve inside the root; dangling links are refused.
// Resolve still returns the lexical path, so operations see the link itself.
//
// Example Usage:
//
//	sb, err := sandbox.New(home, sandbox.WithSymlinkResolver(filepath.EvalSymlinks))
//	full, err := sb.Resolve("notes/today.md")
package sandbox
