package filesystem

import (
	"context"
	"os"
	"regexp"
	"strings"

	"github.com/GriffinCanCode/homefs/internal/shared/fserr"
	"github.com/GriffinCanCode/homefs/internal/shared/types"
)

const (
	toolEdit       = "filesystem.edit"
	toolReplaceAll = "filesystem.replace_all"
)

// EditOps handles in-place content edits
type EditOps struct {
	*FilesystemOps
}

// GetTools returns edit tool definitions
func (e *EditOps) GetTools() []types.Tool {
	return []types.Tool{
		{
			ID:          toolEdit,
			Name:        "Edit File",
			Description: "Replace exactly one occurrence of old_content; fails when it is missing or ambiguous",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "File path", Required: true},
				{Name: "old_content", Type: "string", Description: "Text to replace (must occur once)", Required: true},
				{Name: "new_content", Type: "string", Description: "Replacement text", Required: true},
				{Name: "regex", Type: "boolean", Description: "Treat old_content as a regular expression", Required: false},
			},
			Returns: "object",
		},
		{
			ID:          toolReplaceAll,
			Name:        "Replace All",
			Description: "Replace every occurrence of old_string",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "File path", Required: true},
				{Name: "old_string", Type: "string", Description: "Text to replace", Required: true},
				{Name: "new_string", Type: "string", Description: "Replacement text", Required: true},
				{Name: "regex", Type: "boolean", Description: "Treat old_string as a regular expression", Required: false},
			},
			Returns: "object",
		},
	}
}

type editArgs struct {
	Path       string `json:"path"`
	OldContent string `json:"old_content"`
	NewContent string `json:"new_content"`
	Regex      bool   `json:"regex"`
}

type replaceArgs struct {
	Path      string `json:"path"`
	OldString string `json:"old_string"`
	NewString string `json:"new_string"`
	Regex     bool   `json:"regex"`
}

// matcher abstracts literal and regex replacement.
type matcher interface {
	count(s string) int
	replaceOne(s, repl string) string
	replaceAll(s, repl string) string
}

type literal string

func (l literal) count(s string) int { return strings.Count(s, string(l)) }

func (l literal) replaceOne(s, repl string) string {
	return strings.Replace(s, string(l), repl, 1)
}

func (l literal) replaceAll(s, repl string) string {
	return strings.ReplaceAll(s, string(l), repl)
}

// pattern expands $1-style group references in the replacement.
type pattern struct{ re *regexp.Regexp }

func (p pattern) count(s string) int { return len(p.re.FindAllStringIndex(s, -1)) }

func (p pattern) replaceOne(s, repl string) string {
	loc := p.re.FindStringSubmatchIndex(s)
	if loc == nil {
		return s
	}
	expanded := p.re.ExpandString(nil, repl, s, loc)
	return s[:loc[0]] + string(expanded) + s[loc[1]:]
}

func (p pattern) replaceAll(s, repl string) string {
	return p.re.ReplaceAllString(s, repl)
}

func newMatcher(op, old string, regex bool) (matcher, error) {
	if !regex {
		return literal(old), nil
	}
	re, err := regexp.Compile(old)
	if err != nil {
		return nil, fserr.InvalidArgument(op, "invalid regex: "+err.Error())
	}
	return pattern{re: re}, nil
}

// Edit replaces a unique occurrence. Zero or multiple matches leave the file
// untouched.
func (e *EditOps) Edit(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	var args editArgs
	if err := bind(toolEdit, params, &args); err != nil {
		return Failure(err)
	}
	if err := required(toolEdit, "path", args.Path); err != nil {
		return Failure(err)
	}
	if err := required(toolEdit, "old_content", args.OldContent); err != nil {
		return Failure(err)
	}

	full, err := e.resolve(toolEdit, args.Path)
	if err != nil {
		return Failure(err)
	}
	m, err := newMatcher(toolEdit, args.OldContent, args.Regex)
	if err != nil {
		return Failure(err)
	}

	info, err := statFile(toolEdit, full)
	if err != nil {
		return Failure(err)
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return Failure(fserr.FromOS(toolEdit, full, err))
	}
	content := string(data)

	switch n := m.count(content); {
	case n == 0:
		return Failure(&fserr.Error{Kind: fserr.KindNotFound, Op: toolEdit, Path: full, Msg: "no match"})
	case n > 1:
		return Failure(fserr.NotUnique(toolEdit, full, n))
	}

	updated := m.replaceOne(content, args.NewContent)
	if err := os.WriteFile(full, []byte(updated), info.Mode().Perm()); err != nil {
		return Failure(fserr.IO(toolEdit, full, err))
	}

	return Success(map[string]interface{}{
		"edited": true,
		"path":   args.Path,
		"size":   len(updated),
	})
}

// ReplaceAll replaces every occurrence. No match is a successful no-op and
// the file is not rewritten.
func (e *EditOps) ReplaceAll(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	var args replaceArgs
	if err := bind(toolReplaceAll, params, &args); err != nil {
		return Failure(err)
	}
	if err := required(toolReplaceAll, "path", args.Path); err != nil {
		return Failure(err)
	}
	if args.OldString == "" {
		return Failure(fserr.InvalidArgument(toolReplaceAll, "old_string must not be empty"))
	}

	full, err := e.resolve(toolReplaceAll, args.Path)
	if err != nil {
		return Failure(err)
	}
	m, err := newMatcher(toolReplaceAll, args.OldString, args.Regex)
	if err != nil {
		return Failure(err)
	}

	info, err := statFile(toolReplaceAll, full)
	if err != nil {
		return Failure(err)
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return Failure(fserr.FromOS(toolReplaceAll, full, err))
	}
	content := string(data)

	n := m.count(content)
	if n > 0 {
		content = m.replaceAll(content, args.NewString)
		if err := os.WriteFile(full, []byte(content), info.Mode().Perm()); err != nil {
			return Failure(fserr.IO(toolReplaceAll, full, err))
		}
	}

	return Success(map[string]interface{}{
		"path":         args.Path,
		"replacements": n,
	})
}
