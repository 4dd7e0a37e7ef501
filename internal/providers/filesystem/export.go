package filesystem

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/homefs/internal/render"
	"github.com/GriffinCanCode/homefs/internal/shared/fserr"
	"github.com/GriffinCanCode/homefs/internal/shared/types"
)

const toolExport = "filesystem.export"

const (
	exportMarkdown = "md"
	exportPDF      = "pdf"

	sourceContent = "content"
	sourceFile    = "file"
)

// ExportOps renders text to Markdown or PDF files
type ExportOps struct {
	*FilesystemOps
}

// GetTools returns export tool definitions
func (e *ExportOps) GetTools() []types.Tool {
	return []types.Tool{
		{
			ID:          toolExport,
			Name:        "Export Document",
			Description: "Write Markdown verbatim (md) or render it to PDF (pdf) through the external renderer",
			Parameters: []types.Parameter{
				{Name: "output", Type: "string", Description: "Output file path", Required: true},
				{Name: "format", Type: "string", Description: "md or pdf", Required: true},
				{Name: "source", Type: "string", Description: "content (default) or file", Required: false},
				{Name: "content", Type: "string", Description: "Markdown text when source is content", Required: false},
				{Name: "path", Type: "string", Description: "Markdown file when source is file", Required: false},
				{Name: "title", Type: "string", Description: "Document title (default: output name)", Required: false},
			},
			Returns: "object",
		},
	}
}

type exportArgs struct {
	Output  string `json:"output"`
	Format  string `json:"format"`
	Source  string `json:"source"`
	Content string `json:"content"`
	Path    string `json:"path"`
	Title   string `json:"title"`
}

// Export writes or renders a document. The output is replaced if it exists.
func (e *ExportOps) Export(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	var args exportArgs
	if err := bind(toolExport, params, &args); err != nil {
		return Failure(err)
	}
	if err := required(toolExport, "output", args.Output); err != nil {
		return Failure(err)
	}

	format := strings.ToLower(args.Format)
	if format != exportMarkdown && format != exportPDF {
		return Failure(fserr.InvalidArgument(toolExport, "unsupported export format: "+args.Format))
	}

	out, err := e.resolve(toolExport, args.Output)
	if err != nil {
		return Failure(err)
	}
	text, err := e.sourceText(args)
	if err != nil {
		return Failure(err)
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return Failure(fserr.FromOS(toolExport, out, err))
	}

	switch format {
	case exportMarkdown:
		if _, err := writeFile(toolExport, out, text, os.O_WRONLY|os.O_CREATE|os.O_TRUNC); err != nil {
			return Failure(err)
		}
	case exportPDF:
		if err := e.renderPDF(ctx, text, exportTitle(args), out); err != nil {
			return Failure(err)
		}
	}

	info, err := os.Stat(out)
	if err != nil {
		return Failure(fserr.FromOS(toolExport, out, err))
	}

	return Success(map[string]interface{}{
		"exported": true,
		"output":   e.relative(out),
		"format":   format,
		"size":     info.Size(),
	})
}

// sourceText returns the Markdown to export, read from a file when asked.
func (e *ExportOps) sourceText(args exportArgs) (string, error) {
	switch args.Source {
	case "", sourceContent:
		return args.Content, nil
	case sourceFile:
		if err := required(toolExport, "path", args.Path); err != nil {
			return "", err
		}
		full, err := e.resolve(toolExport, args.Path)
		if err != nil {
			return "", err
		}
		if _, err := statFile(toolExport, full); err != nil {
			return "", err
		}
		data, err := os.ReadFile(full)
		if err != nil {
			return "", fserr.FromOS(toolExport, full, err)
		}
		text, _ := decodeText(data)
		return text, nil
	default:
		return "", fserr.InvalidArgument(toolExport, "unsupported source type: "+args.Source)
	}
}

// renderPDF hands sanitized HTML to the renderer and requires a non-empty
// output file afterwards.
func (e *ExportOps) renderPDF(ctx context.Context, text, title, out string) error {
	if e.Renderer == nil {
		return fserr.IO(toolExport, out, render.ErrRendererUnavailable)
	}

	doc, err := render.MarkdownToHTML([]byte(text), title)
	if err != nil {
		return fserr.IO(toolExport, out, err)
	}

	if err := e.Renderer.RenderPDF(ctx, doc, out); err != nil {
		e.Logger.Warn("PDF render failed", zap.String("output", out), zap.Error(err))
		return fserr.IO(toolExport, out, err)
	}

	info, err := os.Stat(out)
	if err != nil || info.Size() == 0 {
		return &fserr.Error{Kind: fserr.KindIO, Op: toolExport, Path: out, Msg: "renderer produced no output", Err: err}
	}
	return nil
}

func exportTitle(args exportArgs) string {
	if args.Title != "" {
		return args.Title
	}
	base := filepath.Base(args.Output)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
