package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/homefs/internal/infrastructure/resilience"
)

// ErrRendererUnavailable means the configured PDF command cannot be found.
var ErrRendererUnavailable = errors.New("pdf renderer unavailable")

// PDFRenderer converts an HTML document into a PDF at outputPath.
type PDFRenderer interface {
	RenderPDF(ctx context.Context, htmlDoc []byte, outputPath string) error
}

// CommandConfig describes the external renderer invocation:
// <Command> [Args...] <input.html> <output.pdf>
type CommandConfig struct {
	Command string
	Args    []string
	Timeout time.Duration
}

// CommandRenderer runs an external HTML-to-PDF program behind a circuit
// breaker.
type CommandRenderer struct {
	config  CommandConfig
	breaker *resilience.Breaker
	logger  *zap.Logger
}

// NewCommandRenderer creates a renderer. A zero timeout means 60s.
func NewCommandRenderer(cfg CommandConfig, logger *zap.Logger) *CommandRenderer {
	if cfg.Command == "" {
		cfg.Command = "wkhtmltopdf"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	breaker := resilience.New("pdf-renderer", resilience.Settings{
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		IsFailure: func(err error) bool {
			return err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, ErrRendererUnavailable)
		},
		OnStateChange: func(name string, from, to resilience.State) {
			logger.Warn("Circuit breaker state change",
				zap.String("breaker", name),
				zap.Stringer("from", from),
				zap.Stringer("to", to))
		},
	})

	return &CommandRenderer{config: cfg, breaker: breaker, logger: logger}
}

// RenderPDF writes htmlDoc to a temp file and runs the command on it. The
// output must exist and be non-empty afterwards.
func (r *CommandRenderer) RenderPDF(ctx context.Context, htmlDoc []byte, outputPath string) error {
	bin, err := exec.LookPath(r.config.Command)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrRendererUnavailable, r.config.Command)
	}

	input := filepath.Join(os.TempDir(), "homefs-"+uuid.NewString()+".html")
	if err := os.WriteFile(input, htmlDoc, 0o600); err != nil {
		return fmt.Errorf("failed to write renderer input: %w", err)
	}
	defer os.Remove(input)

	err = r.breaker.Do(ctx, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, r.config.Timeout)
		defer cancel()

		args := append(append([]string{}, r.config.Args...), input, outputPath)
		cmd := exec.CommandContext(ctx, bin, args...)
		var stderr bytes.Buffer
		cmd.Stderr = &stderr

		start := time.Now()
		if err := cmd.Run(); err != nil {
			if ctx.Err() == context.DeadlineExceeded {
				return fmt.Errorf("pdf renderer timed out after %s", r.config.Timeout)
			}
			return fmt.Errorf("pdf renderer failed: %w: %s", err, strings.TrimSpace(stderr.String()))
		}

		r.logger.Debug("PDF rendered",
			zap.String("output", outputPath),
			zap.Duration("duration", time.Since(start)))
		return nil
	})
	if err != nil {
		return err
	}

	info, err := os.Stat(outputPath)
	if err != nil {
		return fmt.Errorf("pdf renderer produced no output: %w", err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("pdf renderer produced an empty file")
	}
	return nil
}
