package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/homefs/internal/api/mcp"
	"github.com/GriffinCanCode/homefs/internal/app"
	"github.com/GriffinCanCode/homefs/internal/infrastructure/config"
	"github.com/GriffinCanCode/homefs/internal/infrastructure/logging"
	"github.com/GriffinCanCode/homefs/internal/infrastructure/server"
	"github.com/GriffinCanCode/homefs/internal/shared/id"
	"github.com/GriffinCanCode/homefs/internal/shared/types"
	"github.com/GriffinCanCode/homefs/internal/shared/utils"
)

const version = "0.3.0"

// errOperationFailed makes exec exit 1 after printing a failed Result.
var errOperationFailed = errors.New("operation failed")

type globalFlags struct {
	root       string
	configPath string
	port       int
	dev        bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errOperationFailed) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:           "homefs",
		Short:         "Sandboxed file, directory and archive operations over HTTP, MCP and the command line",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.root, "root", "", "Sandbox root (default: $HOMEFS_SANDBOX_ROOT or the home directory)")
	pf.StringVar(&flags.configPath, "config", "", "YAML or TOML config file")
	pf.IntVar(&flags.port, "port", 0, "HTTP port (serve only)")
	pf.BoolVar(&flags.dev, "dev", false, "Development mode: debug level, console logs")

	rootCmd.AddCommand(
		serveCmd(flags),
		mcpCmd(flags),
		toolsCmd(flags),
		execCmd(flags),
	)
	return rootCmd
}

func serveCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP tool server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := setup(cmd, flags, false)
			if err != nil {
				return err
			}
			defer a.Close()

			srv := server.NewServer(a.Config, server.Deps{
				Registry: a.Registry,
				Metrics:  a.Metrics,
				Gatherer: a.Gatherer,
				Logger:   a.Logger,
				Tracer:   a.Tracer,
			})
			defer srv.Close()
			return srv.Run(cmd.Context())
		},
	}
}

func mcpCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the tools as a Model Context Protocol server on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := setup(cmd, flags, true)
			if err != nil {
				return err
			}
			defer a.Close()

			return mcp.NewServer(a.Registry, a.Logger.Named("mcp"), version, mcp.WithTracer(a.Tracer)).
				Serve(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

func toolsCmd(flags *globalFlags) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "tools [query]",
		Short: "List tools, fuzzy-filtered by an optional query",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd, flags, true)
			if err != nil {
				return err
			}

			query := ""
			if len(args) == 1 {
				query = args[0]
			}
			return printTools(cmd.OutOrStdout(), a.Registry.FindTools(query, limit))
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of tools (0: all)")
	return cmd
}

func execCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "exec <tool-id> [json-args]",
		Short: "Run one tool and print its Result as JSON; exits 1 on failure",
		Example: `  homefs exec filesystem.read '{"path":"notes.txt"}'
  echo '{"path":"docs"}' | homefs exec filesystem.list -`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd, flags, true)
			if err != nil {
				return err
			}
			defer a.Close()

			params, err := readParams(cmd.InOrStdin(), args[1:])
			if err != nil {
				return err
			}

			appCtx := &types.Context{
				RequestID: id.NewRequestID().String(),
				Transport: "cli",
			}
			result, err := a.Registry.Execute(cmd.Context(), args[0], params, appCtx)
			if err != nil {
				return err
			}

			out, err := sonic.ConfigStd.MarshalIndent(result, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))

			if !result.Success {
				return errOperationFailed
			}
			return nil
		},
	}
}

// setup loads configuration, applies flag overrides and wires the app.
// Protocol and one-shot modes keep stdout clean by logging to stderr.
func setup(cmd *cobra.Command, flags *globalFlags, stdio bool) (*app.App, error) {
	cfg, err := loadConfig(cmd, flags)
	if err != nil {
		return nil, err
	}

	logCfg := logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	}
	if stdio {
		logCfg = logging.ForStdio(logCfg)
	}

	logger, err := logging.New(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	logger.Debug("Configuration loaded",
		zap.String("root", cfg.Sandbox.Root),
		zap.String("config", flags.configPath))

	return app.New(cfg, logger)
}

// loadConfig layers defaults, environment, the optional file and flags.
func loadConfig(cmd *cobra.Command, flags *globalFlags) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if flags.configPath != "" {
		cfg, err = config.LoadFile(flags.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("root") {
		cfg.Sandbox.Root = flags.root
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = strconv.Itoa(flags.port)
	}
	if flags.dev {
		cfg.Logging.Development = true
		cfg.Logging.Level = "debug"
	}
	return cfg, cfg.Validate()
}

// readParams decodes the JSON argument record. "-" reads it from stdin and
// no argument means {}.
func readParams(stdin io.Reader, args []string) (map[string]interface{}, error) {
	params := map[string]interface{}{}
	if len(args) == 0 {
		return params, nil
	}

	data := []byte(args[0])
	if args[0] == "-" {
		var err error
		data, err = io.ReadAll(io.LimitReader(stdin, utils.MaxRequestSize+1))
		if err != nil {
			return nil, fmt.Errorf("failed to read arguments: %w", err)
		}
	}
	if err := utils.ValidateSize(data, utils.MaxRequestSize); err != nil {
		return nil, err
	}
	if err := sonic.Unmarshal(data, &params); err != nil {
		return nil, fmt.Errorf("invalid JSON arguments: %w", err)
	}
	if err := utils.ValidateJSONDepth(params, utils.MaxParamsDepth); err != nil {
		return nil, err
	}
	return params, nil
}

func printTools(w io.Writer, tools []types.Tool) error {
	for _, tool := range tools {
		if _, err := fmt.Fprintf(w, "%-32s %s\n", tool.ID, tool.Description); err != nil {
			return err
		}
	}
	return nil
}
