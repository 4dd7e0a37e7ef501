package mcp

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/bytedance/sonic"
	mcpgo "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/homefs/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/homefs/internal/service"
	"github.com/GriffinCanCode/homefs/internal/shared/id"
	"github.com/GriffinCanCode/homefs/internal/shared/types"
)

// ServerName is announced during the MCP handshake.
const ServerName = "homefs"

// Server exposes every registry tool over the Model Context Protocol
type Server struct {
	registry  *service.Registry
	logger    *zap.Logger
	mcpServer *server.MCPServer
	tracer    *tracing.Tracer
	// names maps MCP tool names back to registry tool IDs.
	names map[string]string
}

// Option configures a Server
type Option func(*Server)

// WithTracer opens a span around every tool call
func WithTracer(t *tracing.Tracer) Option {
	return func(s *Server) {
		s.tracer = t
	}
}

// NewServer registers one MCP tool per registry tool. Tools registered with
// the registry afterwards are not picked up.
func NewServer(registry *service.Registry, logger *zap.Logger, version string, opts ...Option) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		registry: registry,
		logger:   logger,
		mcpServer: server.NewMCPServer(ServerName, version,
			server.WithToolCapabilities(false),
			server.WithRecovery(),
		),
		names: make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}

	for _, tool := range registry.Tools() {
		name := ToolName(tool.ID)
		s.names[name] = tool.ID
		s.mcpServer.AddTool(toMCPTool(name, tool), s.handler(tool.ID))
	}

	logger.Info("MCP tools registered", zap.Int("count", len(s.names)))
	return s
}

// MCPServer returns the underlying protocol server
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ToolID returns the registry ID behind an MCP tool name
func (s *Server) ToolID(name string) (string, bool) {
	toolID, ok := s.names[name]
	return toolID, ok
}

// Serve speaks JSON-RPC over in/out until ctx is cancelled or in closes
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s.mcpServer)
	stdio.SetErrorLogger(zap.NewStdLog(s.logger))

	s.logger.Info("Serving MCP over stdio")
	err := stdio.Listen(ctx, in, out)
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// ToolName turns a registry ID into an MCP tool name. Dots are not accepted
// by every client, so "filesystem.read" becomes "filesystem_read".
func ToolName(toolID string) string {
	return strings.ReplaceAll(toolID, ".", "_")
}

func (s *Server) handler(toolID string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
		appCtx := &types.Context{
			RequestID: id.NewRequestID().String(),
			Transport: "mcp",
		}

		var (
			result  *types.Result
			execErr error
		)
		// The span fails on a failed Result too; the kind is its error text.
		_ = tracing.Trace(ctx, s.tracer, toolID, func(ctx context.Context) error {
			result, execErr = s.registry.Execute(ctx, toolID, request.GetArguments(), appCtx)
			if execErr != nil {
				return execErr
			}
			if !result.Success {
				return errors.New(result.Kind)
			}
			return nil
		})
		if execErr != nil {
			s.logger.Error("Tool execution error",
				zap.String("tool", toolID),
				zap.String("request_id", appCtx.RequestID),
				zap.Error(execErr))
			return mcpgo.NewToolResultError(execErr.Error()), nil
		}

		text, err := sonic.MarshalString(result)
		if err != nil {
			return nil, err
		}
		if !result.Success {
			return mcpgo.NewToolResultError(text), nil
		}
		return mcpgo.NewToolResultText(text), nil
	}
}

func toMCPTool(name string, tool types.Tool) mcpgo.Tool {
	opts := []mcpgo.ToolOption{mcpgo.WithDescription(tool.Description)}
	for _, p := range tool.Parameters {
		propOpts := []mcpgo.PropertyOption{mcpgo.Description(p.Description)}
		if p.Required {
			propOpts = append(propOpts, mcpgo.Required())
		}

		switch p.Type {
		case "number", "integer":
			opts = append(opts, mcpgo.WithNumber(p.Name, propOpts...))
		case "boolean":
			opts = append(opts, mcpgo.WithBoolean(p.Name, propOpts...))
		default:
			opts = append(opts, mcpgo.WithString(p.Name, propOpts...))
		}
	}
	return mcpgo.NewTool(name, opts...)
}
