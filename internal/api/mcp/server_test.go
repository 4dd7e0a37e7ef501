package mcp

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/GriffinCanCode/homefs/internal/archive"
	"github.com/GriffinCanCode/homefs/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/homefs/internal/providers"
	fsProvider "github.com/GriffinCanCode/homefs/internal/providers/filesystem"
	"github.com/GriffinCanCode/homefs/internal/sandbox"
	"github.com/GriffinCanCode/homefs/internal/service"
	"github.com/GriffinCanCode/homefs/internal/shared/types"
)

func newTestServer(t *testing.T, opts ...Option) (*Server, string) {
	t.Helper()

	root := t.TempDir()
	sb, err := sandbox.New(root)
	require.NoError(t, err)

	registry := service.NewRegistry()
	require.NoError(t, registry.Register(providers.NewFilesystem(&fsProvider.FilesystemOps{
		Sandbox: sb,
		Archive: archive.New(),
	})))

	return NewServer(registry, zaptest.NewLogger(t), "test", opts...), root
}

func call(t *testing.T, s *Server, name string, args map[string]interface{}) (*mcpgo.CallToolResult, types.Result) {
	t.Helper()

	toolID, ok := s.ToolID(name)
	require.True(t, ok, "tool %s should be registered", name)

	var req mcpgo.CallToolRequest
	req.Params.Name = name
	req.Params.Arguments = args

	res, err := s.handler(toolID)(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, res.Content, 1)

	text, ok := res.Content[0].(mcpgo.TextContent)
	require.True(t, ok, "expected text content")

	var result types.Result
	require.NoError(t, json.Unmarshal([]byte(text.Text), &result))
	return res, result
}

func TestToolName(t *testing.T) {
	assert.Equal(t, "filesystem_read", ToolName("filesystem.read"))
	assert.Equal(t, "filesystem_archive_list", ToolName("filesystem.archive_list"))
}

func TestEveryRegistryToolIsExposed(t *testing.T) {
	s, _ := newTestServer(t)

	for _, tool := range s.registry.Tools() {
		toolID, ok := s.ToolID(ToolName(tool.ID))
		assert.True(t, ok, "missing %s", tool.ID)
		assert.Equal(t, tool.ID, toolID)
	}
}

func TestCallSuccess(t *testing.T) {
	s, root := newTestServer(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("hello"), 0o644))

	res, result := call(t, s, "filesystem_read", map[string]interface{}{"path": "notes.txt"})

	assert.False(t, res.IsError)
	assert.True(t, result.Success)
	assert.Equal(t, "hello", result.Data["content"])
}

func TestCallFailureSetsIsError(t *testing.T) {
	s, _ := newTestServer(t)

	res, result := call(t, s, "filesystem_read", map[string]interface{}{"path": "../../etc/passwd"})

	assert.True(t, res.IsError)
	assert.False(t, result.Success)
	assert.Equal(t, "path_restricted", result.Kind)
}

func TestCallsAreTraced(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	tracer := tracing.New("homefs", zap.New(core))
	s, _ := newTestServer(t, WithTracer(tracer))

	call(t, s, "filesystem_list", map[string]interface{}{})
	call(t, s, "filesystem_read", map[string]interface{}{"path": "missing.txt"})
	tracer.Close()

	ok := logs.FilterMessage("Span completed").All()
	require.Len(t, ok, 1)
	assert.Equal(t, "filesystem.list", ok[0].ContextMap()["operation"])

	failed := logs.FilterMessage("Span completed with error").All()
	require.Len(t, failed, 1)
	assert.Equal(t, "not_found", failed[0].ContextMap()["error"])
}

func TestToolsListOverProtocol(t *testing.T) {
	s, _ := newTestServer(t)
	ctx := context.Background()

	s.MCPServer().HandleMessage(ctx, json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05","capabilities":{},"clientInfo":{"name":"test","version":"1"}}}`))
	resp := s.MCPServer().HandleMessage(ctx, json.RawMessage(`{"jsonrpc":"2.0","id":2,"method":"tools/list","params":{}}`))

	raw, err := json.Marshal(resp)
	require.NoError(t, err)

	var decoded struct {
		Result struct {
			Tools []struct {
				Name        string `json:"name"`
				InputSchema struct {
					Required []string `json:"required"`
				} `json:"inputSchema"`
			} `json:"tools"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Len(t, decoded.Result.Tools, len(s.registry.Tools()))

	required := map[string][]string{}
	for _, tool := range decoded.Result.Tools {
		required[tool.Name] = tool.InputSchema.Required
	}
	assert.ElementsMatch(t, []string{"path", "old_content", "new_content"}, required["filesystem_edit"])
}
