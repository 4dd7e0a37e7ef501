package http

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/homefs/internal/api/middleware"
	"github.com/GriffinCanCode/homefs/internal/service"
	"github.com/GriffinCanCode/homefs/internal/shared/fserr"
	"github.com/GriffinCanCode/homefs/internal/shared/types"
	"github.com/GriffinCanCode/homefs/internal/shared/utils"
)

// Version is reported by the root endpoint.
const Version = "0.3.0"

const (
	defaultDiscoverLimit = 5
	maxListLimit         = 1000
)

// Handlers contains all HTTP handlers
type Handlers struct {
	registry *service.Registry
	root     string
	logger   *zap.Logger
}

// NewHandlers creates a new handler set. root is only reported, never used
// to resolve paths.
func NewHandlers(registry *service.Registry, root string, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		registry: registry,
		root:     root,
		logger:   logger,
	}
}

// Root handles the liveness probe
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "homefs",
		"version": Version,
	})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"root":     h.root,
		"registry": h.registry.Stats(),
	})
}

// ListServices lists all available services
func (h *Handlers) ListServices(c *gin.Context) {
	var category *types.Category
	if categoryStr := c.Query("category"); categoryStr != "" {
		cat := types.Category(categoryStr)
		if cat != types.CategoryFilesystem && cat != types.CategoryArchive {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown category: " + categoryStr})
			return
		}
		category = &cat
	}

	c.JSON(http.StatusOK, gin.H{
		"services": h.registry.List(category),
		"stats":    h.registry.Stats(),
	})
}

// DiscoverServices discovers relevant services for a free-text query
func (h *Handlers) DiscoverServices(c *gin.Context) {
	var req types.DiscoverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := utils.ValidateString(req.Query, "query", 1, 500, true); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	limit := req.Limit
	if limit <= 0 {
		limit = defaultDiscoverLimit
	}

	c.JSON(http.StatusOK, gin.H{
		"query":    req.Query,
		"services": h.registry.Discover(req.Query, limit),
	})
}

// ListTools lists tools, fuzzy-filtered by ?q= and capped by ?limit=
func (h *Handlers) ListTools(c *gin.Context) {
	limit, err := parseLimit(c.Query("limit"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tools := h.registry.FindTools(c.Query("q"), limit)
	c.JSON(http.StatusOK, gin.H{
		"tools": tools,
		"count": len(tools),
	})
}

// GetTool returns one tool definition
func (h *Handlers) GetTool(c *gin.Context) {
	toolID := c.Param("id")
	if err := utils.ValidateToolID(toolID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tool, ok := h.registry.Tool(toolID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "tool not found: " + toolID})
		return
	}
	c.JSON(http.StatusOK, tool)
}

// ExecuteTool runs the tool named in the route. The body is the params
// object itself.
func (h *Handlers) ExecuteTool(c *gin.Context) {
	var params map[string]interface{}
	if err := decodeBody(c, &params); err != nil {
		h.respond(c, failure(err))
		return
	}
	h.execute(c, c.Param("id"), params)
}

// ExecuteService runs a tool named in the body: {"tool_id": ..., "params": {...}}
func (h *Handlers) ExecuteService(c *gin.Context) {
	var req types.ExecuteRequest
	if err := decodeBody(c, &req); err != nil {
		h.respond(c, failure(err))
		return
	}
	h.execute(c, req.ToolID, req.Params)
}

func (h *Handlers) execute(c *gin.Context, toolID string, params map[string]interface{}) {
	if err := utils.ValidateJSONDepth(params, utils.MaxParamsDepth); err != nil {
		h.respond(c, failure(fserr.InvalidArgument("http", err.Error())))
		return
	}

	appCtx := &types.Context{
		RequestID: middleware.GetRequestID(c),
		Transport: "http",
	}

	result, err := h.registry.Execute(c.Request.Context(), toolID, params, appCtx)
	if err != nil {
		h.logger.Error("Tool execution error",
			zap.String("tool", toolID),
			zap.String("request_id", appCtx.RequestID),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error(), "kind": string(fserr.KindIO)})
		return
	}
	h.respond(c, result)
}

func (h *Handlers) respond(c *gin.Context, result *types.Result) {
	c.JSON(StatusForKind(result.Kind), result)
}

// StatusForKind maps a failure kind onto an HTTP status. An empty kind is
// success.
func StatusForKind(kind string) int {
	switch fserr.Kind(kind) {
	case "":
		return http.StatusOK
	case fserr.KindPathRestricted:
		return http.StatusForbidden
	case fserr.KindNotFound:
		return http.StatusNotFound
	case fserr.KindAlreadyExists, fserr.KindNotUnique:
		return http.StatusConflict
	case fserr.KindInvalidArgument:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// decodeBody reads a bounded JSON body with sonic. An empty body leaves v
// untouched.
func decodeBody(c *gin.Context, v interface{}) *fserr.Error {
	data, err := io.ReadAll(io.LimitReader(c.Request.Body, utils.MaxRequestSize+1))
	if err != nil {
		return fserr.InvalidArgument("http", "failed to read request body: "+err.Error())
	}
	if err := utils.ValidateSize(data, utils.MaxRequestSize); err != nil {
		return fserr.InvalidArgument("http", err.Error())
	}
	if len(data) == 0 {
		return nil
	}
	if err := sonic.Unmarshal(data, v); err != nil {
		return fserr.InvalidArgument("http", "invalid JSON body: "+err.Error())
	}
	return nil
}

func failure(err *fserr.Error) *types.Result {
	msg := err.Error()
	return &types.Result{Success: false, Error: &msg, Kind: string(err.Kind)}
}

func parseLimit(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 || n > maxListLimit {
		return 0, errors.New("limit must be an integer between 0 and " + strconv.Itoa(maxListLimit))
	}
	return n, nil
}
