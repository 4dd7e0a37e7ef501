package types

// ExecuteRequest is the body of a tool call. ToolID may be empty when the
// route already names the tool.
type ExecuteRequest struct {
	ToolID string                 `json:"tool_id,omitempty"`
	Params map[string]interface{} `json:"params"`
}

// DiscoverRequest asks for services or tools matching free text
type DiscoverRequest struct {
	Query string `json:"query" binding:"required"`
	Limit int    `json:"limit,omitempty"`
}
