// Package mcp serves the tool registry as a Model Context Protocol server
// over stdio, using mcp-go.
//
// Each registry tool becomes one MCP tool whose name replaces dots with
// underscores (filesystem.read is filesystem_read). Parameters keep their
// names, types and required flags. Calls answer with the JSON-encoded
// types.Result as text content; failed operations set isError.
//
// Stdout carries the protocol, so logs must go to stderr
// (logging.ForStdio).
package mcp
