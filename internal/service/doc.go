// Package service provides the service registry that routes tool calls to
// providers.
//
// The registry maintains a catalog of service providers and handles tool
// lookup, fuzzy tool search, intent-based discovery and execution.
//
// Components:
//   - Registry: Central service catalog
//   - Provider: Interface for service implementations
//
// Tool IDs use the service.tool format. Execute validates the ID, routes on
// the service prefix and returns routing failures as failed Results, the same
// way providers report operation failures.
//
// Example Usage:
//
//	registry := service.NewRegistry()
//	registry.Register(filesystemProvider)
//	tools := registry.FindTools("extract", 5)
//	result, err := registry.Execute(ctx, "filesystem.read", params, appCtx)
package service
