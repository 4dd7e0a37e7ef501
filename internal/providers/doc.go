// Package providers implements the service providers exposed through the
// tool registry.
//
// Available Providers:
//   - Filesystem: file, directory, search, export and archive operations
//     confined to one trusted root
//
// Provider Interface:
//   - Definition(): Returns service metadata and tool definitions
//   - Execute(): Executes a tool with parameters and context
//
// Example Usage:
//
//	fs := providers.NewFilesystem(ops)
//	result, err := fs.Execute(ctx, "filesystem.read", params, appCtx)
package providers
