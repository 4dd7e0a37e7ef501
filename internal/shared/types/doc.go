// Package types provides the data structures shared by the dispatcher, the
// providers and the transports.
//
// Core Types:
//   - Service: a named group of tools
//   - Tool, Parameter: the advertised call surface
//   - Context: per-call metadata (request ID, transport)
//   - Result: the uniform success/failure envelope
//
// Example Usage:
//
//	result, err := registry.Execute(ctx, "filesystem.read", params, &types.Context{Transport: "cli"})
//	if !result.Success {
//	    fmt.Println(result.Kind, *result.Error)
//	}
package types
