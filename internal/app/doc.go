// Package app wires the sandbox, archive engine, PDF renderer, metrics and
// filesystem provider into a service registry.
//
// Every entry point (HTTP server, MCP server, one-shot CLI) starts from the
// same App, so the three surfaces share one set of semantics.
//
// Example Usage:
//
//	a, err := app.New(cfg, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, _ := a.Registry.Execute(ctx, "filesystem.list", nil, &types.Context{Transport: "cli"})
package app
