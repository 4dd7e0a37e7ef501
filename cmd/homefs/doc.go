// Package main is the homefs command: sandboxed file, directory and archive
// operations confined to one trusted root.
//
// Commands:
//   - serve: JSON/HTTP tool server with Prometheus metrics
//   - mcp: Model Context Protocol server on stdio
//   - tools [query]: list tools, fuzzy-filtered
//   - exec <tool-id> [json-args]: run one tool, print the Result, exit 1 on failure
//
// Configuration:
//   - Environment variables (HOMEFS_*)
//   - Config file (--config, .yaml or .toml) over the environment
//   - CLI flags (--root, --port, --dev) override both
//   - Root defaults to the home directory
//
// Usage:
//
//	homefs serve --root ~/work --port 8000
//	homefs exec filesystem.edit '{"path":"a.txt","old_content":"x","new_content":"y"}'
//	homefs mcp --config ~/.config/homefs.yaml
//
// Signals:
//   - SIGINT, SIGTERM: cancel the running operation or shut the server down
package main
