// Package server assembles the gin router (recovery, request IDs, metrics,
// CORS, rate limiting) over the tool registry and runs it with graceful
// shutdown.
package server
