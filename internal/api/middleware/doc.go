// Package middleware provides the HTTP middleware of the tool server.
//
// Middleware stack includes:
//   - RequestID: req_* ULID per request, echoed in X-Request-ID
//   - CORS: Cross-origin resource sharing; wildcard origins never send credentials
//   - RateLimit: Per-IP token bucket rate limiting with idle client eviction
//   - GlobalRateLimit: One bucket shared by every client
//
// Example Usage:
//
//	router.Use(middleware.RequestID())
//	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
//	router.Use(middleware.RateLimit(middleware.RateLimitFromConfig(cfg.RateLimit)))
package middleware
