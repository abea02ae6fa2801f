// Package middleware provides the gin middleware stack of the bridge.
//
// Middleware stack includes:
//   - RequestID: ULID request IDs in X-Request-ID
//   - Logger: one zap line per request
//   - Recovery: panic recovery with a JSON failure body
//   - CORS: wildcard origin on every response, pre-flight answers on any path
//   - JSONContentType: exact application/json on responses
//   - GlobalRateLimit: token bucket shared by all clients
//
// Example Usage:
//
//	router.Use(middleware.RequestID())
//	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
//	router.Use(middleware.GlobalRateLimit(middleware.DefaultRateLimitConfig()))
package middleware
