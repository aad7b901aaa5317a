// Package middleware provides HTTP middleware for the media library API.
//
// It includes:
//   - Request logging in W3C Extended Log Format
//   - Prometheus request metrics
//   - Configurable filtering for health checks and metrics endpoints
package middleware
