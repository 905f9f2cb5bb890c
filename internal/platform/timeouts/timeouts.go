// Package timeouts defines shared timeout constants used across the
// dashboard. Centralizing these values prevents drift between the HTTP
// surface and the backend gateway and makes the durations discoverable.
package timeouts

import "time"

// BackendRequest caps the time allowed for a single call from the web
// service to the backend API.
const BackendRequest = 10 * time.Second

// SessionRefresh caps a proactive session refresh exchange, including the
// cookie rewrite on the next response.
const SessionRefresh = 10 * time.Second

// ReadHeader limits how long the HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long the HTTP server waits for in-flight requests
// during graceful shutdown.
const Shutdown = 5 * time.Second
