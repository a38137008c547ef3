// Package server is the HTTP edge: the websocket upgrade endpoint with
// connection limiting, health and metrics endpoints, and the internal API
// used by the rest of the platform to publish events, enqueue jobs, and ask
// for match recommendations.
package server
