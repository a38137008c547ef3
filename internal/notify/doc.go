// Package notify turns background jobs into user-facing notifications.
//
// Handlers load the minimal state a message needs, build a notification with
// a deterministic id, and fan it out: the in-app channel is the durable
// record (persisted, then pushed live over the websocket), while push and
// email are best-effort channels behind a circuit breaker.
package notify
