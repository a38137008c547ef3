// Package realtime implements the live coordination layer: the session
// registry with its bidirectional room index, the backpressure-aware
// broadcaster, and the WebSocket gateway with its per-connection protocol
// state machine.
//
// Each connection gets one read goroutine (the gateway loop) and one write
// goroutine (the session writer). Delivery is best-effort: a recipient whose
// outbound buffer is over the high-water mark is skipped, never waited on.
// Durability-sensitive notifications go through the job queue instead.
package realtime
