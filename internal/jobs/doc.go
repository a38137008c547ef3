// Package jobs implements the durable background job pipeline on Redis:
// per-class ready/delayed/dead lists, at-least-once workers with bounded
// concurrency, exponential retry with a dead-letter terminus, and the
// reminder and digest schedulers that feed the queue.
//
// Everything here assumes handlers are idempotent: a job may be delivered
// more than once, and duplicate work is suppressed downstream (deterministic
// notification ids, idempotency keys on enqueue).
package jobs
