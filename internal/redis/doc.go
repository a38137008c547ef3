// Package redis constructs the shared go-redis client with command-level
// metrics instrumentation attached.
package redis
