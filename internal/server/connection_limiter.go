package server

import (
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/amelendez141/Golf-App-sub001/internal/metrics"
)

// LimitScope names which limit rejected a connection. Values double as the
// metric label.
type LimitScope string

const (
	ScopeGlobal LimitScope = "global"
	ScopePerIP  LimitScope = "per_ip"
	ScopeRate   LimitScope = "rate"
)

// ConnectionLimits gates websocket upgrades with three checks: a per-IP
// token bucket on connection attempts, a global concurrent-connection cap,
// and a per-IP concurrent-connection cap.
type ConnectionLimits struct {
	maxGlobal int64
	current   atomic.Int64

	maxPerIP int
	mu       sync.Mutex
	perIP    map[string]int
	buckets  map[string]*ipBucket

	attemptRate  rate.Limit
	attemptBurst int
	cleanupAt    time.Time
}

type ipBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewConnectionLimits creates the combined limiter. attemptsPerSecond and
// burst bound handshake attempts per IP before any slot accounting happens.
func NewConnectionLimits(maxGlobal int64, maxPerIP int, attemptsPerSecond float64, burst int) *ConnectionLimits {
	return &ConnectionLimits{
		maxGlobal:    maxGlobal,
		maxPerIP:     maxPerIP,
		perIP:        make(map[string]int),
		buckets:      make(map[string]*ipBucket),
		attemptRate:  rate.Limit(attemptsPerSecond),
		attemptBurst: burst,
		cleanupAt:    time.Now().Add(5 * time.Minute),
	}
}

// Acquire claims a connection slot for ip. On rejection it returns the scope
// that refused and records the rejection metric; nothing is held.
func (l *ConnectionLimits) Acquire(ip string) (bool, LimitScope) {
	if !l.allowAttempt(ip) {
		metrics.ConnectionLimitRejectedTotal.WithLabelValues(string(ScopeRate)).Inc()
		return false, ScopeRate
	}

	if !l.acquireGlobal() {
		metrics.ConnectionLimitRejectedTotal.WithLabelValues(string(ScopeGlobal)).Inc()
		return false, ScopeGlobal
	}

	if !l.acquirePerIP(ip) {
		l.current.Add(-1)
		metrics.ConnectionLimitRejectedTotal.WithLabelValues(string(ScopePerIP)).Inc()
		return false, ScopePerIP
	}

	return true, ""
}

// Release frees the slot claimed by Acquire.
func (l *ConnectionLimits) Release(ip string) {
	l.mu.Lock()
	if count := l.perIP[ip]; count > 1 {
		l.perIP[ip] = count - 1
	} else if count == 1 {
		delete(l.perIP, ip)
	}
	l.mu.Unlock()

	l.current.Add(-1)
}

// Current returns the number of held connection slots.
func (l *ConnectionLimits) Current() int64 {
	return l.current.Load()
}

func (l *ConnectionLimits) acquireGlobal() bool {
	for {
		current := l.current.Load()
		if current >= l.maxGlobal {
			return false
		}
		if l.current.CompareAndSwap(current, current+1) {
			return true
		}
	}
}

func (l *ConnectionLimits) acquirePerIP(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.perIP[ip] >= l.maxPerIP {
		return false
	}
	l.perIP[ip]++
	return true
}

func (l *ConnectionLimits) allowAttempt(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now := time.Now(); now.After(l.cleanupAt) {
		cutoff := now.Add(-10 * time.Minute)
		for key, bucket := range l.buckets {
			if bucket.lastSeen.Before(cutoff) {
				delete(l.buckets, key)
			}
		}
		l.cleanupAt = now.Add(5 * time.Minute)
	}

	bucket, ok := l.buckets[ip]
	if !ok {
		bucket = &ipBucket{limiter: rate.NewLimiter(l.attemptRate, l.attemptBurst)}
		l.buckets[ip] = bucket
	}
	bucket.lastSeen = time.Now()
	return bucket.limiter.Allow()
}
