// Package redis implements Redis-backed stores and client plumbing.
//
// Provides InviteStore (short-lived invite codes expiring via key TTL) and
// the hooks every client carries: MetricsHook (per-operation counters and
// latency) and CircuitBreakerHook (fail-fast with cached-read fallback while
// Redis is unhealthy).
package redis
