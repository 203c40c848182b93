// Package domain defines the core domain types and interfaces.
//
// This package contains concept-oriented files (errors.go, conflict.go, etc.)
// with shared types and cross-cutting interfaces. No implementation code - just
// contracts plus the pure conflict-detection algorithm. Prevents circular
// imports by keeping interfaces on the consumer side.
package domain
