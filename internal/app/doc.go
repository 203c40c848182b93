// Package app provides the application service layer.
//
// Orchestrates use cases: lineup management, group membership and invites,
// act selections with room broadcast, conflict detection, presence, and
// playlist building. Sits between HTTP handlers and domain repositories.
// Depends on domain interfaces, not concrete implementations.
package app
