// Package server exposes the HTTP and WebSocket surface: the JSON API over
// the application service, health and metrics endpoints, and the upgrade
// handler feeding authenticated connections into the room hub.
package server
