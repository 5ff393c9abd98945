// Package internal documents the KampusKuEvent server internals.
//
// The internal tree is organized by responsibility:
// - api: HTTP handlers, middleware, problem responses, and routing
// - domain: events, participants, and the registration admission rule
// - storage: SQLite and Postgres repositories with embedded migrations
// - auth, config, metrics, telemetry, validation: shared infrastructure
// - loadtest: traffic generator used by cmd/loadtest
//
// Code in internal/ is not meant for external import.
package internal
