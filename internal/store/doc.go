// Package store provides SQLite-backed persistence for agent credentials
// and generic per-agent secrets. All token and secret values pass through
// the encryption gate before touching disk.
//
// The schema is managed by embedded golang-migrate SQL migrations applied
// on startup. Timestamps are stored as RFC 3339 UTC text; values written
// without a zone by SQLite itself are read back as UTC.
package store
