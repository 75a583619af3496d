// Package logging provides slog helpers and attribute conventions shared
// across agentgate. Agent identifiers are always logged as truncated
// SHA-256 hashes; token values are never logged.
package logging
