// Package crypto provides the symmetric encryption gate used for all
// secrets agentgate persists: OAuth tokens and per-agent secret values.
//
// The gate is constructed once at startup from the configured key and
// injected into the stores. A missing or malformed key aborts startup.
package crypto
