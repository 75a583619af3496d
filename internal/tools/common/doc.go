// Package common provides shared helpers for MCP tool packages: agent id
// extraction, error rendering for the credential lifecycle sentinels, and
// instrumented handler wrappers.
package common
