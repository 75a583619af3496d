// Package server provides the HTTP surface of agentgate: the OAuth
// authorization endpoints, the delegated Gmail/Calendar/secrets API, health
// probes and the dedicated Prometheus metrics listener.
//
// Every delegated endpoint takes an agent_id and resolves that agent's
// stored credential before touching a Google API. Credential lifecycle
// failures are translated to a small set of HTTP error codes so callers can
// distinguish "never connected" from "needs re-authorization" from
// "upstream refresh failure".
package server
