package google

import "errors"

// The credential resolver and grant exchanger recover every provider or
// persistence failure into this closed set, so the serving layer can map
// each kind to a distinct response without inspecting raw provider errors.
var (
	// ErrNotConnected means no credential record exists for the agent.
	// The agent has to run the authorization flow first.
	ErrNotConnected = errors.New("agent is not connected")

	// ErrReauthRequired means the stored access token has expired and no
	// refresh token is available. The agent has to re-run the authorization
	// flow; no amount of retrying will help.
	ErrReauthRequired = errors.New("re-authorization required")

	// ErrExchangeFailed means the authorization code exchange was rejected
	// (invalid, expired or already-used code, or a provider failure). The
	// authorization flow must be restarted from the beginning.
	ErrExchangeFailed = errors.New("authorization code exchange failed")

	// ErrRefreshFailed means the token refresh call was rejected or failed
	// on the network. Nothing was persisted; a later resolve may succeed.
	ErrRefreshFailed = errors.New("credential refresh failed")
)
