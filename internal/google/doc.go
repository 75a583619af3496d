// Package google manages delegated Google OAuth credentials for agents.
//
// It owns the credential lifecycle: exchanging an authorization grant for
// tokens, persisting them encrypted, and resolving a currently-valid token
// on demand, refreshing lazily through Google's token endpoint when the
// stored access token has expired. Gmail and Calendar clients consume the
// resolved credential through an oauth2.TokenSource adapter.
package google
