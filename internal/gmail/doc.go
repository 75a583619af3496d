// Package gmail wraps the Gmail API for delegated agent access. A Client
// is bound to one agent's token source; every call runs with a credential
// the resolver has already validated or refreshed.
package gmail
