package google

// DefaultOAuthScopes are the Google OAuth scopes requested during agent
// authorization. They cover the operations agentgate performs on behalf
// of an agent:
//   - Gmail: read, modify labels, send
//   - Google Calendar: read and write events
var DefaultOAuthScopes = []string{
	"https://www.googleapis.com/auth/gmail.modify",
	"https://www.googleapis.com/auth/gmail.send",
	"https://www.googleapis.com/auth/calendar",
}
