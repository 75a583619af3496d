// Package calendar wraps the Google Calendar API for delegated agent
// access. Operations target the agent's primary calendar.
package calendar
