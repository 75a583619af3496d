package calendar

import (
	"time"

	calendar "google.golang.org/api/calendar/v3"
)

// primaryCalendar is the calendar all operations target.
const primaryCalendar = "primary"

// EventInput carries the caller-supplied fields for creating or updating
// an event. Zero values mean "leave unset" (create) or "keep existing"
// (update).
type EventInput struct {
	Summary     string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
	Attendees   []string
}

// EventSummary is the listing projection of one event.
type EventSummary struct {
	ID          string    `json:"id"`
	Summary     string    `json:"summary"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Location    string    `json:"location,omitempty"`
	Description string    `json:"description,omitempty"`
}

// EventDetails is the full projection of one event.
type EventDetails struct {
	EventSummary
	Attendees []AttendeeInfo `json:"attendees,omitempty"`
	HTMLLink  string         `json:"htmlLink,omitempty"`
}

// AttendeeInfo describes one event attendee.
type AttendeeInfo struct {
	Email          string `json:"email"`
	DisplayName    string `json:"displayName,omitempty"`
	ResponseStatus string `json:"responseStatus,omitempty"`
}

// toEventSummary converts a Google Calendar event to an EventSummary.
func toEventSummary(event *calendar.Event) EventSummary {
	if event == nil {
		return EventSummary{}
	}

	summary := EventSummary{
		ID:          event.Id,
		Summary:     event.Summary,
		Location:    event.Location,
		Description: event.Description,
	}
	summary.Start = parseEventTime(event.Start)
	summary.End = parseEventTime(event.End)
	return summary
}

// toEventDetails converts a Google Calendar event to EventDetails.
func toEventDetails(event *calendar.Event) EventDetails {
	details := EventDetails{
		EventSummary: toEventSummary(event),
	}
	if event == nil {
		return details
	}

	details.HTMLLink = event.HtmlLink
	for _, att := range event.Attendees {
		details.Attendees = append(details.Attendees, AttendeeInfo{
			Email:          att.Email,
			DisplayName:    att.DisplayName,
			ResponseStatus: att.ResponseStatus,
		})
	}
	return details
}

// parseEventTime reads an event boundary, which is either a DateTime for
// timed events or a bare Date for all-day events.
func parseEventTime(edt *calendar.EventDateTime) time.Time {
	if edt == nil {
		return time.Time{}
	}
	if edt.DateTime != "" {
		if t, err := time.Parse(time.RFC3339, edt.DateTime); err == nil {
			return t
		}
	}
	if edt.Date != "" {
		if t, err := time.Parse("2006-01-02", edt.Date); err == nil {
			return t
		}
	}
	return time.Time{}
}
