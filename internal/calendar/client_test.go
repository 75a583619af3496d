package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	calendar "google.golang.org/api/calendar/v3"
)

func TestToEventSummary(t *testing.T) {
	event := &calendar.Event{
		Id:          "evt-1",
		Summary:     "Planning",
		Location:    "Room 4",
		Description: "Quarterly planning",
		Start:       &calendar.EventDateTime{DateTime: "2026-09-01T10:00:00Z"},
		End:         &calendar.EventDateTime{DateTime: "2026-09-01T11:00:00Z"},
	}

	summary := toEventSummary(event)

	assert.Equal(t, "evt-1", summary.ID)
	assert.Equal(t, "Planning", summary.Summary)
	assert.Equal(t, "Room 4", summary.Location)
	assert.Equal(t, "Quarterly planning", summary.Description)
	assert.Equal(t, time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC), summary.Start.UTC())
	assert.Equal(t, time.Date(2026, 9, 1, 11, 0, 0, 0, time.UTC), summary.End.UTC())
}

func TestToEventSummary_Nil(t *testing.T) {
	summary := toEventSummary(nil)

	assert.Empty(t, summary.ID)
	assert.True(t, summary.Start.IsZero())
	assert.True(t, summary.End.IsZero())
}

func TestToEventDetails(t *testing.T) {
	event := &calendar.Event{
		Id:       "evt-2",
		Summary:  "Sync",
		HtmlLink: "https://calendar.google.com/event?eid=abc",
		Attendees: []*calendar.EventAttendee{
			{Email: "a@example.com", DisplayName: "Alice", ResponseStatus: "accepted"},
			{Email: "b@example.com", ResponseStatus: "needsAction"},
		},
	}

	details := toEventDetails(event)

	assert.Equal(t, "evt-2", details.ID)
	assert.Equal(t, "https://calendar.google.com/event?eid=abc", details.HTMLLink)
	assert.Len(t, details.Attendees, 2)
	assert.Equal(t, "a@example.com", details.Attendees[0].Email)
	assert.Equal(t, "Alice", details.Attendees[0].DisplayName)
	assert.Equal(t, "needsAction", details.Attendees[1].ResponseStatus)
}

func TestToEventDetails_Nil(t *testing.T) {
	details := toEventDetails(nil)

	assert.Empty(t, details.ID)
	assert.Empty(t, details.Attendees)
	assert.Empty(t, details.HTMLLink)
}

func TestParseEventTime(t *testing.T) {
	tests := []struct {
		name string
		edt  *calendar.EventDateTime
		want time.Time
	}{
		{
			name: "timed event",
			edt:  &calendar.EventDateTime{DateTime: "2026-09-01T09:30:00Z"},
			want: time.Date(2026, 9, 1, 9, 30, 0, 0, time.UTC),
		},
		{
			name: "timed event with offset",
			edt:  &calendar.EventDateTime{DateTime: "2026-09-01T09:30:00+02:00"},
			want: time.Date(2026, 9, 1, 7, 30, 0, 0, time.UTC),
		},
		{
			name: "all day event",
			edt:  &calendar.EventDateTime{Date: "2026-09-01"},
			want: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "nil boundary",
			edt:  nil,
			want: time.Time{},
		},
		{
			name: "malformed datetime",
			edt:  &calendar.EventDateTime{DateTime: "not-a-time"},
			want: time.Time{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseEventTime(tt.edt)
			assert.Equal(t, tt.want, got.UTC())
		})
	}
}
