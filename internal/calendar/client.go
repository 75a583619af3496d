package calendar

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// Client wraps the Google Calendar service for one agent.
type Client struct {
	svc     *calendar.Service
	agentID string
}

// AgentID returns the agent this client acts for.
func (c *Client) AgentID() string {
	return c.agentID
}

// NewClient creates a Calendar client backed by the given token source.
func NewClient(ctx context.Context, agentID string, ts oauth2.TokenSource) (*Client, error) {
	svc, err := calendar.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("create Calendar service: %w", err)
	}

	return &Client{svc: svc, agentID: agentID}, nil
}

// ListEvents lists upcoming events on the primary calendar, ordered by
// start time. A zero timeMin defaults to now.
func (c *Client) ListEvents(maxResults int64, timeMin time.Time) ([]EventSummary, error) {
	if maxResults <= 0 {
		maxResults = 10
	}
	if timeMin.IsZero() {
		timeMin = time.Now().UTC()
	}

	res, err := c.svc.Events.List(primaryCalendar).
		TimeMin(timeMin.Format(time.RFC3339)).
		MaxResults(maxResults).
		SingleEvents(true).
		OrderBy("startTime").
		Do()
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	summaries := make([]EventSummary, 0, len(res.Items))
	for _, event := range res.Items {
		summaries = append(summaries, toEventSummary(event))
	}
	return summaries, nil
}

// GetEvent retrieves one event by id.
func (c *Client) GetEvent(eventID string) (*EventDetails, error) {
	event, err := c.svc.Events.Get(primaryCalendar, eventID).Do()
	if err != nil {
		return nil, fmt.Errorf("get event %s: %w", eventID, err)
	}

	details := toEventDetails(event)
	return &details, nil
}

// CreateEvent creates a new event on the primary calendar. Times are sent
// in UTC.
func (c *Client) CreateEvent(input EventInput) (*EventDetails, error) {
	event := &calendar.Event{
		Summary:     input.Summary,
		Description: input.Description,
		Location:    input.Location,
		Start: &calendar.EventDateTime{
			DateTime: input.Start.UTC().Format(time.RFC3339),
			TimeZone: "UTC",
		},
		End: &calendar.EventDateTime{
			DateTime: input.End.UTC().Format(time.RFC3339),
			TimeZone: "UTC",
		},
	}
	for _, email := range input.Attendees {
		event.Attendees = append(event.Attendees, &calendar.EventAttendee{Email: email})
	}

	created, err := c.svc.Events.Insert(primaryCalendar, event).Do()
	if err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}

	details := toEventDetails(created)
	return &details, nil
}

// UpdateEvent applies a partial update to an existing event. Only the
// fields set in input are changed.
func (c *Client) UpdateEvent(eventID string, input EventInput) (*EventDetails, error) {
	existing, err := c.svc.Events.Get(primaryCalendar, eventID).Do()
	if err != nil {
		return nil, fmt.Errorf("get existing event %s: %w", eventID, err)
	}

	if input.Summary != "" {
		existing.Summary = input.Summary
	}
	if input.Description != "" {
		existing.Description = input.Description
	}
	if input.Location != "" {
		existing.Location = input.Location
	}
	if !input.Start.IsZero() {
		existing.Start = &calendar.EventDateTime{
			DateTime: input.Start.UTC().Format(time.RFC3339),
			TimeZone: "UTC",
		}
	}
	if !input.End.IsZero() {
		existing.End = &calendar.EventDateTime{
			DateTime: input.End.UTC().Format(time.RFC3339),
			TimeZone: "UTC",
		}
	}

	updated, err := c.svc.Events.Update(primaryCalendar, eventID, existing).Do()
	if err != nil {
		return nil, fmt.Errorf("update event %s: %w", eventID, err)
	}

	details := toEventDetails(updated)
	return &details, nil
}

// DeleteEvent removes an event from the primary calendar.
func (c *Client) DeleteEvent(eventID string) error {
	if err := c.svc.Events.Delete(primaryCalendar, eventID).Do(); err != nil {
		return fmt.Errorf("delete event %s: %w", eventID, err)
	}
	return nil
}
