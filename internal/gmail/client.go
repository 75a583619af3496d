package gmail

import (
	"context"
	"encoding/base64"
	"fmt"

	"golang.org/x/oauth2"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// Client wraps the Gmail Users service for one agent.
type Client struct {
	svc     *gmail.UsersService
	agentID string
}

// AgentID returns the agent this client acts for.
func (c *Client) AgentID() string {
	return c.agentID
}

// NewClient creates a Gmail client backed by the given token source. The
// token source is expected to hand out currently-valid credentials; the
// client never refreshes on its own.
func NewClient(ctx context.Context, agentID string, ts oauth2.TokenSource) (*Client, error) {
	svc, err := gmail.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("create Gmail service: %w", err)
	}

	return &Client{svc: svc.Users, agentID: agentID}, nil
}

// ListMessages returns up to maxResults message references from the
// agent's mailbox, newest first.
func (c *Client) ListMessages(maxResults int64) ([]MessageRef, error) {
	if maxResults <= 0 {
		maxResults = 5
	}

	res, err := c.svc.Messages.List("me").MaxResults(maxResults).Do()
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	refs := make([]MessageRef, 0, len(res.Messages))
	for _, m := range res.Messages {
		refs = append(refs, MessageRef{ID: m.Id, ThreadID: m.ThreadId})
	}
	return refs, nil
}

// GetMessage retrieves one message and projects it to subject, sender and
// a truncated plaintext body.
func (c *Client) GetMessage(messageID string) (*MessageDetails, error) {
	msg, err := c.svc.Messages.Get("me", messageID).Format("full").Do()
	if err != nil {
		return nil, fmt.Errorf("get message %s: %w", messageID, err)
	}

	details := &MessageDetails{ID: msg.Id}
	if msg.Payload != nil {
		for _, header := range msg.Payload.Headers {
			switch header.Name {
			case "Subject":
				details.Subject = header.Value
			case "From":
				details.From = header.Value
			}
		}
		details.Body = truncate(extractPlainBody(msg.Payload), bodyPreviewLimit)
	}

	return details, nil
}

// SendMessage sends a plaintext email from the agent's mailbox and returns
// the sent message id.
func (c *Client) SendMessage(to, subject, body string) (string, error) {
	raw := fmt.Sprintf(
		"To: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=\"UTF-8\"\r\nMIME-Version: 1.0\r\n\r\n%s",
		to, subject, body,
	)

	sent, err := c.svc.Messages.Send("me", &gmail.Message{
		Raw: base64.URLEncoding.EncodeToString([]byte(raw)),
	}).Do()
	if err != nil {
		return "", fmt.Errorf("send message: %w", err)
	}

	return sent.Id, nil
}

// ListLabels returns all labels in the agent's mailbox.
func (c *Client) ListLabels() ([]LabelInfo, error) {
	res, err := c.svc.Labels.List("me").Do()
	if err != nil {
		return nil, fmt.Errorf("list labels: %w", err)
	}

	labels := make([]LabelInfo, 0, len(res.Labels))
	for _, l := range res.Labels {
		labels = append(labels, LabelInfo{ID: l.Id, Name: l.Name, Type: l.Type})
	}
	return labels, nil
}

// ModifyMessage adds and removes labels on a message.
func (c *Client) ModifyMessage(messageID string, addLabelIDs, removeLabelIDs []string) error {
	_, err := c.svc.Messages.Modify("me", messageID, &gmail.ModifyMessageRequest{
		AddLabelIds:    addLabelIDs,
		RemoveLabelIds: removeLabelIDs,
	}).Do()
	if err != nil {
		return fmt.Errorf("modify message %s: %w", messageID, err)
	}
	return nil
}
