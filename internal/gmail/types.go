package gmail

// MessageRef identifies one message in a listing.
type MessageRef struct {
	ID       string `json:"id"`
	ThreadID string `json:"threadId"`
}

// MessageDetails is the readable projection of one message: the headers
// agents care about plus a truncated plaintext body.
type MessageDetails struct {
	ID      string `json:"id"`
	Subject string `json:"subject"`
	From    string `json:"from"`
	Body    string `json:"body"`
}

// LabelInfo describes one Gmail label.
type LabelInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"` // "system" or "user"
}

// bodyPreviewLimit caps the plaintext body returned by GetMessage.
// Agents reading mail want a preview, not megabytes of quoted history.
const bodyPreviewLimit = 500
