package gmail

import (
	"encoding/base64"
	"strings"
	"unicode/utf8"

	gmail "google.golang.org/api/gmail/v1"
)

// extractPlainBody walks a message payload for the first text/plain part
// and returns it decoded. Multipart messages nest arbitrarily deep; the
// walk is depth-first so the top-level plain part wins.
func extractPlainBody(payload *gmail.MessagePart) string {
	if payload == nil {
		return ""
	}

	if len(payload.Parts) == 0 {
		if payload.Body != nil && payload.Body.Data != "" {
			return decodeBody(payload.Body.Data)
		}
		return ""
	}

	for _, part := range payload.Parts {
		if part.MimeType == "text/plain" && part.Body != nil && part.Body.Data != "" {
			return decodeBody(part.Body.Data)
		}
	}

	// No direct text/plain child; recurse, but only into container parts.
	// A leaf of another mime type (text/html) must not be served as the
	// plaintext body.
	for _, part := range payload.Parts {
		if !strings.HasPrefix(part.MimeType, "multipart/") && len(part.Parts) == 0 {
			continue
		}
		if body := extractPlainBody(part); body != "" {
			return body
		}
	}

	return ""
}

// decodeBody decodes Gmail's base64url body data, falling back to standard
// base64 for the odd message that uses it.
func decodeBody(data string) string {
	if decoded, err := base64.URLEncoding.DecodeString(data); err == nil {
		return string(decoded)
	}
	if decoded, err := base64.StdEncoding.DecodeString(data); err == nil {
		return string(decoded)
	}
	return ""
}

// truncate cuts s to at most limit runes, never splitting a multi-byte
// sequence.
func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}
