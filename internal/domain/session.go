package domain

import (
	"encoding/json"
	"fmt"
)

// FlashKind is the severity of a flash message.
type FlashKind string

const (
	FlashSuccess FlashKind = "success"
	FlashError   FlashKind = "error"
	FlashWarning FlashKind = "warning"
	FlashInfo    FlashKind = "info"
)

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Kind    FlashKind `json:"kind"`
	Message string    `json:"message"`
}

// SessionContext is the per-session UI state. It is serialized as JSON so
// it can live outside the process.
type SessionContext struct {
	SessionID         string  `json:"session_id"`
	UserID            string  `json:"user_id"`
	Username          string  `json:"username"`
	SelectedAccountID string  `json:"selected_account_id,omitempty"`
	SelectedPostID    string  `json:"selected_post_id,omitempty"`
	Flashes           []Flash `json:"flashes,omitempty"`
}

// AddFlash queues a message for the next render.
func (s *SessionContext) AddFlash(kind FlashKind, format string, args ...any) {
	s.Flashes = append(s.Flashes, Flash{Kind: kind, Message: fmt.Sprintf(format, args...)})
}

// TakeFlashes returns queued messages and clears the queue.
func (s *SessionContext) TakeFlashes() []Flash {
	f := s.Flashes
	s.Flashes = nil
	return f
}

// SelectAccount switches the selected account and drops the selected post,
// which belongs to the previous page.
func (s *SessionContext) SelectAccount(accountID string) {
	if s.SelectedAccountID != accountID {
		s.SelectedPostID = ""
	}
	s.SelectedAccountID = accountID
}

// Marshal encodes the context for storage.
func (s *SessionContext) Marshal() ([]byte, error) {
	return json.Marshal(s)
}

// UnmarshalSessionContext decodes a stored context.
func UnmarshalSessionContext(data []byte) (*SessionContext, error) {
	var s SessionContext
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode session context: %w", err)
	}
	return &s, nil
}
