package graph

import (
	"errors"
	"fmt"
)

// OAuth error code Facebook uses for invalid or expired access tokens.
const codeOAuthException = 190

// Error is an error reported by the Graph API.
type Error struct {
	Message    string `json:"message"`
	Type       string `json:"type"`
	Code       int    `json:"code"`
	Subcode    int    `json:"error_subcode"`
	TraceID    string `json:"fbtrace_id"`
	HTTPStatus int    `json:"-"`
}

func (e *Error) Error() string {
	if e.Type == "" {
		return fmt.Sprintf("graph api error (code %d): %s", e.Code, e.Message)
	}
	return fmt.Sprintf("graph api %s (code %d): %s", e.Type, e.Code, e.Message)
}

// IsTokenExpired reports whether the access token was rejected.
func (e *Error) IsTokenExpired() bool {
	return e.Code == codeOAuthException
}

// AsError unwraps a Graph API error from err.
func AsError(err error) (*Error, bool) {
	var gerr *Error
	if errors.As(err, &gerr) {
		return gerr, true
	}
	return nil, false
}

// Message returns the human-readable part of err: the Graph API message when
// err came from the remote side, err.Error() otherwise.
func Message(err error) string {
	if gerr, ok := AsError(err); ok && gerr.Message != "" {
		return gerr.Message
	}
	return err.Error()
}
