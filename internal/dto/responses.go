package dto

import "time"

// AccountResponse is a connected account without its token
type AccountResponse struct {
	ID          string     `json:"id"`
	AccountName string     `json:"account_name"`
	PageID      string     `json:"page_id"`
	TokenStatus string     `json:"token_status"`
	ExpiresAt   *time.Time `json:"expires_at"`
}

// PostResponse is a post with its engagement
type PostResponse struct {
	ID            string    `json:"id"`
	Message       string    `json:"message"`
	CreatedTime   time.Time `json:"created_time"`
	PermalinkURL  string    `json:"permalink_url"`
	ShareCount    int       `json:"share_count"`
	ReactionCount int       `json:"reaction_count"`
	CommentCount  int       `json:"comment_count"`
	Engagement    int       `json:"engagement"`
}

// CommentResponse is a comment
type CommentResponse struct {
	ID            string    `json:"id"`
	Message       string    `json:"message"`
	CreatedTime   time.Time `json:"created_time"`
	AuthorName    string    `json:"author_name"`
	AuthorID      string    `json:"author_id"`
	ReplyCount    int       `json:"reply_count"`
	HasAttachment bool      `json:"has_attachment"`
}

// InsightsResponse holds aggregated page metrics
type InsightsResponse struct {
	Period         string         `json:"period"`
	Days           int            `json:"days"`
	Metrics        map[string]int `json:"metrics"`
	EngagementRate float64        `json:"engagement_rate"`
}

// ListResponse wraps a list with its size
type ListResponse[T any] struct {
	Data  []T `json:"data"`
	Count int `json:"count"`
}

// SuccessResponse represents a success response
type SuccessResponse struct {
	Message string `json:"message"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
