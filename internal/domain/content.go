package domain

import "time"

// Post is a normalized page post.
type Post struct {
	ID            string    `json:"id"`
	Message       string    `json:"message"`
	CreatedTime   time.Time `json:"created_time"`
	PermalinkURL  string    `json:"permalink_url"`
	ShareCount    int       `json:"share_count"`
	ReactionCount int       `json:"reaction_count"`
	CommentCount  int       `json:"comment_count"`
}

// Engagement is reactions + comments + shares.
func (p Post) Engagement() int {
	return p.ReactionCount + p.CommentCount + p.ShareCount
}

// ShortMessage returns the first n runes of the message followed by "...".
func (p Post) ShortMessage(n int) string {
	return Truncate(p.Message, n)
}

// Comment is a normalized comment on a post or on another comment.
type Comment struct {
	ID            string    `json:"id"`
	Message       string    `json:"message"`
	CreatedTime   time.Time `json:"created_time"`
	AuthorName    string    `json:"author_name"`
	AuthorID      string    `json:"author_id"`
	ReplyCount    int       `json:"reply_count"`
	HasAttachment bool      `json:"has_attachment"`
}

// PageInfo is the subset of page fields used to validate a token.
type PageInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	FanCount int    `json:"fan_count"`
}

// Insights maps a metric name to its aggregated value.
type Insights map[string]int

// EngagementRate returns engagements per impression as a percentage.
func (i Insights) EngagementRate() float64 {
	impressions := i["page_impressions"]
	if impressions == 0 {
		return 0
	}
	return float64(i["page_post_engagements"]) / float64(impressions) * 100
}

// Truncate shortens s to n runes and appends "..." when anything was cut.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
