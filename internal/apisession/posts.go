package apisession

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/prperemyshlev/page-manager/internal/domain"
	"github.com/prperemyshlev/page-manager/internal/graph"
)

const postFields = "id,message,created_time,permalink_url,shares,reactions.summary(true),comments.summary(true)"

type summaryEdge struct {
	Summary struct {
		TotalCount int `json:"total_count"`
	} `json:"summary"`
}

type graphPost struct {
	ID           string     `json:"id"`
	Message      string     `json:"message"`
	CreatedTime  graph.Time `json:"created_time"`
	PermalinkURL string     `json:"permalink_url"`
	Shares       struct {
		Count int `json:"count"`
	} `json:"shares"`
	Reactions summaryEdge `json:"reactions"`
	Comments  summaryEdge `json:"comments"`
}

func (p graphPost) toDomain() domain.Post {
	return domain.Post{
		ID:            p.ID,
		Message:       p.Message,
		CreatedTime:   p.CreatedTime.Time,
		PermalinkURL:  p.PermalinkURL,
		ShareCount:    p.Shares.Count,
		ReactionCount: p.Reactions.Summary.TotalCount,
		CommentCount:  p.Comments.Summary.TotalCount,
	}
}

type createdObject struct {
	ID string `json:"id"`
}

// ListPosts returns every post of the page, newest first as Facebook orders
// them.
func (m *Manager) ListPosts(ctx context.Context, client GraphAPI, pageID string, limit int) ([]domain.Post, error) {
	raw, err := collectAll[graphPost](ctx, client, pageID, "posts", postFields, limit)
	m.record(ctx, "list_posts", err)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}

	posts := make([]domain.Post, 0, len(raw))
	for _, p := range raw {
		posts = append(posts, p.toDomain())
	}
	return posts, nil
}

// GetPost reads a single post with its counters.
func (m *Manager) GetPost(ctx context.Context, client GraphAPI, postID string) (*domain.Post, error) {
	var raw graphPost
	err := client.GetObject(ctx, postID, url.Values{"fields": {postFields}}, &raw)
	m.record(ctx, "get_post", err)
	if err != nil {
		return nil, fmt.Errorf("failed to get post: %w", err)
	}

	post := raw.toDomain()
	return &post, nil
}

// CreatePost publishes a message, with an optional link, to the page feed
// and returns the new post id.
func (m *Manager) CreatePost(ctx context.Context, client GraphAPI, pageID, message, link string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", ErrEmptyMessage
	}

	form := url.Values{"message": {message}}
	if link = strings.TrimSpace(link); link != "" {
		form.Set("link", link)
	}

	var created createdObject
	err := client.Post(ctx, pageID+"/feed", form, &created)
	m.record(ctx, "create_post", err)
	if err != nil {
		return "", fmt.Errorf("failed to create post: %w", err)
	}
	return created.ID, nil
}

// EditPost replaces the message of a post.
func (m *Manager) EditPost(ctx context.Context, client GraphAPI, postID, message string) error {
	if strings.TrimSpace(message) == "" {
		return ErrEmptyMessage
	}

	err := client.Post(ctx, postID, url.Values{"message": {message}}, nil)
	m.record(ctx, "edit_post", err)
	if err != nil {
		return fmt.Errorf("failed to edit post: %w", err)
	}
	return nil
}

// DeletePost removes a post.
func (m *Manager) DeletePost(ctx context.Context, client GraphAPI, postID string) error {
	err := client.Delete(ctx, postID)
	m.record(ctx, "delete_post", err)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	return nil
}
