package apisession

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/prperemyshlev/page-manager/internal/domain"
	"github.com/prperemyshlev/page-manager/internal/graph"
)

const (
	commentFields = "id,message,created_time,from,comment_count,attachment"
	unknownAuthor = "Unknown"
)

type graphComment struct {
	ID          string     `json:"id"`
	Message     string     `json:"message"`
	CreatedTime graph.Time `json:"created_time"`
	From        *struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"from"`
	CommentCount int             `json:"comment_count"`
	Attachment   json.RawMessage `json:"attachment"`
}

func (c graphComment) toDomain() domain.Comment {
	comment := domain.Comment{
		ID:            c.ID,
		Message:       c.Message,
		CreatedTime:   c.CreatedTime.Time,
		AuthorName:    unknownAuthor,
		ReplyCount:    c.CommentCount,
		HasAttachment: len(c.Attachment) > 0 && !bytes.Equal(c.Attachment, []byte("null")),
	}
	if c.From != nil {
		comment.AuthorID = c.From.ID
		if c.From.Name != "" {
			comment.AuthorName = c.From.Name
		}
	}
	return comment
}

// ListComments returns every comment on a post or comment.
func (m *Manager) ListComments(ctx context.Context, client GraphAPI, objectID string, limit int) ([]domain.Comment, error) {
	raw, err := collectAll[graphComment](ctx, client, objectID, "comments", commentFields, limit)
	m.record(ctx, "list_comments", err)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}

	comments := make([]domain.Comment, 0, len(raw))
	for _, c := range raw {
		comments = append(comments, c.toDomain())
	}
	return comments, nil
}

// GetComment reads a single comment.
func (m *Manager) GetComment(ctx context.Context, client GraphAPI, commentID string) (*domain.Comment, error) {
	var raw graphComment
	err := client.GetObject(ctx, commentID, url.Values{"fields": {commentFields}}, &raw)
	m.record(ctx, "get_comment", err)
	if err != nil {
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}

	comment := raw.toDomain()
	return &comment, nil
}

// ReplyToComment adds a comment to objectID, which may be a post (a top-level
// comment) or a comment (a reply). It returns the new comment id.
func (m *Manager) ReplyToComment(ctx context.Context, client GraphAPI, objectID, message string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", ErrEmptyMessage
	}

	var created createdObject
	err := client.Post(ctx, objectID+"/comments", url.Values{"message": {message}}, &created)
	m.record(ctx, "reply_to_comment", err)
	if err != nil {
		return "", fmt.Errorf("failed to post reply: %w", err)
	}
	return created.ID, nil
}

// EditComment replaces the message of a comment.
func (m *Manager) EditComment(ctx context.Context, client GraphAPI, commentID, message string) error {
	if strings.TrimSpace(message) == "" {
		return ErrEmptyMessage
	}

	err := client.Post(ctx, commentID, url.Values{"message": {message}}, nil)
	m.record(ctx, "edit_comment", err)
	if err != nil {
		return fmt.Errorf("failed to edit comment: %w", err)
	}
	return nil
}

// DeleteComment removes a comment.
func (m *Manager) DeleteComment(ctx context.Context, client GraphAPI, commentID string) error {
	err := client.Delete(ctx, commentID)
	m.record(ctx, "delete_comment", err)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	return nil
}
