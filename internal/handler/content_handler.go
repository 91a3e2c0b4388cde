package handler

import (
	"context"
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/page-manager/internal/apisession"
	"github.com/prperemyshlev/page-manager/internal/domain"
	"github.com/prperemyshlev/page-manager/internal/dto"
	"github.com/prperemyshlev/page-manager/internal/graph"
	"go.uber.org/zap"
)

const (
	recentPostsLimit = 10
	commentsLimit    = 100
	defaultDays      = 7
)

var dashboardDays = []int{7, 14, 30}

// PageOperations are the Graph API operations behind the content pages.
type PageOperations interface {
	ResolveClient(ctx context.Context, accountID, userID string) (apisession.GraphAPI, *domain.FacebookAccount, error)
	ListPosts(ctx context.Context, client apisession.GraphAPI, pageID string, limit int) ([]domain.Post, error)
	GetPost(ctx context.Context, client apisession.GraphAPI, postID string) (*domain.Post, error)
	CreatePost(ctx context.Context, client apisession.GraphAPI, pageID, message, link string) (string, error)
	EditPost(ctx context.Context, client apisession.GraphAPI, postID, message string) error
	DeletePost(ctx context.Context, client apisession.GraphAPI, postID string) error
	ListComments(ctx context.Context, client apisession.GraphAPI, objectID string, limit int) ([]domain.Comment, error)
	GetComment(ctx context.Context, client apisession.GraphAPI, commentID string) (*domain.Comment, error)
	ReplyToComment(ctx context.Context, client apisession.GraphAPI, objectID, message string) (string, error)
	EditComment(ctx context.Context, client apisession.GraphAPI, commentID, message string) error
	DeleteComment(ctx context.Context, client apisession.GraphAPI, commentID string) error
	GetPageInsights(ctx context.Context, client apisession.GraphAPI, pageID, period string, days int) (domain.Insights, error)
}

var _ PageOperations = (*apisession.Manager)(nil)

type dashboardData struct {
	Days       int
	Period     string
	DayOptions []int
	Periods    []string
	Insights   domain.Insights
	Posts      []domain.Post
}

type postsData struct {
	Limit int
	Posts []domain.Post
}

type postData struct {
	Post *domain.Post
}

type commentsData struct {
	PageID   string
	Posts    []domain.Post
	Post     *domain.Post
	Comments []domain.Comment
}

// ContentHandler serves the dashboard, posts and comments of the selected
// account.
type ContentHandler struct {
	*Pages
	ops PageOperations
}

// NewContentHandler creates a new content handler
func NewContentHandler(pages *Pages, ops PageOperations) *ContentHandler {
	return &ContentHandler{Pages: pages, ops: ops}
}

// selected resolves the selected account to its Graph client.
func (h *ContentHandler) selected(c *gin.Context, title, active string) (*view, apisession.GraphAPI, bool) {
	v, ok := h.requireAccount(c, title, active)
	if !ok {
		return nil, nil, false
	}

	sc := sessionContext(c)
	client, account, err := h.ops.ResolveClient(c.Request.Context(), v.Selected.ID, sc.UserID)
	if err != nil {
		h.logger.Error("failed to resolve graph client", zap.String("account_id", v.Selected.ID), zap.Error(err))
		flashRedirect(c, domain.FlashError, userMessage(err), "/accounts")
		return nil, nil, false
	}
	v.Selected = account

	if account.IsTokenExpired(h.now()) {
		sc.AddFlash(domain.FlashWarning, "The access token of '%s' has expired. Update it on the accounts page.", account.AccountName)
	}

	return v, client, true
}

// Dashboard renders the insights cards and the recent posts
func (h *ContentHandler) Dashboard(c *gin.Context) {
	v, client, ok := h.selected(c, "Dashboard", "dashboard")
	if !ok {
		return
	}

	var q dto.InsightsQuery
	_ = c.ShouldBindQuery(&q)
	days, period := normalizeInsightsQuery(q)

	data := dashboardData{
		Days:       days,
		Period:     period,
		DayOptions: dashboardDays,
		Periods:    apisession.InsightPeriods,
	}

	ctx := c.Request.Context()
	sc := sessionContext(c)

	insights, err := h.ops.GetPageInsights(ctx, client, v.Selected.PageID, period, days)
	if err != nil {
		sc.AddFlash(domain.FlashWarning, "Could not fetch page insights: %s", graph.Message(err))
	} else {
		data.Insights = insights
	}

	posts, err := h.ops.ListPosts(ctx, client, v.Selected.PageID, recentPostsLimit)
	if err != nil {
		sc.AddFlash(domain.FlashError, "Could not fetch recent posts: %s", userMessage(err))
	}
	data.Posts = posts

	v.Data = data
	h.render(c, http.StatusOK, "dashboard", v)
}

// Posts renders the posts table
func (h *ContentHandler) Posts(c *gin.Context) {
	v, client, ok := h.selected(c, "Posts", "posts")
	if !ok {
		return
	}

	var q dto.PostsQuery
	_ = c.ShouldBindQuery(&q)
	limit := clampLimit(q.Limit, v.Prefs.PostsPerPage)

	posts, err := h.ops.ListPosts(c.Request.Context(), client, v.Selected.PageID, limit)
	if err != nil {
		sessionContext(c).AddFlash(domain.FlashError, "Failed to fetch posts: %s", userMessage(err))
	}

	v.Data = postsData{Limit: limit, Posts: posts}
	h.render(c, http.StatusOK, "posts", v)
}

// CreatePost publishes a post on the selected page
func (h *ContentHandler) CreatePost(c *gin.Context) {
	v, client, ok := h.selected(c, "Posts", "posts")
	if !ok {
		return
	}

	var req dto.CreatePostRequest
	_ = c.ShouldBind(&req)

	id, err := h.ops.CreatePost(c.Request.Context(), client, v.Selected.PageID, req.Message, req.Link)
	if err != nil {
		flashRedirect(c, domain.FlashError, "Failed to create post: "+userMessage(err), "/posts")
		return
	}

	flashRedirect(c, domain.FlashSuccess, "Post created successfully! Post ID: "+id, "/posts")
}

// Post renders one post with its edit and delete forms
func (h *ContentHandler) Post(c *gin.Context) {
	v, client, ok := h.selected(c, "Post", "posts")
	if !ok {
		return
	}

	post, err := h.ops.GetPost(c.Request.Context(), client, c.Param("postId"))
	if err != nil {
		flashRedirect(c, domain.FlashError, "Failed to fetch post: "+userMessage(err), "/posts")
		return
	}

	v.Data = postData{Post: post}
	h.render(c, http.StatusOK, "post", v)
}

// EditPost replaces the message of a post
func (h *ContentHandler) EditPost(c *gin.Context) {
	_, client, ok := h.selected(c, "Post", "posts")
	if !ok {
		return
	}

	var req dto.MessageRequest
	_ = c.ShouldBind(&req)

	postID := c.Param("postId")
	if err := h.ops.EditPost(c.Request.Context(), client, postID, req.Message); err != nil {
		flashRedirect(c, domain.FlashError, "Failed to update post: "+userMessage(err), "/posts/"+postID)
		return
	}

	flashRedirect(c, domain.FlashSuccess, "Post updated successfully!", "/posts/"+postID)
}

// DeletePost removes a post
func (h *ContentHandler) DeletePost(c *gin.Context) {
	_, client, ok := h.selected(c, "Post", "posts")
	if !ok {
		return
	}

	postID := c.Param("postId")
	if err := h.ops.DeletePost(c.Request.Context(), client, postID); err != nil {
		flashRedirect(c, domain.FlashError, "Failed to delete post: "+userMessage(err), "/posts/"+postID)
		return
	}

	sc := sessionContext(c)
	if sc.SelectedPostID == postID {
		sc.SelectedPostID = ""
	}
	flashRedirect(c, domain.FlashSuccess, "Post deleted successfully!", "/posts")
}

// Comments renders the post picker and the comments of the selected post
func (h *ContentHandler) Comments(c *gin.Context) {
	v, client, ok := h.selected(c, "Comments", "comments")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	sc := sessionContext(c)
	if postID, ok := c.GetQuery("post_id"); ok {
		sc.SelectedPostID = postID
	}

	data := commentsData{PageID: v.Selected.PageID}

	posts, err := h.ops.ListPosts(ctx, client, v.Selected.PageID, v.Prefs.PostsPerPage)
	if err != nil {
		sc.AddFlash(domain.FlashError, "Failed to fetch posts: %s", userMessage(err))
	}
	data.Posts = posts

	if sc.SelectedPostID != "" {
		post, err := h.ops.GetPost(ctx, client, sc.SelectedPostID)
		if err != nil {
			sc.AddFlash(domain.FlashError, "Failed to fetch post: %s", userMessage(err))
			sc.SelectedPostID = ""
		} else {
			data.Post = post
			data.Comments, err = h.ops.ListComments(ctx, client, post.ID, commentsLimit)
			if err != nil {
				sc.AddFlash(domain.FlashError, "Failed to fetch comments: %s", userMessage(err))
			}
		}
	}

	v.Data = data
	h.render(c, http.StatusOK, "comments", v)
}

// AddComment comments on a post as the page
func (h *ContentHandler) AddComment(c *gin.Context) {
	_, client, ok := h.selected(c, "Comments", "comments")
	if !ok {
		return
	}

	var req dto.MessageRequest
	_ = c.ShouldBind(&req)

	postID := c.Param("postId")
	sessionContext(c).SelectedPostID = postID

	if _, err := h.ops.ReplyToComment(c.Request.Context(), client, postID, req.Message); err != nil {
		flashRedirect(c, domain.FlashError, "Failed to add comment: "+userMessage(err), "/comments")
		return
	}
	flashRedirect(c, domain.FlashSuccess, "Comment added successfully!", "/comments")
}

// ReplyToComment replies to a comment as the page
func (h *ContentHandler) ReplyToComment(c *gin.Context) {
	_, client, ok := h.selected(c, "Comments", "comments")
	if !ok {
		return
	}

	var req dto.MessageRequest
	_ = c.ShouldBind(&req)

	if _, err := h.ops.ReplyToComment(c.Request.Context(), client, c.Param("commentId"), req.Message); err != nil {
		flashRedirect(c, domain.FlashError, "Failed to reply: "+userMessage(err), "/comments")
		return
	}
	flashRedirect(c, domain.FlashSuccess, "Reply posted successfully!", "/comments")
}

// EditComment changes a comment written by the page itself
func (h *ContentHandler) EditComment(c *gin.Context) {
	v, client, ok := h.selected(c, "Comments", "comments")
	if !ok {
		return
	}

	var req dto.MessageRequest
	_ = c.ShouldBind(&req)

	ctx := c.Request.Context()
	commentID := c.Param("commentId")

	comment, err := h.ops.GetComment(ctx, client, commentID)
	if err != nil {
		flashRedirect(c, domain.FlashError, "Failed to fetch comment: "+userMessage(err), "/comments")
		return
	}
	if comment.AuthorID != v.Selected.PageID {
		flashRedirect(c, domain.FlashWarning, "You can only edit comments made by your page.", "/comments")
		return
	}

	if err := h.ops.EditComment(ctx, client, commentID, req.Message); err != nil {
		flashRedirect(c, domain.FlashError, "Failed to update comment: "+userMessage(err), "/comments")
		return
	}
	flashRedirect(c, domain.FlashSuccess, "Comment updated successfully!", "/comments")
}

// DeleteComment removes a comment
func (h *ContentHandler) DeleteComment(c *gin.Context) {
	_, client, ok := h.selected(c, "Comments", "comments")
	if !ok {
		return
	}

	if err := h.ops.DeleteComment(c.Request.Context(), client, c.Param("commentId")); err != nil {
		flashRedirect(c, domain.FlashError, "Failed to delete comment: "+userMessage(err), "/comments")
		return
	}
	flashRedirect(c, domain.FlashSuccess, "Comment deleted successfully!", "/comments")
}

// normalizeInsightsQuery falls back to 7 days and daily values for
// unsupported choices.
func normalizeInsightsQuery(q dto.InsightsQuery) (int, string) {
	days := q.Days
	if !slices.Contains(dashboardDays, days) {
		days = defaultDays
	}
	period := q.Period
	if !slices.Contains(apisession.InsightPeriods, period) {
		period = apisession.InsightPeriods[0]
	}
	return days, period
}

// clampLimit keeps a requested limit within the allowed range, using the
// user's preference when none was given.
func clampLimit(limit, fallback int) int {
	if limit == 0 {
		limit = fallback
	}
	return max(domain.MinPostsPerPage, min(limit, domain.MaxPostsPerPage))
}
