package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/page-manager/internal/apisession"
	"github.com/prperemyshlev/page-manager/internal/domain"
	"github.com/prperemyshlev/page-manager/internal/dto"
	"github.com/prperemyshlev/page-manager/internal/service"
	"go.uber.org/zap"
)

// APIHandler serves the read-only JSON API
type APIHandler struct {
	accounts service.AccountService
	ops      PageOperations
	logger   *zap.Logger
	now      func() time.Time
}

// NewAPIHandler creates a new API handler
func NewAPIHandler(accounts service.AccountService, ops PageOperations, logger *zap.Logger) *APIHandler {
	return &APIHandler{accounts: accounts, ops: ops, logger: logger, now: time.Now}
}

// ListAccounts returns the caller's accounts
// @Summary List connected accounts
// @Tags accounts
// @Produce json
// @Success 200 {object} dto.ListResponse[dto.AccountResponse]
// @Failure 401 {object} dto.ErrorResponse
// @Router /accounts [get]
func (h *APIHandler) ListAccounts(c *gin.Context) {
	accounts, err := h.accounts.List(c.Request.Context(), c.GetString(ctxUserID))
	if err != nil {
		h.fail(c, err)
		return
	}

	now := h.now()
	data := make([]dto.AccountResponse, 0, len(accounts))
	for _, a := range accounts {
		data = append(data, dto.AccountResponse{
			ID:          a.ID,
			AccountName: a.AccountName,
			PageID:      a.PageID,
			TokenStatus: a.TokenStatus(now),
			ExpiresAt:   a.ExpiresAt,
		})
	}

	c.JSON(http.StatusOK, dto.ListResponse[dto.AccountResponse]{Data: data, Count: len(data)})
}

// ListPosts returns the posts of an account's page
// @Summary List page posts
// @Tags posts
// @Produce json
// @Param id path string true "Account ID"
// @Param limit query int false "Number of posts"
// @Success 200 {object} dto.ListResponse[dto.PostResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /accounts/{id}/posts [get]
func (h *APIHandler) ListPosts(c *gin.Context) {
	client, account, ok := h.resolve(c)
	if !ok {
		return
	}

	var q dto.PostsQuery
	_ = c.ShouldBindQuery(&q)

	posts, err := h.ops.ListPosts(c.Request.Context(), client, account.PageID, clampLimit(q.Limit, domain.DefaultPostsPerPage))
	if err != nil {
		h.fail(c, err)
		return
	}

	data := make([]dto.PostResponse, 0, len(posts))
	for _, p := range posts {
		data = append(data, dto.PostResponse{
			ID:            p.ID,
			Message:       p.Message,
			CreatedTime:   p.CreatedTime,
			PermalinkURL:  p.PermalinkURL,
			ShareCount:    p.ShareCount,
			ReactionCount: p.ReactionCount,
			CommentCount:  p.CommentCount,
			Engagement:    p.Engagement(),
		})
	}

	c.JSON(http.StatusOK, dto.ListResponse[dto.PostResponse]{Data: data, Count: len(data)})
}

// ListComments returns the comments of a post
// @Summary List post comments
// @Tags comments
// @Produce json
// @Param id path string true "Account ID"
// @Param postId path string true "Post ID"
// @Success 200 {object} dto.ListResponse[dto.CommentResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /accounts/{id}/posts/{postId}/comments [get]
func (h *APIHandler) ListComments(c *gin.Context) {
	client, _, ok := h.resolve(c)
	if !ok {
		return
	}

	var q dto.PostsQuery
	_ = c.ShouldBindQuery(&q)
	limit := q.Limit
	if limit <= 0 || limit > commentsLimit {
		limit = commentsLimit
	}

	comments, err := h.ops.ListComments(c.Request.Context(), client, c.Param("postId"), limit)
	if err != nil {
		h.fail(c, err)
		return
	}

	data := make([]dto.CommentResponse, 0, len(comments))
	for _, cm := range comments {
		data = append(data, dto.CommentResponse(cm))
	}

	c.JSON(http.StatusOK, dto.ListResponse[dto.CommentResponse]{Data: data, Count: len(data)})
}

// Insights returns the aggregated page metrics
// @Summary Page insights
// @Tags insights
// @Produce json
// @Param id path string true "Account ID"
// @Param days query int false "7, 14 or 30"
// @Param period query string false "day, week or days_28"
// @Success 200 {object} dto.InsightsResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /accounts/{id}/insights [get]
func (h *APIHandler) Insights(c *gin.Context) {
	client, account, ok := h.resolve(c)
	if !ok {
		return
	}

	var q dto.InsightsQuery
	_ = c.ShouldBindQuery(&q)
	days, period := normalizeInsightsQuery(q)

	insights, err := h.ops.GetPageInsights(c.Request.Context(), client, account.PageID, period, days)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.InsightsResponse{
		Period:         period,
		Days:           days,
		Metrics:        insights,
		EngagementRate: insights.EngagementRate(),
	})
}

func (h *APIHandler) resolve(c *gin.Context) (apisession.GraphAPI, *domain.FacebookAccount, bool) {
	client, account, err := h.ops.ResolveClient(c.Request.Context(), c.Param("id"), c.GetString(ctxUserID))
	if err != nil {
		h.fail(c, err)
		return nil, nil, false
	}
	return client, account, true
}

func (h *APIHandler) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("api request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(status, dto.ErrorResponse{
		Error:   http.StatusText(status),
		Message: userMessage(err),
	})
}
