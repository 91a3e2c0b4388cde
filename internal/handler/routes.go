package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Routes groups the handlers and middleware mounted on the router.
type Routes struct {
	Auth     *AuthHandler
	Accounts *AccountHandler
	Content  *ContentHandler
	Settings *SettingsHandler
	API      *APIHandler
	Session  *SessionAuth

	// AuthRateLimit guards the login and registration forms.
	AuthRateLimit gin.HandlerFunc
	CORS          gin.HandlerFunc
}

// Register mounts the HTML pages and the JSON API.
func (r Routes) Register(router gin.IRouter) {
	limit := r.AuthRateLimit
	if limit == nil {
		limit = func(c *gin.Context) { c.Next() }
	}

	router.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/dashboard")
	})
	router.GET("/login", r.Auth.LoginPage)
	router.POST("/login", limit, r.Auth.Login)
	router.GET("/register", r.Auth.RegisterPage)
	router.POST("/register", limit, r.Auth.Register)

	pages := router.Group("/", r.Session.RequirePage())
	{
		pages.POST("/logout", r.Auth.Logout)
		pages.GET("/dashboard", r.Content.Dashboard)
		pages.POST("/select-account", r.Accounts.Select)

		pages.GET("/accounts", r.Accounts.List)
		pages.POST("/accounts", r.Accounts.Add)
		pages.POST("/accounts/:id", r.Accounts.Update)
		pages.POST("/accounts/:id/delete", r.Accounts.Delete)
		pages.POST("/accounts/:id/test", r.Accounts.Test)

		pages.GET("/posts", r.Content.Posts)
		pages.POST("/posts", r.Content.CreatePost)
		pages.GET("/posts/:postId", r.Content.Post)
		pages.POST("/posts/:postId", r.Content.EditPost)
		pages.POST("/posts/:postId/delete", r.Content.DeletePost)
		pages.POST("/posts/:postId/comments", r.Content.AddComment)

		pages.GET("/comments", r.Content.Comments)
		pages.POST("/comments/:commentId", r.Content.EditComment)
		pages.POST("/comments/:commentId/replies", r.Content.ReplyToComment)
		pages.POST("/comments/:commentId/delete", r.Content.DeleteComment)

		pages.GET("/settings", r.Settings.Show)
		pages.POST("/settings/preferences", r.Settings.SavePreferences)
		pages.POST("/settings/password", r.Settings.ChangePassword)
	}

	api := router.Group("/api/v1")
	if r.CORS != nil {
		api.Use(r.CORS)
		api.OPTIONS("/*path", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	}
	api.Use(r.Session.RequireAPI())
	{
		api.GET("/accounts", r.API.ListAccounts)
		api.GET("/accounts/:id/posts", r.API.ListPosts)
		api.GET("/accounts/:id/posts/:postId/comments", r.API.ListComments)
		api.GET("/accounts/:id/insights", r.API.Insights)
	}
}
