package dto

// RegisterRequest is the registration form
type RegisterRequest struct {
	Username        string `form:"username" json:"username"`
	Email           string `form:"email" json:"email"`
	Password        string `form:"password" json:"password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
}

// LoginRequest is the login form
type LoginRequest struct {
	Username string `form:"username" json:"username"`
	Password string `form:"password" json:"password"`
}

// ChangePasswordRequest is the change password form
type ChangePasswordRequest struct {
	CurrentPassword string `form:"current_password"`
	NewPassword     string `form:"new_password"`
	ConfirmPassword string `form:"confirm_password"`
}

// AddAccountRequest is the connect-a-page form. ExpiresAt is YYYY-MM-DD or empty.
type AddAccountRequest struct {
	AccountName string `form:"account_name"`
	PageID      string `form:"page_id"`
	AccessToken string `form:"access_token"`
	ExpiresAt   string `form:"expires_at"`
}

// UpdateAccountRequest is the edit account form. Empty fields keep the stored value.
type UpdateAccountRequest struct {
	AccountName string `form:"account_name"`
	AccessToken string `form:"access_token"`
	ExpiresAt   string `form:"expires_at"`
}

// DeleteAccountRequest requires the user to retype the account name
type DeleteAccountRequest struct {
	ConfirmName string `form:"confirm_name"`
}

// SelectAccountRequest switches the active account
type SelectAccountRequest struct {
	AccountID string `form:"account_id"`
	Next      string `form:"next"`
}

// CreatePostRequest is the new post form
type CreatePostRequest struct {
	Message string `form:"message"`
	Link    string `form:"link"`
}

// MessageRequest carries a message for edits, comments and replies
type MessageRequest struct {
	Message string `form:"message"`
}

// PreferencesRequest is the preferences form
type PreferencesRequest struct {
	Theme        string `form:"theme"`
	PostsPerPage int    `form:"posts_per_page"`
	DateFormat   string `form:"date_format"`
}

// PostsQuery is the query of the posts list
type PostsQuery struct {
	Limit int `form:"limit"`
}

// InsightsQuery is the query of the dashboard and insights endpoint
type InsightsQuery struct {
	Days   int    `form:"days"`
	Period string `form:"period"`
}
