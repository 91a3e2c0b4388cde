package domain

import "time"

// User represents an application user
type User struct {
	ID           string    `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// FacebookAccount is a Facebook Page connected by a user
type FacebookAccount struct {
	ID          string     `json:"id" db:"id"`
	UserID      string     `json:"user_id" db:"user_id"`
	AccountName string     `json:"account_name" db:"account_name"`
	PageID      string     `json:"page_id" db:"page_id"`
	AccessToken string     `json:"-" db:"access_token"`
	ExpiresAt   *time.Time `json:"expires_at" db:"expires_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// IsTokenExpired reports whether the stored expiry is before now. Accounts
// without an expiry never expire.
func (a FacebookAccount) IsTokenExpired(now time.Time) bool {
	return a.ExpiresAt != nil && a.ExpiresAt.Before(now)
}

// TokenStatus is the label shown next to an account.
func (a FacebookAccount) TokenStatus(now time.Time) string {
	if a.IsTokenExpired(now) {
		return "Expired"
	}
	return "Active"
}

// AccountUpdate carries the editable account fields. Nil fields keep the
// stored value.
type AccountUpdate struct {
	AccountName *string
	AccessToken *string
	ExpiresAt   *time.Time
}
