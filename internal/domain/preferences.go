package domain

import (
	"fmt"
	"slices"
)

const (
	DefaultPostsPerPage = 25
	MinPostsPerPage     = 5
	MaxPostsPerPage     = 100
)

var (
	Themes      = []string{"Default", "Light", "Dark"}
	DateFormats = []string{"MM/DD/YYYY", "DD/MM/YYYY", "YYYY-MM-DD"}
)

// Preferences are per-user display settings.
type Preferences struct {
	Theme        string `json:"theme"`
	PostsPerPage int    `json:"posts_per_page"`
	DateFormat   string `json:"date_format"`
}

// DefaultPreferences returns the settings used before a user saves any.
func DefaultPreferences() Preferences {
	return Preferences{
		Theme:        "Default",
		PostsPerPage: DefaultPostsPerPage,
		DateFormat:   "YYYY-MM-DD",
	}
}

// Validate checks every field against its allowed values.
func (p Preferences) Validate() error {
	if !slices.Contains(Themes, p.Theme) {
		return fmt.Errorf("unknown theme %q", p.Theme)
	}
	if !slices.Contains(DateFormats, p.DateFormat) {
		return fmt.Errorf("unknown date format %q", p.DateFormat)
	}
	if p.PostsPerPage < MinPostsPerPage || p.PostsPerPage > MaxPostsPerPage || p.PostsPerPage%5 != 0 {
		return fmt.Errorf("posts per page must be a multiple of 5 between %d and %d", MinPostsPerPage, MaxPostsPerPage)
	}
	return nil
}

// GoLayout converts the date format into a time layout.
func (p Preferences) GoLayout() string {
	switch p.DateFormat {
	case "MM/DD/YYYY":
		return "01/02/2006 15:04"
	case "DD/MM/YYYY":
		return "02/01/2006 15:04"
	default:
		return "2006-01-02 15:04"
	}
}
