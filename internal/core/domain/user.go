package domain

import "time"

// User models a registered account and channel owner.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	Avatar       string    `json:"avatar"`
	CoverImage   string    `json:"cover_image,omitempty"`
	WatchHistory []string  `json:"watch_history"`
	PasswordHash string    `json:"-"`
	RefreshToken string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Identity returns the claims carried by session tokens issued for u.
func (u *User) Identity() Identity {
	return Identity{
		UserID:   u.ID,
		Email:    u.Email,
		Username: u.Username,
		FullName: u.FullName,
	}
}

// Public returns a copy of u with credential fields cleared.
func (u *User) Public() *User {
	if u == nil {
		return nil
	}
	clone := *u
	clone.PasswordHash = ""
	clone.RefreshToken = ""
	if clone.WatchHistory == nil {
		clone.WatchHistory = []string{}
	}
	return &clone
}

// Identity is the user identity embedded in access and refresh tokens.
type Identity struct {
	UserID   string
	Email    string
	Username string
	FullName string
}

// Session is the result of a successful login or refresh.
type Session struct {
	AccessToken  string
	RefreshToken string
	User         *User
}
