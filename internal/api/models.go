package api

import "time"

// Account is the authenticated identity returned by login-style endpoints.
type Account struct {
	UserID       string
	Username     string
	Email        string
	AuthToken    string
	SessionToken string
}

// Profile is a user's public profile.
type Profile struct {
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	Bio       string `json:"bio"`
	AvatarURL string `json:"avatar_url"`
	Followers int    `json:"followers"`
	Following int    `json:"following"`
	Uploads   int    `json:"uploads"`
}

// Wallpaper is a single shared wallpaper.
type Wallpaper struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Tags      []string  `json:"tags"`
	ImageURL  string    `json:"image_url"`
	OwnerID   string    `json:"owner_id"`
	OwnerName string    `json:"owner_name"`
	Likes     int       `json:"likes"`
	CreatedAt time.Time `json:"created_at"`
}

// FeedPage is one page of the wallpaper feed. ETag feeds the next request's
// If-None-Match so an unchanged page comes back as 304.
type FeedPage struct {
	Wallpapers []Wallpaper `json:"wallpapers"`
	Page       int         `json:"page"`
	TotalPages int         `json:"total_pages"`
	ETag       string      `json:"etag"`
}

// UserSummary is a row in followers/following lists.
type UserSummary struct {
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url"`
}

// Stats is the analytics dashboard summary.
type Stats struct {
	Views         int         `json:"views"`
	Likes         int         `json:"likes"`
	Followers     int         `json:"followers"`
	Uploads       int         `json:"uploads"`
	TopWallpapers []Wallpaper `json:"top_wallpapers"`
}

// Settings are the account preferences the settings screen edits.
type Settings struct {
	PrivateProfile     bool   `json:"private_profile"`
	EmailNotifications bool   `json:"email_notifications"`
	Theme              string `json:"theme"`
}
