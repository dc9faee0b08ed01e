// Package travel holds the records served by the data backend and the pure
// computations the cache layer applies to them before storing.
package travel

import "time"

// ProfileSummary is the author block joined onto travel rows
type ProfileSummary struct {
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// Travel is a trip owned by a profile
type Travel struct {
	ID          int64           `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Place       string          `json:"place,omitempty"`
	StartDate   string          `json:"start_date,omitempty"`
	EndDate     string          `json:"end_date,omitempty"`
	CoverImage  string          `json:"cover_image,omitempty"`
	ProfileID   string          `json:"profile_id,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	Profile     *ProfileSummary `json:"profiles,omitempty"`
}

// Page is a day entry inside a travel
type Page struct {
	ID          int64     `json:"id"`
	TravelID    int64     `json:"travel_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Date        string    `json:"date,omitempty"`
	CoverImage  string    `json:"cover_image,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Image is a photo attached to a page
type Image struct {
	ID         int64     `json:"id"`
	PageID     int64     `json:"page_id"`
	ImageURL   string    `json:"image_url"`
	OrderIndex int       `json:"order_index"`
	CreatedAt  time.Time `json:"created_at"`
}

// Profile is a user's public profile
type Profile struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	FirstName string    `json:"first_name,omitempty"`
	LastName  string    `json:"last_name,omitempty"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}
