package domain

import (
	"time"
)

// DefaultPlaceImage is used for places created without an image.
const DefaultPlaceImage = "https://upload.wikimedia.org/wikipedia/commons/1/10/Empire_State_Building_%28aerial_view%29.jpg"

// Place is a user-contributed location entry.
type Place struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Image       string    `json:"image"`
	Address     string    `json:"address"`
	Location    GeoPoint  `json:"location"`
	CreatorID   string    `json:"creator"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// User owns zero or more places.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Image        string    `json:"image,omitempty"`
	PlaceIDs     []string  `json:"places"`
	CreatedAt    time.Time `json:"created_at"`
}

// OwnsPlace reports whether placeID is in the user's place list.
func (u *User) OwnsPlace(placeID string) bool {
	for _, id := range u.PlaceIDs {
		if id == placeID {
			return true
		}
	}
	return false
}

// Place event types.
const (
	PlaceCreated = "created"
	PlaceUpdated = "updated"
	PlaceDeleted = "deleted"
)

// PlaceEvent is published after a place mutation commits.
type PlaceEvent struct {
	Type       string    `json:"type"`
	PlaceID    string    `json:"place_id"`
	CreatorID  string    `json:"creator_id"`
	Place      *Place    `json:"place,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
