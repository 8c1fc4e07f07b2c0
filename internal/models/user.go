package models

import "time"

// DefaultProfilePicture is assigned to accounts that never set an avatar.
const DefaultProfilePicture = "https://cdn.pixabay.com/photo/2015/10/05/22/37/blank-profile-picture-973460_1280.png"

// User represents a user account in the system.
type User struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	PasswordHash   string    `json:"-"` // Never expose this to the client
	ProfilePicture string    `json:"profilePicture"`
	IsAdmin        bool      `json:"isAdmin"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// UserPatch is a partial update: only non-nil fields are applied.
// Password, when present, is re-hashed before it reaches the store.
type UserPatch struct {
	Username       *string `json:"username"`
	Email          *string `json:"email"`
	Password       *string `json:"password"`
	ProfilePicture *string `json:"profilePicture"`
}

// Empty reports whether the patch would change nothing.
func (p UserPatch) Empty() bool {
	return p.Username == nil && p.Email == nil && p.Password == nil && p.ProfilePicture == nil
}
