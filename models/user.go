package models

import "time"

// User is the profile snapshot persisted next to the tokens. It is stored
// as JSON inside the [FieldUser] payload field.
type User struct {
	// UserID is the server-side identifier of the user.
	UserID int64 `json:"user_id"`

	// Login is the unique user login identifier.
	Login string `json:"login"`

	// Name is the display name of the user.
	Name string `json:"name"`

	// Email is optional contact data shown in the profile.
	Email string `json:"email,omitempty"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"created_at"`
}
