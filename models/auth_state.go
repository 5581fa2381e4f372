package models

import "time"

// AuthState is the decoded authentication state restored from the storage
// backends.
type AuthState struct {
	AccessToken  string `json:"access_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	User         *User  `json:"user,omitempty"`
	// SyncedAt is the timestamp marker written with the last update, zero
	// when absent.
	SyncedAt time.Time `json:"synced_at"`
	// Source names the backend holding the freshest restored field.
	Source string `json:"source,omitempty"`
}

// Empty reports whether no token was restored.
func (s AuthState) Empty() bool {
	return s.AccessToken == "" && s.RefreshToken == ""
}
