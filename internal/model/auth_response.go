package model

// AuthResponse is returned by login and register
type AuthResponse struct {
	User        User   `json:"user"`
	AccessToken string `json:"access_token"`
}
