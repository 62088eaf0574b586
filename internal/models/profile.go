package models

// Profile is the platform's public view of a user. It is fetched from Whop
// and cached, never stored in the database.
type Profile struct {
	ID        string `json:"id"`
	Email     string `json:"email,omitempty"`
	Name      string `json:"name,omitempty"`
	Username  string `json:"username,omitempty"`
	AvatarURL string `json:"profile_picture_url,omitempty"`
}
