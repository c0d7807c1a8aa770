package models

// User is the authenticated account's profile.
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Product     string `json:"product"` // premium, free, etc.
}

// IsPremium reports whether the account can drive playback.
func (u User) IsPremium() bool {
	return u.Product == "premium"
}
