package user

import "time"

// User is an authenticated account. PasswordHash is a bcrypt digest and
// never leaves the store/auth boundary.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}
