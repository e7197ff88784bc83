package model

import "time"

// User is an account for the optional identity layer.  Bookings may
// be made anonymously; authentication only gates the admin surface
// and associates bookings with an account when present.
type User struct {
	ID           uint64    // users.id
	Email        string    // users.email (unique, lower-cased)
	PasswordHash string    // users.password_hash (bcrypt)
	Role         string    // users.role (ADMIN | CUSTOMER)
	CreatedAt    time.Time // users.created_at
}
