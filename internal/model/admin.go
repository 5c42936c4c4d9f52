package model

import "time"

// Admin is the singleton administrator credential.
//
// There is never more than one row; the store keys it by a fixed id. The
// password is only ever held as a bcrypt hash.
type Admin struct {
	PasswordHash string    `json:"-"         db:"password_hash"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}
