package model

import "time"

// User represents a registered account.
//
// WHY NO JSON FOR PasswordHash?
// The `json:"-"` tag makes encoding/json skip the field entirely, so a User
// can never leak its hash even if a handler encodes it by mistake. Handlers
// still send PublicUser, which only has the two fields clients need.
//
// Accounts created through GitHub sign-in have an empty PasswordHash. bcrypt
// refuses to compare against an empty hash, so password login always fails
// for them.
type User struct {
	ID           string    `json:"id"        bson:"_id"`
	Email        string    `json:"email"     bson:"email"`
	PasswordHash string    `json:"-"         bson:"password_hash"`
	CreatedAt    time.Time `json:"createdAt" bson:"created_at"`
}

// PublicUser is the projection of a User that is safe to return to clients.
type PublicUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Public returns the client-safe projection of u.
func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Email: u.Email}
}
