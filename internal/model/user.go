package model

import "strings"

// User is an administrator account. Rows are provisioned out-of-band.
type User struct {
	ID           int64  `db:"id"`
	Username     string `db:"username"`
	PasswordHash string `db:"password_hash"`
	Email        string `db:"email"`
}

// HasBcryptHash reports whether the stored hash is bcrypt rather than a legacy hex SHA-256 digest.
func (u *User) HasBcryptHash() bool {
	return strings.HasPrefix(u.PasswordHash, "$2")
}
