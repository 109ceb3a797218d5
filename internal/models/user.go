package models

import "time"

// User is a registered participant. UID is chosen at registration and is what
// commands carry; PublicKey is the base64 encoding of an ed25519 public key
// and is the only credential participants ever use.
type User struct {
	UID           string    `json:"uid" db:"uid"`
	DisplayName   string    `json:"display_name" db:"display_name"`
	Email         string    `json:"email" db:"email"`
	PublicKey     string    `json:"public_key" db:"public_key"`
	IsMP          bool      `json:"is_mp" db:"is_mp"`
	EmailVerified bool      `json:"email_verified" db:"email_verified"`
	Blocked       bool      `json:"blocked" db:"blocked"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// Moderator accounts authenticate the classic way, with email and password,
// and act through session tokens.
type Moderator struct {
	ID    int    `db:"id"`
	Name  string `db:"name"`
	Email string `db:"email"`
}
