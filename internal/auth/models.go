package auth

import (
	"time"

	"github.com/google/uuid"
)

// StartingCoins is granted to every new account so fresh users can post a
// doubt right away.
const StartingCoins = 100

// User is an account on the platform. PasswordHash never leaves this
// package; the JSON shape below is the public profile.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	Coins        int       `json:"coins"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// SignUpRequest carries registration fields. UserAgent is filled in by the
// HTTP layer from the request headers, never from the body.
type SignUpRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	Name      string `json:"name"`
	UserAgent string `json:"-"`
}

// SignInRequest carries login credentials.
type SignInRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	UserAgent string `json:"-"`
}

// Session is the result of a successful sign-in or sign-up. Device is a
// display name derived from the caller's User-Agent.
type Session struct {
	User   *User  `json:"user"`
	Token  string `json:"token"`
	Device string `json:"device"`
}
