package auth

import "context"

// Store is the persistence contract for user accounts.
//
// Create returns sentinel.ErrConflict when the email is already registered;
// FindBy* return sentinel.ErrNotFound for unknown users. CreditCoins must be
// atomic against the backend so concurrent rewards cannot lose updates.
type Store interface {
	Create(ctx context.Context, user *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	CreditCoins(ctx context.Context, userID string, coins int) error
}
