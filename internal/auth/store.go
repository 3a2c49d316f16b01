package auth

import "context"

// UserStore describes persistence operations required by the credential core.
// Email uniqueness is enforced by the store itself; a race between two
// concurrent signups is resolved by rejecting the losing writer with
// ErrAlreadyExists, never by overwrite.
type UserStore interface {
	Create(ctx context.Context, u *User) error
	Find(ctx context.Context, id int64) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
}
