package users

import "context"

// Repository port (interface untuk persistence)
type Repository interface {
	Save(ctx context.Context, u *User) error
	Get(ctx context.Context, id UserID) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByToken(ctx context.Context, token string) (*User, error)
}
