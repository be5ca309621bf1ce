package accounts

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/bryanwahyu/doc-insight/internal/application"
	"github.com/bryanwahyu/doc-insight/internal/domain/analysis"
	"github.com/bryanwahyu/doc-insight/internal/domain/users"
)

// Service implements use-cases untuk akun: signup, login, profile.
// The mutex serializes the check-then-save cycles (email uniqueness, token
// rotation) that the repositories cannot make atomic on their own.
type Service struct {
	Users  users.Repository
	Ledger analysis.Ledger
	Clock  application.Clock

	mu sync.Mutex
}

// Signup registers a new account and initialises its stats row.
// The issued token is returned on the user.
func (s *Service) Signup(ctx context.Context, email, password, name string) (*users.User, error) {
	if email == "" || password == "" || name == "" {
		return nil, fmt.Errorf("%w: email, password and name are required", users.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.Users.FindByEmail(ctx, email); err == nil {
		return nil, users.ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	u := &users.User{
		ID:           users.UserID(uuid.New().String()),
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		Token:        uuid.New().String(),
		CreatedAt:    s.Clock.Now(),
	}
	if err := s.Users.Save(ctx, u); err != nil {
		return nil, err
	}
	if err := s.Ledger.Init(ctx, u.ID); err != nil {
		return nil, err
	}
	return u, nil
}

// Login verifies credentials and rotates the token. A user has exactly one
// live token; the previous one stops resolving immediately.
func (s *Service) Login(ctx context.Context, email, password string) (*users.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.Users.FindByEmail(ctx, email)
	if err != nil {
		return nil, users.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, users.ErrInvalidCredentials
	}

	u.Token = uuid.New().String()
	if err := s.Users.Save(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Resolve maps a bearer token back to its user.
func (s *Service) Resolve(ctx context.Context, token string) (*users.User, error) {
	return s.Users.FindByToken(ctx, token)
}

// UpdateCommand carries optional profile changes. Name uses a pointer so an
// explicit empty string still counts as provided; empty email/password mean
// "leave unchanged".
type UpdateCommand struct {
	Name            *string
	Email           string
	Password        string
	CurrentPassword string
}

// Update applies profile changes. Changing email or password requires the
// current password; a new email must not collide with another account.
func (s *Service) Update(ctx context.Context, id users.UserID, cmd UpdateCommand) (*users.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.Users.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if cmd.Email != "" || cmd.Password != "" {
		if cmd.CurrentPassword == "" {
			return nil, fmt.Errorf("%w: current password is required to change email or password", users.ErrValidation)
		}
		if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(cmd.CurrentPassword)) != nil {
			return nil, fmt.Errorf("%w: incorrect current password", users.ErrForbidden)
		}
	}

	if cmd.Name != nil && *cmd.Name != u.Name {
		u.Name = *cmd.Name
	}

	if cmd.Email != "" && cmd.Email != u.Email {
		if other, err := s.Users.FindByEmail(ctx, cmd.Email); err == nil && other.ID != u.ID {
			return nil, users.ErrEmailTaken
		}
		u.Email = cmd.Email
	}

	if cmd.Password != "" {
		if len(cmd.Password) < 4 {
			return nil, fmt.Errorf("%w: password must be at least 4 characters long", users.ErrValidation)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(cmd.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		u.PasswordHash = string(hash)
	}

	if err := s.Users.Save(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}
