// Package identity is the local identity provider: password accounts, a
// persisted signed-in session, and the channel that announces changes.
package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmcdole/homestead/internal/domain"
)

// Authenticator signs users in and out and publishes the result on a Channel
type Authenticator struct {
	users   domain.UserRepository
	channel *Channel
	logger  *slog.Logger

	// Cost is the bcrypt cost for new password hashes
	Cost int
}

// NewAuthenticator creates a new Authenticator
func NewAuthenticator(users domain.UserRepository, channel *Channel, logger *slog.Logger) *Authenticator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Authenticator{users: users, channel: channel, logger: logger, Cost: bcrypt.DefaultCost}
}

// Channel returns the identity channel this authenticator publishes to
func (a *Authenticator) Channel() *Channel { return a.channel }

// Restore resolves the persisted session and publishes it. Until Restore
// runs, subscribers see nothing.
func (a *Authenticator) Restore(ctx context.Context) error {
	userID, err := a.users.LoadSession(ctx)
	if err != nil {
		a.channel.Publish(nil)
		return fmt.Errorf("failed to load session: %w", err)
	}
	if userID == "" {
		a.channel.Publish(nil)
		return nil
	}

	user, err := a.users.GetUser(ctx, userID)
	if err != nil {
		a.logger.Warn("session user missing, signing out", "userID", userID, "error", err)
		if err := a.users.SaveSession(ctx, ""); err != nil {
			a.logger.Warn("failed to clear session", "error", err)
		}
		a.channel.Publish(nil)
		return nil
	}

	id := user.Identity()
	a.channel.Publish(&id)
	a.logger.Info("restored session", "userID", userID)
	return nil
}

// SignUp creates an account and signs it in
func (a *Authenticator) SignUp(ctx context.Context, name, email, password string) (*domain.Identity, error) {
	email = normalizeEmail(email)
	if err := requireCredentials(email, password); err != nil {
		return nil, err
	}
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrInvalidCredentials)
	}

	if _, err := a.users.GetUserByEmail(ctx, email); err == nil {
		return nil, domain.ErrUserExists
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), a.Cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         strings.TrimSpace(name),
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	if err := a.users.SaveUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to save user: %w", err)
	}
	a.logger.Info("created user", "userID", user.ID)

	return a.establish(ctx, user)
}

// SignIn verifies credentials and publishes the identity
func (a *Authenticator) SignIn(ctx context.Context, email, password string) (*domain.Identity, error) {
	email = normalizeEmail(email)
	if err := requireCredentials(email, password); err != nil {
		return nil, err
	}

	user, err := a.users.GetUserByEmail(ctx, email)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		a.logger.Debug("password mismatch", "userID", user.ID)
		return nil, domain.ErrInvalidCredentials
	}

	return a.establish(ctx, user)
}

// SignOut clears the session and publishes nil
func (a *Authenticator) SignOut(ctx context.Context) error {
	if err := a.users.SaveSession(ctx, ""); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	a.channel.Publish(nil)
	a.logger.Info("signed out")
	return nil
}

// UpdateDisplayName renames the signed-in user
func (a *Authenticator) UpdateDisplayName(ctx context.Context, name string) (*domain.Identity, error) {
	current, _ := a.channel.Current()
	if current == nil {
		return nil, domain.ErrAuthFailed
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrInvalidCredentials)
	}
	if name == current.DisplayName {
		return current, nil
	}

	user, err := a.users.GetUser(ctx, current.UserID)
	if err != nil {
		return nil, err
	}
	user.Name = name
	if err := a.users.SaveUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to save user: %w", err)
	}

	id := user.Identity()
	a.channel.Publish(&id)
	return &id, nil
}

func (a *Authenticator) establish(ctx context.Context, user *domain.User) (*domain.Identity, error) {
	if err := a.users.SaveSession(ctx, user.ID); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	id := user.Identity()
	a.channel.Publish(&id)
	a.logger.Info("signed in", "userID", user.ID)
	return &id, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func requireCredentials(email, password string) error {
	if email == "" {
		return fmt.Errorf("%w: email is required", domain.ErrInvalidCredentials)
	}
	if password == "" {
		return fmt.Errorf("%w: password is required", domain.ErrInvalidCredentials)
	}
	return nil
}
