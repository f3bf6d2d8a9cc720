// Package users handles account signup and login.
package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"levelhub/internal/auth"
	"levelhub/internal/store"
)

// ErrInvalidCredentials indicates a login failure.
var ErrInvalidCredentials = errors.New("invalid username or password")

// dummyHash is compared when the username is unknown so login latency does
// not reveal which usernames exist.
const dummyHash = "$2a$10$CwTycUXWue0Thq9StjUM0uJ8n4VWeNseyX2fA9DE.D7su7J6iYGTC"

// Store defines the persistence hooks for account workflows.
type Store interface {
	CreateUser(ctx context.Context, username, passwordHash string) (int64, error)
	UserByUsername(ctx context.Context, username string) (store.User, error)
}

// Service exposes account workflows.
type Service interface {
	Signup(ctx context.Context, username, password string) error
	Login(ctx context.Context, username, password string) (string, error)
}

type service struct {
	store  Store
	tokens *auth.TokenManager
}

// New wires a Service backed by the provided Store and token manager.
func New(store Store, tokens *auth.TokenManager) Service {
	return &service{store: store, tokens: tokens}
}

func (s *service) Signup(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return fmt.Errorf("username and password are required")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	_, err = s.store.CreateUser(ctx, username, hash)
	return err
}

func (s *service) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.store.UserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			_ = auth.CheckPassword(password, dummyHash)
			return "", ErrInvalidCredentials
		}
		return "", err
	}

	if !auth.CheckPassword(password, user.PasswordHash) {
		return "", ErrInvalidCredentials
	}

	return s.tokens.Issue(user.ID, user.Username)
}
