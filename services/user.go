package services

import (
	"context"
	"errors"
	"strings"

	"taskboard/apperror"
	"taskboard/notifier"
	"taskboard/repository"
	"taskboard/workflow"
)

type UserService struct {
	users  repository.Users
	tokens notifier.TokenStore
}

// NewUserService accepts a nil token store when push delivery is disabled.
func NewUserService(users repository.Users, tokens notifier.TokenStore) *UserService {
	return &UserService{users: users, tokens: tokens}
}

// RegisterDeviceToken stores the push token for a user's device. Users may only
// register tokens for themselves.
func (s *UserService) RegisterDeviceToken(ctx context.Context, caller workflow.Caller, userID uint, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return apperror.Validation("token is required")
	}
	if caller.UserID == 0 || caller.UserID != userID {
		return apperror.Authorization("you may only register your own device")
	}
	if s.tokens == nil {
		return apperror.Unavailable("push notifications are not enabled")
	}

	user, err := s.users.FindUserByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return apperror.NotFound("user not found")
	}
	if err != nil {
		return apperror.Dependency("failed to load user", err)
	}
	if user.Email == "" {
		return apperror.Validation("user has no email address")
	}

	if err := s.tokens.SetToken(ctx, user.Email, token); err != nil {
		return apperror.Dependency("failed to save device token", err)
	}
	return nil
}
