package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"taskboard/apperror"
	"taskboard/model"
	"taskboard/repository"
	"taskboard/workflow"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	tokenIssuer = "taskboard"
	tokenTTL    = 12 * time.Hour
)

type AuthService struct {
	users  repository.Users
	secret []byte
	now    func() time.Time
}

func NewAuthService(users repository.Users, secret string) *AuthService {
	return &AuthService{users: users, secret: []byte(secret), now: time.Now}
}

// Login checks the credentials and returns the user together with a signed access token.
func (s *AuthService) Login(ctx context.Context, username, password string) (*model.User, string, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, "", apperror.Validation("username and password are required")
	}

	user, err := s.users.FindUserByUsername(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, "", apperror.Auth("invalid username or password")
	}
	if err != nil {
		return nil, "", apperror.Dependency("failed to load user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", apperror.Auth("invalid username or password")
	}

	token, err := s.CreateAccessToken(user)
	if err != nil {
		return nil, "", apperror.Dependency("failed to create token", err)
	}
	return user, token, nil
}

func (s *AuthService) CreateAccessToken(user *model.User) (string, error) {
	now := s.now()
	claims := &model.AccessClaims{
		UserID: user.ID,
		Role:   user.Role.String(),
		Team:   user.Team,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// ParseToken verifies an access token and returns the caller it was issued to.
func (s *AuthService) ParseToken(tokenString string) (workflow.Caller, error) {
	claims := &model.AccessClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithTimeFunc(s.now))
	if err != nil {
		return workflow.Caller{}, apperror.Auth("token is expired or invalid")
	}

	role, ok := workflow.ParseRole(claims.Role)
	if !ok {
		return workflow.Caller{}, apperror.Auth("invalid role in token claims")
	}
	return workflow.Caller{UserID: claims.UserID, Role: role, Team: claims.Team, Verified: true}, nil
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
