// Package service contains the domain logic between HTTP handlers and repositories.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"dailyprompt/internal/models"
	"dailyprompt/internal/observability"
	"dailyprompt/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	TokenIssuer   = "dailyprompt-api"
	TokenAudience = "dailyprompt-client"
)

// AuthService registers users, checks credentials and issues tokens.
type AuthService struct {
	users      repository.UserRepository
	secret     []byte
	tokenTTL   time.Duration
	bcryptCost int
	now        func() time.Time
	// dummyHash is compared against when the user does not exist so both
	// failure paths cost one bcrypt comparison.
	dummyHash []byte
}

// AuthConfig holds the token and hashing parameters.
type AuthConfig struct {
	Secret     string
	TokenTTL   time.Duration
	BcryptCost int
}

// NewAuthService returns an AuthService.
func NewAuthService(users repository.UserRepository, cfg AuthConfig) *AuthService {
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 7 * 24 * time.Hour
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte("dailyprompt-timing-equaliser"), cfg.BcryptCost)
	if err != nil {
		dummy = nil
	}
	return &AuthService{
		users:      users,
		secret:     []byte(cfg.Secret),
		tokenTTL:   cfg.TokenTTL,
		bcryptCost: cfg.BcryptCost,
		now:        time.Now,
		dummyHash:  dummy,
	}
}

// Register creates a user with a bcrypt password hash. The username is
// stored exactly as submitted.
func (s *AuthService) Register(ctx context.Context, username, password string) (*models.User, error) {
	ctx, span := observability.StartServiceSpan(ctx, "auth", "Register")
	var err error
	defer func() { observability.EndSpan(span, err) }()

	if strings.TrimSpace(username) == "" {
		err = models.NewRequiredFieldError("username")
		return nil, err
	}
	if password == "" {
		err = models.NewRequiredFieldError("password")
		return nil, err
	}

	hash, hashErr := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if hashErr != nil {
		err = models.NewInternalError(hashErr)
		return nil, err
	}

	user := &models.User{Username: username, PasswordHash: string(hash)}
	if err = s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login checks credentials and returns a signed token. Unknown users, users
// without a password and wrong passwords all yield models.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, *models.User, error) {
	ctx, span := observability.StartServiceSpan(ctx, "auth", "Login")
	var err error
	defer func() { observability.EndSpan(span, err) }()

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return "", nil, err
	}

	if user == nil || user.PasswordHash == "" {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		observability.LoginAttempts.WithLabelValues("failure").Inc()
		err = models.ErrInvalidCredentials
		return "", nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		observability.LoginAttempts.WithLabelValues("failure").Inc()
		err = models.ErrInvalidCredentials
		return "", nil, err
	}

	token, err := s.IssueToken(user)
	if err != nil {
		return "", nil, err
	}
	observability.LoginAttempts.WithLabelValues("success").Inc()
	return token, user, nil
}

// IssueToken signs an HS256 token for user.
func (s *AuthService) IssueToken(user *models.User) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub":      user.ID.String(),
		"id":       user.ID.String(),
		"username": user.Username,
		"iss":      TokenIssuer,
		"aud":      TokenAudience,
		"exp":      now.Add(s.tokenTTL).Unix(),
		"iat":      now.Unix(),
		"nbf":      now.Unix(),
		"jti":      uuid.NewString(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", models.NewInternalError(err)
	}
	return signed, nil
}

// ParseToken validates a token and returns the user id it was issued to.
func (s *AuthService) ParseToken(tokenString string) (uuid.UUID, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(TokenIssuer),
		jwt.WithAudience(TokenAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return uuid.Nil, err
	}
	if !token.Valid {
		return uuid.Nil, errors.New("token is not valid")
	}

	sub, err := token.Claims.GetSubject()
	if err != nil {
		return uuid.Nil, err
	}
	id, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid subject: %w", err)
	}
	return id, nil
}
