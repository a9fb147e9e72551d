// Package auth implements email and password accounts with signed session tokens.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"digilocker/internal/model"
	"digilocker/internal/repository"
)

// MinPasswordLen is the shortest accepted password.
const MinPasswordLen = 6

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// Session is what a successful sign-in or sign-up hands back.
type Session struct {
	User      model.User `json:"user"`
	Token     string     `json:"access_token"`
	ExpiresAt time.Time  `json:"expires_at"`
}

// Service registers and authenticates users.
type Service interface {
	SignUp(ctx context.Context, email, password string) (*Session, error)
	SignIn(ctx context.Context, email, password string) (*Session, error)
	// Verify checks an access token and returns its claims.
	Verify(token string) (*Claims, error)
}

type service struct {
	users  repository.UserRepository
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewService constructs a Service. The secret must not be empty.
func NewService(users repository.UserRepository, secret string, ttl time.Duration) (Service, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &service{users: users, secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

func validateCredentials(email, password string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", &model.ValidationError{Field: "email", Reason: "must not be empty"}
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", &model.ValidationError{Field: "email", Reason: "not an email address"}
	}
	if len(password) < MinPasswordLen {
		return "", &model.ValidationError{Field: "password", Reason: fmt.Sprintf("must be at least %d characters", MinPasswordLen)}
	}
	return email, nil
}

func (s *service) SignUp(ctx context.Context, email, password string) (*Session, error) {
	email, err := validateCredentials(email, password)
	if err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u, err := s.users.Create(ctx, &model.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return s.issue(u)
}

func (s *service) SignIn(ctx context.Context, email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.issue(u)
}

func (s *service) Verify(token string) (*Claims, error) {
	return ParseToken(token, s.secret)
}

func (s *service) issue(u *model.User) (*Session, error) {
	tok, exp, err := GenerateToken(u.ID, u.Email, s.secret, s.ttl, s.now())
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &Session{User: *u, Token: tok, ExpiresAt: exp}, nil
}
