package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/workoai/referrals/config"
	"github.com/workoai/referrals/internal/metrics"
	"github.com/workoai/referrals/internal/store"
	"github.com/workoai/referrals/types"
	"golang.org/x/crypto/bcrypt"
)

const (
	defaultTokenTTL   = 24 * time.Hour
	// minPasswordLength counts characters, not bytes.
	minPasswordLength = 6
	// bcrypt ignores input beyond 72 bytes; longer passwords are refused.
	maxPasswordBytes = 72
)

// UserRepository defines persistence operations for accounts.
type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	Token string
	User  types.User
}

// AuthService registers accounts, checks credentials and issues and
// verifies HS256 bearer tokens whose subject is the account id.
type AuthService struct {
	users    UserRepository
	metrics  *metrics.Metrics
	secret   []byte
	issuer   string
	tokenTTL time.Duration
	hashCost int
	now      func() time.Time
}

func NewAuthService(users UserRepository, cfg config.AuthConfig, m *metrics.Metrics) (*AuthService, error) {
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	if m == nil {
		m = metrics.Noop()
	}
	return &AuthService{
		users:    users,
		metrics:  m,
		secret:   []byte(cfg.JWTSecret),
		issuer:   cfg.Issuer,
		tokenTTL: ttl,
		hashCost: bcrypt.DefaultCost,
		now:      time.Now,
	}, nil
}

// Register creates an account and returns a token bound to it.
func (s *AuthService) Register(ctx context.Context, email, password string) (AuthResult, error) {
	email = strings.TrimSpace(email)
	if err := validateCredentials(email, password); err != nil {
		return AuthResult{}, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return AuthResult{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.Create(ctx, types.User{
		Email:        email,
		PasswordHash: string(hashed),
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return AuthResult{}, ErrConflict
		}
		return AuthResult{}, fmt.Errorf("create user: %w", err)
	}
	s.metrics.IncUsersRegistered()

	return s.result(user)
}

// Login verifies credentials. Missing or unknown emails and wrong passwords
// all yield ErrUnauthorized.
func (s *AuthService) Login(ctx context.Context, email, password string) (AuthResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		s.metrics.IncLoginFailures()
		return AuthResult{}, ErrUnauthorized
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.metrics.IncLoginFailures()
			return AuthResult{}, ErrUnauthorized
		}
		return AuthResult{}, fmt.Errorf("load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.metrics.IncLoginFailures()
		return AuthResult{}, ErrUnauthorized
	}

	return s.result(user)
}

// Authenticate verifies a bearer token and returns the account id it is
// bound to. The account is not looked up.
func (s *AuthService) Authenticate(token string) (uuid.UUID, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return uuid.Nil, ErrUnauthorized
	}
	id, err := parseTokenSubject(token, s.secret, s.issuer, s.now)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	return id, nil
}

// Me returns the account behind an authenticated id. A deleted account
// yields ErrUnauthorized so clients drop the stored token.
func (s *AuthService) Me(ctx context.Context, id uuid.UUID) (types.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, ErrUnauthorized
		}
		return types.User{}, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}

func (s *AuthService) result(user types.User) (AuthResult, error) {
	token, err := issueToken(user.ID, s.secret, s.issuer, s.now(), s.tokenTTL)
	if err != nil {
		return AuthResult{}, fmt.Errorf("issue token: %w", err)
	}
	return AuthResult{Token: token, User: user}, nil
}

func validateCredentials(email, password string) error {
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrValidation)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("%w: enter a valid email", ErrValidation)
	}
	if utf8.RuneCountInString(password) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLength)
	}
	if len(password) > maxPasswordBytes {
		return fmt.Errorf("%w: password must be at most %d bytes", ErrValidation, maxPasswordBytes)
	}
	return nil
}
