package account

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/nomada-travel/nomada/backend/internal/model/account"
	"github.com/nomada-travel/nomada/backend/internal/store"
)

var (
	ErrMissingFields      = errors.New("name, email and password are required")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
)

// tokenTTL bounds how long a login token stays valid.
const tokenTTL = 24 * time.Hour

// Service handles traveler registration and login. Passwords are stored
// as SHA-256 hex digests; logins additionally mint an HS256 JWT when a
// signing secret is configured.
type Service struct {
	store  *store.Store
	secret []byte
	now    func() time.Time
}

// NewService wires the account flow. secret may be empty, which disables
// token issuance without disabling login.
func NewService(st *store.Store, secret string) *Service {
	var key []byte
	if secret != "" {
		key = []byte(secret)
	}
	return &Service{store: st, secret: key, now: time.Now}
}

// Register creates a new account.
func (s *Service) Register(ctx context.Context, name, email, password string) (account.User, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" || email == "" || password == "" {
		return account.User{}, ErrMissingFields
	}

	id, err := s.store.CreateUser(ctx, name, email, hashPassword(password))
	if errors.Is(err, store.ErrEmailTaken) {
		return account.User{}, ErrEmailTaken
	}
	if err != nil {
		return account.User{}, fmt.Errorf("create user: %w", err)
	}

	return account.User{ID: id, Name: name, Email: email}, nil
}

// Login checks the credentials and returns the account plus a bearer
// token. The token is empty when no signing secret is configured.
func (s *Service) Login(ctx context.Context, email, password string) (account.User, string, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return account.User{}, "", ErrInvalidCredentials
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if errors.Is(err, store.ErrUserNotFound) {
		return account.User{}, "", ErrInvalidCredentials
	}
	if err != nil {
		return account.User{}, "", fmt.Errorf("load user: %w", err)
	}
	if user.PasswordHash != hashPassword(password) {
		return account.User{}, "", ErrInvalidCredentials
	}

	token, err := s.issueToken(user)
	if err != nil {
		return account.User{}, "", fmt.Errorf("issue token: %w", err)
	}
	return user, token, nil
}

// Claims is the JWT payload carried by login tokens.
type Claims struct {
	Name string `json:"name"`
	jwt.RegisteredClaims
}

func (s *Service) issueToken(user account.User) (string, error) {
	if len(s.secret) == 0 {
		return "", nil
	}

	now := s.now()
	claims := Claims{
		Name: user.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// VerifyToken parses a bearer token and returns the email it was issued
// for.
func (s *Service) VerifyToken(tokenString string) (string, error) {
	if len(s.secret) == 0 {
		return "", ErrInvalidToken
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

// TokensEnabled reports whether logins produce bearer tokens.
func (s *Service) TokensEnabled() bool {
	return len(s.secret) > 0
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func hashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}
