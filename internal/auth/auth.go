package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"textdigest/internal/database"
	"textdigest/internal/domain"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
)

type UserStore interface {
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	GetUserByID(ctx context.Context, id int64) (*domain.User, error)
}

type TokenPair struct {
	Access  string
	Refresh string
}

type claims struct {
	TokenType string `json:"token_type"`
	UserID    int64  `json:"user_id"`
	jwt.RegisteredClaims
}

// Service issues and verifies HS256 access/refresh tokens.
type Service struct {
	users      UserStore
	key        []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewService(
	users UserStore,
	secretKey string,
	accessTTL time.Duration,
	refreshTTL time.Duration,
) (*Service, error) {
	if secretKey == "" {
		return nil, errors.New("secret key is empty")
	}

	return &Service{
		users:      users,
		key:        []byte(secretKey),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}, nil
}

// Login exchanges username and password for a token pair.
func (s *Service) Login(ctx context.Context, username string, password string) (TokenPair, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			// Keep timing close to the found-user path.
			_ = CheckPassword(dummyPasswordHash(), password)
			return TokenPair{}, ErrInvalidCredentials
		}
		return TokenPair{}, fmt.Errorf("get user: %w", err)
	}

	if err = CheckPassword(user.PasswordHash, password); err != nil || !user.IsActive {
		return TokenPair{}, ErrInvalidCredentials
	}

	access, err := s.sign(tokenTypeAccess, user.ID, s.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}

	refresh, err := s.sign(tokenTypeRefresh, user.ID, s.refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{Access: access, Refresh: refresh}, nil
}

// Refresh issues a new access token for a valid refresh token.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, error) {
	user, err := s.verify(ctx, refreshToken, tokenTypeRefresh)
	if err != nil {
		return "", err
	}

	return s.sign(tokenTypeAccess, user.ID, s.accessTTL)
}

// Authenticate resolves the active user behind an access token.
func (s *Service) Authenticate(ctx context.Context, accessToken string) (*domain.User, error) {
	return s.verify(ctx, accessToken, tokenTypeAccess)
}

func (s *Service) sign(tokenType string, userID int64, ttl time.Duration) (string, error) {
	now := s.now()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		TokenType: tokenType,
		UserID:    userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})

	signed, err := token.SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", tokenType, err)
	}

	return signed, nil
}

func (s *Service) verify(ctx context.Context, raw string, tokenType string) (*domain.User, error) {
	var c claims

	_, err := jwt.ParseWithClaims(raw, &c, func(*jwt.Token) (any, error) {
		return s.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if c.TokenType != tokenType {
		return nil, fmt.Errorf("%w: token type is %q", ErrInvalidToken, c.TokenType)
	}

	user, err := s.users.GetUserByID(ctx, c.UserID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, fmt.Errorf("%w: user not found", ErrInvalidToken)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if !user.IsActive {
		return nil, fmt.Errorf("%w: user is inactive", ErrInvalidToken)
	}

	return user, nil
}

type userCtxKey struct{}

func WithUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, user)
}

func UserFromContext(ctx context.Context) (*domain.User, bool) {
	user, ok := ctx.Value(userCtxKey{}).(*domain.User)
	return user, ok && user != nil
}

// UserID is the pacing key for authenticated calls; anonymous calls share 0.
func UserID(ctx context.Context) int64 {
	if user, ok := UserFromContext(ctx); ok {
		return user.ID
	}
	return 0
}
