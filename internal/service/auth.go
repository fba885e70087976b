package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/stockpile/stockpile-go/internal/crypto"
	"github.com/stockpile/stockpile-go/internal/model"
	"github.com/stockpile/stockpile-go/internal/repository"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailRequired      = errors.New("email is required")
	ErrPasswordRequired   = errors.New("password is required")
	ErrInvalidEmail       = errors.New("email is not a valid address")
	ErrPasswordTooShort   = errors.New("password must be at least 6 characters")
	ErrEmailTaken         = errors.New("email already taken")
)

// UserStore is the credential storage AuthService depends on.
type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
}

// AuthService handles registration and login.
type AuthService struct {
	users     UserStore
	hasher    *crypto.PasswordHasher
	validate  *validator.Validate
	jwtSecret string
	jwtExpiry time.Duration
}

// NewAuthService creates a new AuthService.
func NewAuthService(users UserStore, hasher *crypto.PasswordHasher, secret string, expiry time.Duration) *AuthService {
	return &AuthService{
		users:     users,
		hasher:    hasher,
		validate:  newValidator(),
		jwtSecret: secret,
		jwtExpiry: expiry,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a new user account. It does not issue a token.
func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) (model.MessageResponse, error) {
	email := normalizeEmail(req.Email)
	if email == "" {
		return model.MessageResponse{}, ErrEmailRequired
	}
	if req.Password == "" {
		return model.MessageResponse{}, ErrPasswordRequired
	}
	if err := s.validate.Var(email, "email"); err != nil {
		return model.MessageResponse{}, ErrInvalidEmail
	}
	if err := s.validate.Var(req.Password, "min=6"); err != nil {
		return model.MessageResponse{}, ErrPasswordTooShort
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return model.MessageResponse{}, err
	}

	user := &model.User{
		Email:        email,
		PasswordHash: hash,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return model.MessageResponse{}, ErrEmailTaken
		}
		return model.MessageResponse{}, err
	}

	return model.MessageResponse{Message: "User registered successfully."}, nil
}

// Login checks the credentials and returns a signed session token. Unknown
// emails and wrong passwords fail with the same error.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (model.LoginResponse, error) {
	email := normalizeEmail(req.Email)
	if email == "" {
		return model.LoginResponse{}, ErrEmailRequired
	}
	if req.Password == "" {
		return model.LoginResponse{}, ErrPasswordRequired
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return model.LoginResponse{}, ErrInvalidCredentials
		}
		return model.LoginResponse{}, err
	}

	match, err := s.hasher.Verify(req.Password, user.PasswordHash)
	if err != nil {
		return model.LoginResponse{}, err
	}
	if !match {
		return model.LoginResponse{}, ErrInvalidCredentials
	}

	token, err := crypto.GenerateToken(user.ID, user.Email, s.jwtSecret, s.jwtExpiry)
	if err != nil {
		return model.LoginResponse{}, err
	}

	return model.LoginResponse{Message: "Login successful.", Token: token}, nil
}
