package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/yukikurage/kanban-board-api/internal/auth"
	"github.com/yukikurage/kanban-board-api/internal/constants"
	"github.com/yukikurage/kanban-board-api/internal/mailer"
	"github.com/yukikurage/kanban-board-api/internal/models"
	"github.com/yukikurage/kanban-board-api/internal/repository"
	"github.com/yukikurage/kanban-board-api/internal/utils"
)

var (
	ErrEmailTaken              = errors.New("email already registered")
	ErrUsernameTaken           = errors.New("username already exists")
	ErrInvalidEmail            = errors.New("invalid email address")
	ErrInvalidUsername         = errors.New("username must be 3-50 characters")
	ErrInvalidCredentials      = errors.New("invalid email or password")
	ErrPasswordTooShort        = errors.New("password too short")
	ErrPasswordTooLong         = errors.New("password too long")
	ErrUserNotFound            = errors.New("user not found")
	ErrInvalidVerificationCode = errors.New("invalid or already used verification token")
)

// AuthService handles authentication related business logic.
type AuthService struct {
	store   *repository.Store
	jwt     *auth.JWTService
	mailer  mailer.Mailer
	baseURL string
	logger  *zap.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(store *repository.Store, jwt *auth.JWTService, m mailer.Mailer, baseURL string, logger *zap.Logger) *AuthService {
	return &AuthService{
		store:   store,
		jwt:     jwt,
		mailer:  m,
		baseURL: baseURL,
		logger:  logger,
	}
}

// RegisterInput represents the required information to create a new user.
type RegisterInput struct {
	Email    string
	Username string
	Name     string
	Password string
}

// RegisterResult carries the new user and, when the mailer only logs, a
// preview of the verification link.
type RegisterResult struct {
	User       *models.User
	PreviewURL string
}

// Register creates an unverified account and sends a verification email.
// Mail failures are logged; the account is kept.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*RegisterResult, error) {
	email := utils.NormalizeEmail(input.Email)
	username := strings.TrimSpace(input.Username)

	if !utils.IsValidEmail(email) {
		return nil, ErrInvalidEmail
	}
	if len(username) < 3 || len(username) > 50 {
		return nil, ErrInvalidUsername
	}
	if len(input.Password) < constants.MinPasswordLength {
		return nil, ErrPasswordTooShort
	}
	if len(input.Password) > constants.MaxPasswordLength {
		return nil, ErrPasswordTooLong
	}

	store := s.store.WithContext(ctx)

	if _, err := store.Users.FindByEmail(email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if _, err := store.Users.FindByUsername(username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	token, err := utils.GenerateToken()
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = username
	}
	user := &models.User{
		Email:             email,
		Username:          username,
		Name:              name,
		PasswordHash:      hash,
		VerificationToken: &token,
	}

	if err := store.Users.Create(user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	result := &RegisterResult{User: user}
	delivery, err := s.mailer.SendVerification(ctx, mailer.VerificationMessage{
		To:        user.Email,
		Name:      user.DisplayName(),
		VerifyURL: fmt.Sprintf("%s/verify-email?token=%s", s.baseURL, token),
	})
	if err != nil {
		s.logger.Warn("verification email failed",
			zap.Uint64("user_id", user.ID),
			zap.Error(err),
		)
	} else {
		result.PreviewURL = delivery.PreviewURL
	}

	return result, nil
}

// VerifyEmail marks the account holding token as verified. Tokens are single use.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, ErrInvalidVerificationCode
	}

	store := s.store.WithContext(ctx)
	user, err := store.Users.FindByVerificationToken(token)
	if err != nil {
		return nil, notFound(err, ErrInvalidVerificationCode, "user")
	}

	user.EmailVerified = true
	user.VerificationToken = nil
	if err := store.Users.Update(user); err != nil {
		return nil, fmt.Errorf("failed to verify user: %w", err)
	}
	return user, nil
}

// LoginInput holds the credentials for authentication.
type LoginInput struct {
	Email    string
	Password string
}

// LoginResult is the authenticated user and a bearer token.
type LoginResult struct {
	User  *models.User
	Token string
}

// Login verifies credentials and issues a bearer token.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	user, err := s.store.WithContext(ctx).Users.FindByEmail(utils.NormalizeEmail(input.Email))
	if err != nil {
		return nil, notFound(err, ErrInvalidCredentials, "user")
	}

	if !auth.CheckPassword(user.PasswordHash, input.Password) {
		return nil, ErrInvalidCredentials
	}

	token, err := s.jwt.GenerateToken(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	return &LoginResult{User: user, Token: token}, nil
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(ctx context.Context, id uint64) (*models.User, error) {
	user, err := s.store.WithContext(ctx).Users.FindByID(id)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound, "user")
	}
	return user, nil
}
