package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"jeeforces/internal/logger"
	"jeeforces/internal/models"
	"jeeforces/internal/repositories"
	"jeeforces/internal/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrInvalidCredentials = utils.NewError(utils.ErrUnauthorized, "Invalid credentials")
	ErrNotVerified        = utils.NewError(utils.ErrForbidden, "Please verify your email before signing in")
	ErrInvalidToken       = utils.NewError(utils.ErrBadRequest, "Invalid token")
	ErrTokenExpired       = utils.NewError(utils.ErrExpired, "Token expired")
)

type AuthService struct {
	users     repositories.UserRepository
	tokens    *TokenService
	mailer    Mailer
	verifyTTL time.Duration
	baseURL   string
	now       func() time.Time
}

func NewAuthService(users repositories.UserRepository, tokens *TokenService, mailer Mailer, verifyTTL time.Duration, baseURL string) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		mailer:    mailer,
		verifyTTL: verifyTTL,
		baseURL:   strings.TrimRight(baseURL, "/"),
		now:       time.Now,
	}
}

// SignUp creates an unverified user and mails a single-use verification link.
func (s *AuthService) SignUp(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	exp := s.now().Add(s.verifyTTL)
	user := &models.User{
		Username:       req.Username,
		Email:          req.Email,
		PasswordHash:   hash,
		Role:           models.RoleUser,
		VerifyToken:    uuid.NewString(),
		VerifyTokenExp: &exp,
		Rating:         models.DefaultRating,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	link := fmt.Sprintf("%s/api/auth/verify?token=%s", s.baseURL, url.QueryEscape(user.VerifyToken))
	if err := s.mailer.SendVerification(ctx, user.Email, user.Username, link); err != nil {
		// Sign-up still succeeds.
		logger.Log.Error("Failed to send verification email",
			zap.String("user_id", user.ID.Hex()),
			zap.Error(err))
	}
	return user, nil
}

// SignIn checks credentials and returns a signed session token for a verified user.
func (s *AuthService) SignIn(ctx context.Context, req *models.LoginRequest) (string, *models.User, error) {
	user, err := s.users.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}
	if !utils.CheckPasswordHash(req.Password, user.PasswordHash) {
		return "", nil, ErrInvalidCredentials
	}
	if !user.IsVerified {
		return "", nil, ErrNotVerified
	}

	token, err := s.tokens.GenerateSessionToken(user.ID.Hex(), user.Username, user.Role)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// Verify consumes an email verification token. A token works once and only before it expires.
func (s *AuthService) Verify(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrInvalidToken
	}

	user, err := s.users.GetUserByVerifyToken(ctx, token)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return ErrInvalidToken
		}
		return err
	}

	now := s.now()
	if user.VerifyTokenExp == nil || !user.VerifyTokenExp.After(now) {
		return ErrTokenExpired
	}

	consumed, err := s.users.ConsumeVerifyToken(ctx, token, now)
	if err != nil {
		return err
	}
	if !consumed {
		return ErrInvalidToken
	}
	return nil
}
