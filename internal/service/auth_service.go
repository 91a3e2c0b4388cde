package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prperemyshlev/page-manager/internal/domain"
	"github.com/prperemyshlev/page-manager/internal/dto"
	"github.com/prperemyshlev/page-manager/internal/repository"
	"github.com/prperemyshlev/page-manager/internal/utils"
	"go.uber.org/zap"
)

// authService implements AuthService interface
type authService struct {
	userRepo   repository.UserRepository
	jwtManager *utils.JWTManager
	blacklist  *TokenBlacklistService
	sessions   *SessionStore
	bcryptCost int
	logger     *zap.Logger
	now        func() time.Time
}

// NewAuthService creates a new auth service
func NewAuthService(
	userRepo repository.UserRepository,
	jwtManager *utils.JWTManager,
	blacklist *TokenBlacklistService,
	sessions *SessionStore,
	bcryptCost int,
	logger *zap.Logger,
) AuthService {
	return &authService{
		userRepo:   userRepo,
		jwtManager: jwtManager,
		blacklist:  blacklist,
		sessions:   sessions,
		bcryptCost: bcryptCost,
		logger:     logger.Named("auth"),
		now:        time.Now,
	}
}

// Register creates a user and logs them in
func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*Session, error) {
	username := strings.TrimSpace(req.Username)
	email := utils.SanitizeEmail(req.Email)

	if username == "" || email == "" || req.Password == "" || req.ConfirmPassword == "" {
		return nil, invalid("Please fill in all fields")
	}
	if !utils.ValidateUsername(username) {
		return nil, invalid("Username must be 3-50 characters: letters, digits, dots, dashes or underscores")
	}
	if !utils.ValidateEmail(email) {
		return nil, invalid("Please enter a valid email address")
	}
	if req.Password != req.ConfirmPassword {
		return nil, invalid("Passwords do not match")
	}
	if !utils.ValidatePassword(req.Password) {
		return nil, invalid("Password must be at least %d characters long", utils.MinPasswordLength)
	}

	passwordHash, err := utils.HashPassword(req.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateUser) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID), zap.String("username", user.Username))

	return s.startSession(ctx, user)
}

// Login authenticates a user by username and password
func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*Session, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		return nil, invalid("Please enter both username and password")
	}

	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !utils.CheckPasswordHash(req.Password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return s.startSession(ctx, user)
}

func (s *authService) startSession(ctx context.Context, user *domain.User) (*Session, error) {
	token, claims, err := s.jwtManager.GenerateSessionToken(user.ID, user.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to issue session token: %w", err)
	}

	sc := &domain.SessionContext{
		SessionID: claims.SessionID,
		UserID:    user.ID,
		Username:  user.Username,
	}
	if err := s.sessions.Save(ctx, sc, claims.TTL(s.now())); err != nil {
		return nil, err
	}

	return &Session{Token: token, Claims: claims, User: user, Context: sc}, nil
}

// Logout invalidates the session token and drops its context
func (s *authService) Logout(ctx context.Context, claims *domain.SessionClaims) error {
	if claims == nil {
		return nil
	}

	err := errors.Join(
		s.blacklist.Add(ctx, claims.SessionID, claims.TTL(s.now())),
		s.sessions.Delete(ctx, claims.SessionID),
	)
	if err != nil {
		return fmt.Errorf("failed to log out: %w", err)
	}

	s.logger.Info("user logged out", zap.String("user_id", claims.UserID))
	return nil
}

// ValidateSession verifies a session token and checks it was not logged out
func (s *authService) ValidateSession(ctx context.Context, token string) (*domain.SessionClaims, error) {
	if token == "" {
		return nil, ErrSessionInvalid
	}

	claims, err := s.jwtManager.ValidateSessionToken(token)
	if err != nil {
		s.logger.Debug("rejected session token", zap.Error(err))
		return nil, ErrSessionInvalid
	}

	blacklisted, err := s.blacklist.IsBlacklisted(ctx, claims.SessionID)
	if err != nil {
		return nil, err
	}
	if blacklisted {
		return nil, ErrSessionInvalid
	}

	return claims, nil
}

// ChangePassword verifies the current password and stores the new one
func (s *authService) ChangePassword(ctx context.Context, userID string, req *dto.ChangePasswordRequest) error {
	if req.CurrentPassword == "" || req.NewPassword == "" || req.ConfirmPassword == "" {
		return invalid("Please fill in all fields")
	}
	if req.NewPassword != req.ConfirmPassword {
		return invalid("New passwords do not match")
	}
	if !utils.ValidatePassword(req.NewPassword) {
		return invalid("Password must be at least %d characters long", utils.MinPasswordLength)
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}

	if !utils.CheckPasswordHash(req.CurrentPassword, user.PasswordHash) {
		return invalid("Current password is incorrect")
	}

	passwordHash, err := utils.HashPassword(req.NewPassword, s.bcryptCost)
	if err != nil {
		return err
	}

	if err := s.userRepo.UpdatePassword(ctx, userID, passwordHash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	s.logger.Info("password changed", zap.String("user_id", userID))
	return nil
}

// GetUser gets user information
func (s *authService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}
