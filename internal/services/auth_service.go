package services

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/you/glucopredict/domain"
	"github.com/you/glucopredict/internal/logging"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// AuthServiceImpl implements domain.AuthService
type AuthServiceImpl struct {
	userRepo    domain.UserRepository
	passwordSvc domain.PasswordService
	tokenSvc    domain.TokenService
	logger      *slog.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(
	userRepo domain.UserRepository,
	passwordSvc domain.PasswordService,
	tokenSvc domain.TokenService,
	log *slog.Logger,
) domain.AuthService {
	return &AuthServiceImpl{
		userRepo:    userRepo,
		passwordSvc: passwordSvc,
		tokenSvc:    tokenSvc,
		logger:      logging.OrNop(log).With("component", "auth_service"),
	}
}

// ValidEmail reports whether email looks like an address
func ValidEmail(email string) bool {
	return emailPattern.MatchString(strings.TrimSpace(email))
}

// Register implements domain.AuthService
func (s *AuthServiceImpl) Register(ctx context.Context, email, password string, name *string) (*domain.AuthResult, error) {
	if !ValidEmail(email) {
		return nil, domain.ErrInvalidEmail
	}
	if ok, reason := s.passwordSvc.ValidateStrength(password); !ok {
		return nil, domain.ValidationError("password", reason)
	}
	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			name = nil
		} else {
			name = &trimmed
		}
	}

	hashedPassword, err := s.passwordSvc.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.userRepo.Create(ctx, email, hashedPassword, name)
	if err != nil {
		return nil, err
	}

	token, err := s.tokenSvc.Issue(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	s.logger.InfoContext(ctx, "user registered", "user_id", user.ID)
	return &domain.AuthResult{User: user.Sanitized(), Token: token}, nil
}

// Login implements domain.AuthService
func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (*domain.AuthResult, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, domain.ValidationError("email", "Email and password are required")
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if domain.IsKind(err, domain.KindNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if !s.passwordSvc.Verify(user.PasswordHash, password) {
		return nil, domain.ErrInvalidCredentials
	}

	// Check if user is active
	if !user.IsActive {
		return nil, domain.ErrUserInactive
	}

	s.userRepo.TouchLogin(ctx, user.ID)

	token, err := s.tokenSvc.Issue(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	return &domain.AuthResult{User: user.Sanitized(), Token: token}, nil
}

// Deactivate implements domain.AuthService
func (s *AuthServiceImpl) Deactivate(ctx context.Context, user *domain.User) error {
	if user == nil {
		return domain.ErrUnauthorized
	}
	if err := s.userRepo.SetActive(ctx, user.ID, false); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "user deactivated", "user_id", user.ID)
	return nil
}
