package services

import (
	"context"

	"github.com/rafflehub/raffle-backend/internal/apperrors"
	"github.com/rafflehub/raffle-backend/internal/config"
	"github.com/rafflehub/raffle-backend/internal/models"
	"github.com/rafflehub/raffle-backend/internal/repositories"
	"github.com/rafflehub/raffle-backend/internal/utils"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/exp/slog"
)

// AuthService defines the interface for authentication operations
type AuthService interface {
	Login(ctx context.Context, req *models.LoginRequest) (string, error) // Returns a signed session token
}

// Compile-time check to ensure authService implements AuthService
var _ AuthService = (*authService)(nil)

type authService struct {
	adminRepo repositories.AdminUserRepository
	cfg       *config.Config
}

// NewAuthService creates a new AuthService implementation
func NewAuthService(adminRepo repositories.AdminUserRepository, cfg *config.Config) AuthService {
	return &authService{
		adminRepo: adminRepo,
		cfg:       cfg,
	}
}

// Login exchanges admin credentials for a session token. The failure message
// is identical whether the account is missing or the password is wrong, so
// the endpoint cannot be used to enumerate accounts.
func (s *authService) Login(ctx context.Context, req *models.LoginRequest) (string, error) {
	admin, err := s.adminRepo.FindByIdentifier(ctx, req.Identifier)
	if err != nil {
		return "", apperrors.New(apperrors.KindAuthentication, "invalid email/username or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte(req.Password)); err != nil {
		return "", apperrors.New(apperrors.KindAuthentication, "invalid email/username or password")
	}

	token, err := utils.GenerateJWT(admin.Username, admin.Role, s.cfg)
	if err != nil {
		slog.Error("failed to sign session token", "username", admin.Username, "error", err)
		return "", apperrors.Wrap(apperrors.KindPersistence, err, "failed to generate token")
	}

	return token, nil
}
