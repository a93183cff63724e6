package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/contactbook/backend/config"
	"github.com/contactbook/backend/internal/domain"
	"github.com/contactbook/backend/internal/dto"
	"github.com/contactbook/backend/internal/helper"
	"github.com/contactbook/backend/internal/helper/utils"
	"github.com/contactbook/backend/internal/repository"
	"github.com/google/uuid"
)

type AuthService interface {
	Register(ctx context.Context, input dto.RegisterRequest) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*dto.TokenPairResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*dto.TokenPairResponse, error)
	Authorize(ctx context.Context, accessToken string) (*domain.User, error)
	VerifyEmail(ctx context.Context, token string) (*domain.User, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	UpdateAvatar(ctx context.Context, userID uint, url string) (*domain.User, error)
}

type authService struct {
	repo         repository.UserRepository
	auth         helper.Auth
	verification *VerificationFlow

	accessTTL  time.Duration
	refreshTTL time.Duration
	resetTTL   time.Duration
	minPwLen   int

	// hash compared against on the unknown-email path of Login so timing does
	// not reveal whether the account exists.
	dummyHash string
}

func NewAuthService(
	repo repository.UserRepository,
	auth helper.Auth,
	verification *VerificationFlow,
	cfg config.Config,
) AuthService {
	dummy, err := auth.HashPassword(uuid.NewString())
	if err != nil {
		log.Printf("dummy hash error: %v", err)
	}
	return &authService{
		repo:         repo,
		auth:         auth,
		verification: verification,
		accessTTL:    cfg.AccessTokenTTL,
		refreshTTL:   cfg.RefreshTokenTTL,
		resetTTL:     cfg.ResetTokenTTL,
		minPwLen:     cfg.MinPasswordLength,
		dummyHash:    dummy,
	}
}

func (s *authService) Register(ctx context.Context, input dto.RegisterRequest) (*domain.User, error) {
	email := utils.NormalizeEmail(input.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: a valid email is required", domain.ErrInvalidInput)
	}

	if err := ValidatePassword(input.Password, s.minPwLen); err != nil {
		return nil, err
	}

	hashed, err := s.auth.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.CreateUser(ctx, &domain.User{
		Email:        email,
		PasswordHash: hashed,
	})
	if err != nil {
		return nil, err
	}

	// dispatch failure must not fail registration; the user can request a new
	// link by logging in and hitting NotVerified
	if err := s.verification.Start(ctx, user); err != nil {
		log.Printf("verification dispatch for user %d failed: %v", user.ID, err)
	}

	return user, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*dto.TokenPairResponse, error) {
	email = utils.NormalizeEmail(email)

	user, err := s.repo.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		// burn a bcrypt compare so the miss costs the same as a mismatch
		s.auth.VerifyPassword(password, s.dummyHash)
		return nil, domain.ErrInvalidCredentials
	}

	if !s.auth.VerifyPassword(password, user.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}

	if !user.IsVerified() {
		return nil, domain.ErrNotVerified
	}

	pair, fingerprint, err := s.issuePair(user.ID)
	if err != nil {
		return nil, err
	}

	user.RefreshTokenFingerprint = fingerprint
	if err := s.repo.SaveUser(ctx, user); err != nil {
		return nil, err
	}

	return pair, nil
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*dto.TokenPairResponse, error) {
	claims, err := s.auth.VerifyToken(refreshToken, helper.PurposeRefresh)
	if err != nil {
		return nil, err
	}

	userID, err := claims.UserID()
	if err != nil {
		return nil, err
	}

	user, err := s.repo.FindUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrInvalidCredentials
	}

	presented := utils.Sha256Hex(claims.ID)
	if user.RefreshTokenFingerprint == "" || user.RefreshTokenFingerprint != presented {
		return nil, domain.ErrRevokedToken
	}

	pair, next, err := s.issuePair(user.ID)
	if err != nil {
		return nil, err
	}

	// compare-and-swap: if another refresh rotated first, this one loses
	if err := s.repo.RotateRefreshFingerprint(ctx, user.ID, presented, next); err != nil {
		return nil, err
	}

	return pair, nil
}

func (s *authService) Authorize(ctx context.Context, accessToken string) (*domain.User, error) {
	claims, err := s.auth.VerifyToken(accessToken, helper.PurposeAccess)
	if err != nil {
		return nil, err
	}

	userID, err := claims.UserID()
	if err != nil {
		return nil, err
	}

	user, err := s.repo.FindUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrInvalidCredentials
	}
	return user, nil
}

func (s *authService) VerifyEmail(ctx context.Context, token string) (*domain.User, error) {
	return s.verification.Complete(ctx, token)
}

func (s *authService) ForgotPassword(ctx context.Context, email string) error {
	email = utils.NormalizeEmail(email)

	user, err := s.repo.FindUserByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		// no account enumeration: report success for unknown addresses
		return nil
	}

	return s.verification.StartPasswordReset(ctx, user, s.resetTTL)
}

func (s *authService) ResetPassword(ctx context.Context, token, newPassword string) error {
	claims, err := s.auth.VerifyToken(token, helper.PurposePasswordReset)
	if err != nil {
		return err
	}

	if err := ValidatePassword(newPassword, s.minPwLen); err != nil {
		return err
	}

	userID, err := claims.UserID()
	if err != nil {
		return err
	}

	user, err := s.repo.FindUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return domain.ErrInvalidCredentials
	}

	hashed, err := s.auth.HashPassword(newPassword)
	if err != nil {
		return err
	}

	user.PasswordHash = hashed
	// force re-login everywhere: old refresh tokens die with the fingerprint
	user.RefreshTokenFingerprint = ""
	return s.repo.SaveUser(ctx, user)
}

func (s *authService) UpdateAvatar(ctx context.Context, userID uint, url string) (*domain.User, error) {
	user, err := s.repo.FindUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrInvalidCredentials
	}

	user.AvatarURL = url
	if err := s.repo.SaveUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *authService) issuePair(userID uint) (*dto.TokenPairResponse, string, error) {
	access, _, err := s.auth.IssueToken(userID, helper.PurposeAccess, s.accessTTL)
	if err != nil {
		return nil, "", err
	}

	refresh, jti, err := s.auth.IssueToken(userID, helper.PurposeRefresh, s.refreshTTL)
	if err != nil {
		return nil, "", err
	}

	return &dto.TokenPairResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
	}, utils.Sha256Hex(jti), nil
}
