package services

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/contactbook/backend/internal/domain"
	"github.com/contactbook/backend/internal/helper"
	"github.com/contactbook/backend/internal/interfaces"
	"github.com/contactbook/backend/internal/repository"
)

// VerificationFlow issues email-verification links and consumes them. Tokens
// are stateless, so the verified flag on the user row is the single-use guard:
// a second Complete with a still-valid token gets ErrAlreadyVerified.
type VerificationFlow struct {
	repo   repository.UserRepository
	auth   helper.Auth
	mailer interfaces.Mailer

	verifyBaseURL string
	resetBaseURL  string
	verifyTTL     time.Duration
}

func NewVerificationFlow(
	repo repository.UserRepository,
	auth helper.Auth,
	mailer interfaces.Mailer,
	verifyBaseURL, resetBaseURL string,
	verifyTTL time.Duration,
) *VerificationFlow {
	return &VerificationFlow{
		repo:          repo,
		auth:          auth,
		mailer:        mailer,
		verifyBaseURL: verifyBaseURL,
		resetBaseURL:  resetBaseURL,
		verifyTTL:     verifyTTL,
	}
}

func (f *VerificationFlow) Start(ctx context.Context, user *domain.User) error {
	token, _, err := f.auth.IssueToken(user.ID, helper.PurposeEmailVerify, f.verifyTTL)
	if err != nil {
		return err
	}

	link := fmt.Sprintf("%s?token=%s", f.verifyBaseURL, url.QueryEscape(token))
	return f.mailer.SendVerification(ctx, user.ID, user.Email, link)
}

func (f *VerificationFlow) Complete(ctx context.Context, token string) (*domain.User, error) {
	claims, err := f.auth.VerifyToken(token, helper.PurposeEmailVerify)
	if err != nil {
		return nil, err
	}

	userID, err := claims.UserID()
	if err != nil {
		return nil, err
	}

	user, err := f.repo.FindUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrInvalidSignature
	}

	if user.IsVerified() {
		return user, domain.ErrAlreadyVerified
	}

	now := time.Now()
	user.EmailVerifiedAt = &now
	if err := f.repo.SaveUser(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (f *VerificationFlow) StartPasswordReset(ctx context.Context, user *domain.User, ttl time.Duration) error {
	token, _, err := f.auth.IssueToken(user.ID, helper.PurposePasswordReset, ttl)
	if err != nil {
		return err
	}

	link := fmt.Sprintf("%s?token=%s", f.resetBaseURL, url.QueryEscape(token))
	return f.mailer.SendPasswordReset(ctx, user.ID, user.Email, link)
}
