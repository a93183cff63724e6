package services

import (
	"context"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/contactbook/backend/config"
	"github.com/contactbook/backend/internal/domain"
	"github.com/contactbook/backend/internal/dto"
	"github.com/contactbook/backend/internal/helper"
	"github.com/contactbook/backend/internal/helper/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeUserRepo mimics the credential store, including the unique-email
// constraint and the fingerprint compare-and-swap.
type fakeUserRepo struct {
	mu     sync.Mutex
	nextID uint
	users  map[uint]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{nextID: 1, users: map[uint]*domain.User{}}
}

func (r *fakeUserRepo) CreateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return nil, domain.ErrDuplicateEmail
		}
	}
	user.ID = r.nextID
	user.CreatedAt = time.Now()
	r.nextID++
	cp := *user
	r.users[user.ID] = &cp
	return user, nil
}

func (r *fakeUserRepo) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) FindUserByID(ctx context.Context, userID uint) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) SaveUser(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) RotateRefreshFingerprint(ctx context.Context, userID uint, old, next string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok || u.RefreshTokenFingerprint != old {
		return domain.ErrRevokedToken
	}
	u.RefreshTokenFingerprint = next
	return nil
}

// fakeMailer records the last link per recipient.
type fakeMailer struct {
	mu          sync.Mutex
	verifyLinks map[string]string
	resetLinks  map[string]string
	fail        bool
}

func newFakeMailer() *fakeMailer {
	return &fakeMailer{verifyLinks: map[string]string{}, resetLinks: map[string]string{}}
}

func (m *fakeMailer) SendVerification(ctx context.Context, userID uint, to, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return assert.AnError
	}
	m.verifyLinks[to] = link
	return nil
}

func (m *fakeMailer) SendPasswordReset(ctx context.Context, userID uint, to, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return assert.AnError
	}
	m.resetLinks[to] = link
	return nil
}

func (m *fakeMailer) tokenFromLink(t *testing.T, links map[string]string, to string) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	link, ok := links[to]
	require.True(t, ok, "no link sent to %s", to)
	u, err := url.Parse(link)
	require.NoError(t, err)
	token := u.Query().Get("token")
	require.NotEmpty(t, token)
	return token
}

func testConfig() config.Config {
	return config.Config{
		TokenSigningSecret: "test-secret",
		AccessTokenTTL:     30 * time.Minute,
		RefreshTokenTTL:    7 * 24 * time.Hour,
		EmailVerifyTTL:     24 * time.Hour,
		ResetTokenTTL:      30 * time.Minute,
		MinPasswordLength:  8,
		VerifyBaseURL:      "http://localhost:3000/api/auth/verify-email",
		ResetBaseURL:       "http://localhost:3000/reset-password",
	}
}

func newTestService(t *testing.T) (AuthService, *fakeUserRepo, *fakeMailer) {
	t.Helper()
	cfg := testConfig()
	repo := newFakeUserRepo()
	mailer := newFakeMailer()
	auth := helper.SetupAuth(cfg.TokenSigningSecret)
	flow := NewVerificationFlow(repo, auth, mailer, cfg.VerifyBaseURL, cfg.ResetBaseURL, cfg.EmailVerifyTTL)
	return NewAuthService(repo, auth, flow, cfg), repo, mailer
}

func register(t *testing.T, svc AuthService, email, password string) *domain.User {
	t.Helper()
	user, err := svc.Register(context.Background(), dto.RegisterRequest{Email: email, Password: password})
	require.NoError(t, err)
	return user
}

func TestRegister_Success(t *testing.T) {
	t.Parallel()
	svc, _, mailer := newTestService(t)

	user := register(t, svc, "  U@X.com ", "Strong1!pass")

	assert.Equal(t, "u@x.com", user.Email)
	assert.False(t, user.IsVerified())
	assert.NotEmpty(t, user.PasswordHash)
	assert.NotContains(t, user.PasswordHash, "Strong1!pass")
	assert.Contains(t, mailer.verifyLinks, "u@x.com")
}

func TestRegister_DuplicateEmail_CaseInsensitive(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestService(t)

	register(t, svc, "a@x.com", "Strong1!pass")

	_, err := svc.Register(context.Background(), dto.RegisterRequest{Email: "A@X.com", Password: "Strong1!pass"})
	assert.ErrorIs(t, err, domain.ErrDuplicateEmail)
}

func TestRegister_WeakPassword(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestService(t)

	cases := []string{"short1", "onlyletters", "12345678", ""}
	for _, pw := range cases {
		_, err := svc.Register(context.Background(), dto.RegisterRequest{Email: "w@x.com", Password: pw})
		assert.ErrorIs(t, err, domain.ErrWeakPassword, "password %q", pw)
	}
}

func TestRegister_InvalidEmail(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestService(t)

	for _, email := range []string{"", "   ", "not-an-email"} {
		_, err := svc.Register(context.Background(), dto.RegisterRequest{Email: email, Password: "Strong1!pass"})
		assert.ErrorIs(t, err, domain.ErrInvalidInput, "email %q", email)
	}
}

func TestRegister_MailFailureIsNonFatal(t *testing.T) {
	t.Parallel()
	svc, _, mailer := newTestService(t)
	mailer.fail = true

	user, err := svc.Register(context.Background(), dto.RegisterRequest{Email: "m@x.com", Password: "Strong1!pass"})
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
}

func TestLogin_InvalidCredentials_SameErrorForBothCases(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestService(t)

	register(t, svc, "u@x.com", "Strong1!pass")

	_, errUnknown := svc.Login(context.Background(), "nobody@x.com", "Strong1!pass")
	_, errWrongPw := svc.Login(context.Background(), "u@x.com", "wrong-password1")

	assert.ErrorIs(t, errUnknown, domain.ErrInvalidCredentials)
	assert.ErrorIs(t, errWrongPw, domain.ErrInvalidCredentials)
	assert.Equal(t, errUnknown.Error(), errWrongPw.Error())
}

func TestLogin_NotVerified(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestService(t)

	register(t, svc, "u@x.com", "Strong1!pass")

	_, err := svc.Login(context.Background(), "u@x.com", "Strong1!pass")
	assert.ErrorIs(t, err, domain.ErrNotVerified)
}

func TestVerifyEmail_ThenLogin(t *testing.T) {
	t.Parallel()
	svc, _, mailer := newTestService(t)

	register(t, svc, "u@x.com", "Strong1!pass")
	token := mailer.tokenFromLink(t, mailer.verifyLinks, "u@x.com")

	user, err := svc.VerifyEmail(context.Background(), token)
	require.NoError(t, err)
	assert.True(t, user.IsVerified())

	pair, err := svc.Login(context.Background(), "U@x.com", "Strong1!pass")
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)
}

func TestVerifyEmail_AlreadyVerified(t *testing.T) {
	t.Parallel()
	svc, _, mailer := newTestService(t)

	register(t, svc, "u@x.com", "Strong1!pass")
	token := mailer.tokenFromLink(t, mailer.verifyLinks, "u@x.com")

	_, err := svc.VerifyEmail(context.Background(), token)
	require.NoError(t, err)

	// stateless token is still signature-valid; the verified flag is the guard
	_, err = svc.VerifyEmail(context.Background(), token)
	assert.ErrorIs(t, err, domain.ErrAlreadyVerified)
}

func TestVerifyEmail_AccessTokenRejected(t *testing.T) {
	t.Parallel()
	svc, _, mailer := newTestService(t)

	register(t, svc, "u@x.com", "Strong1!pass")
	token := mailer.tokenFromLink(t, mailer.verifyLinks, "u@x.com")
	_, err := svc.VerifyEmail(context.Background(), token)
	require.NoError(t, err)

	pair, err := svc.Login(context.Background(), "u@x.com", "Strong1!pass")
	require.NoError(t, err)

	_, err = svc.VerifyEmail(context.Background(), pair.AccessToken)
	assert.ErrorIs(t, err, domain.ErrPurposeMismatch)
}

func loginVerified(t *testing.T, svc AuthService, mailer *fakeMailer, email, password string) *dto.TokenPairResponse {
	t.Helper()
	register(t, svc, email, password)
	token := mailer.tokenFromLink(t, mailer.verifyLinks, email)
	_, err := svc.VerifyEmail(context.Background(), token)
	require.NoError(t, err)
	pair, err := svc.Login(context.Background(), email, password)
	require.NoError(t, err)
	return pair
}

func TestRefresh_RotatesAndRevokesOldToken(t *testing.T) {
	t.Parallel()
	svc, _, mailer := newTestService(t)

	pair := loginVerified(t, svc, mailer, "u@x.com", "Strong1!pass")

	next, err := svc.Refresh(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, next.AccessToken)
	assert.NotEqual(t, pair.RefreshToken, next.RefreshToken)

	// superseded token is permanently rejected even though not expired
	_, err = svc.Refresh(context.Background(), pair.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrRevokedToken)

	// the rotated token still works
	_, err = svc.Refresh(context.Background(), next.RefreshToken)
	assert.NoError(t, err)
}

func TestRefresh_AccessTokenRejected(t *testing.T) {
	t.Parallel()
	svc, _, mailer := newTestService(t)

	pair := loginVerified(t, svc, mailer, "u@x.com", "Strong1!pass")

	_, err := svc.Refresh(context.Background(), pair.AccessToken)
	assert.ErrorIs(t, err, domain.ErrPurposeMismatch)
}

func TestRefresh_GarbageToken(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestService(t)

	_, err := svc.Refresh(context.Background(), "garbage")
	assert.ErrorIs(t, err, domain.ErrInvalidSignature)
}

func TestAuthorize(t *testing.T) {
	t.Parallel()
	svc, _, mailer := newTestService(t)

	pair := loginVerified(t, svc, mailer, "u@x.com", "Strong1!pass")

	user, err := svc.Authorize(context.Background(), pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u@x.com", user.Email)

	_, err = svc.Authorize(context.Background(), pair.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrPurposeMismatch)
}

func TestForgotAndResetPassword(t *testing.T) {
	t.Parallel()
	svc, repo, mailer := newTestService(t)

	pair := loginVerified(t, svc, mailer, "u@x.com", "Strong1!pass")

	// unknown address does not leak account existence
	require.NoError(t, svc.ForgotPassword(context.Background(), "nobody@x.com"))
	assert.NotContains(t, mailer.resetLinks, "nobody@x.com")

	require.NoError(t, svc.ForgotPassword(context.Background(), "u@x.com"))
	token := mailer.tokenFromLink(t, mailer.resetLinks, "u@x.com")

	require.NoError(t, svc.ResetPassword(context.Background(), token, "NewStrong2!pw"))

	// old password is gone, new one works
	_, err := svc.Login(context.Background(), "u@x.com", "Strong1!pass")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	_, err = svc.Login(context.Background(), "u@x.com", "NewStrong2!pw")
	assert.NoError(t, err)

	// reset cleared the fingerprint, so the pre-reset refresh token is dead
	_, err = svc.Refresh(context.Background(), pair.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrRevokedToken)

	// fingerprint at rest is a hash, not the token itself
	stored, err := repo.FindUserByEmail(context.Background(), "u@x.com")
	require.NoError(t, err)
	assert.NotContains(t, stored.RefreshTokenFingerprint, ".")
}

func TestResetPassword_WeakPasswordRejected(t *testing.T) {
	t.Parallel()
	svc, _, mailer := newTestService(t)

	loginVerified(t, svc, mailer, "u@x.com", "Strong1!pass")
	require.NoError(t, svc.ForgotPassword(context.Background(), "u@x.com"))
	token := mailer.tokenFromLink(t, mailer.resetLinks, "u@x.com")

	err := svc.ResetPassword(context.Background(), token, "weak")
	assert.ErrorIs(t, err, domain.ErrWeakPassword)
}

func TestFingerprintMatchesSha256OfJTI(t *testing.T) {
	t.Parallel()
	svc, repo, mailer := newTestService(t)

	pair := loginVerified(t, svc, mailer, "u@x.com", "Strong1!pass")

	auth := helper.SetupAuth("test-secret")
	claims, err := auth.VerifyToken(pair.RefreshToken, helper.PurposeRefresh)
	require.NoError(t, err)

	stored, err := repo.FindUserByEmail(context.Background(), "u@x.com")
	require.NoError(t, err)
	assert.Equal(t, utils.Sha256Hex(claims.ID), stored.RefreshTokenFingerprint)
}
