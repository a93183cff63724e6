package helper

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/contactbook/backend/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// TokenPurpose restricts which operation may accept a token.
type TokenPurpose string

const (
	PurposeAccess        TokenPurpose = "access"
	PurposeRefresh       TokenPurpose = "refresh"
	PurposeEmailVerify   TokenPurpose = "email_verify"
	PurposePasswordReset TokenPurpose = "password_reset"
)

type TokenClaims struct {
	jwt.RegisteredClaims
	Purpose TokenPurpose `json:"purpose"`
}

// UserID parses the subject claim back into a user id.
func (c *TokenClaims) UserID() (uint, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidSignature
	}
	return uint(id), nil
}

// Auth signs and verifies tokens and wraps the password hashing policy.
// The secret is injected once at construction and never logged.
type Auth struct {
	secret []byte
}

func SetupAuth(secret string) Auth {
	return Auth{secret: []byte(secret)}
}

// IssueToken returns the signed token and its jti. The jti of refresh tokens
// is the rotation anchor: its hash is stored on the user row.
func (a Auth) IssueToken(userID uint, purpose TokenPurpose, ttl time.Duration) (string, string, error) {
	now := time.Now()
	jti := uuid.NewString()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Purpose: purpose,
	})

	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", "", err
	}
	return signed, jti, nil
}

// VerifyToken accepts both "Bearer <token>" and a bare token string.
func (a Auth) VerifyToken(tokenString string, expected TokenPurpose) (*TokenClaims, error) {
	tokenString = StripBearer(tokenString)
	if tokenString == "" {
		return nil, domain.ErrInvalidSignature
	}

	claims := &TokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, domain.ErrInvalidSignature
		}
		return a.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrExpiredToken
		}
		return nil, domain.ErrInvalidSignature
	}
	if !token.Valid {
		return nil, domain.ErrInvalidSignature
	}
	if claims.Purpose != expected {
		return nil, domain.ErrPurposeMismatch
	}
	return claims, nil
}

func StripBearer(tokenString string) string {
	tokenString = strings.TrimSpace(tokenString)
	if strings.HasPrefix(strings.ToLower(tokenString), "bearer ") {
		parts := strings.SplitN(tokenString, " ", 2)
		if len(parts) != 2 {
			return ""
		}
		tokenString = strings.TrimSpace(parts[1])
	}
	return tokenString
}

func (a Auth) HashPassword(plain string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// VerifyPassword returns false on any mismatch, including a malformed hash.
func (a Auth) VerifyPassword(plain, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain)) == nil
}
