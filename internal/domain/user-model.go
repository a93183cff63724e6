package domain

import "time"

type User struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`

	EmailVerifiedAt *time.Time `json:"email_verified_at,omitempty"`

	// sha256 of the jti of the last accepted refresh token; empty until the
	// first login. Rotation rejects any refresh token whose jti hashes to
	// something else.
	RefreshTokenFingerprint string `json:"-"`

	AvatarURL string `json:"avatar_url,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *User) IsVerified() bool {
	return u.EmailVerifiedAt != nil
}
