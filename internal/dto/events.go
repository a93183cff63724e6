package dto

// Events published to the mail worker queue.

type VerifyEmailEvent struct {
	UserID    uint   `json:"user_id"`
	Email     string `json:"email"`
	Link      string `json:"link"`
	ExpiresAt string `json:"expires_at,omitempty"`
}

type ResetPasswordEvent struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	Link   string `json:"link"`
}
