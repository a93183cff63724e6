package services

import (
	"testing"

	"github.com/contactbook/backend/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestValidatePassword(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		password string
		minLen   int
		wantErr  bool
	}{
		{"ok", "Strong1!", 8, false},
		{"exactly min length", "abcdefg1", 8, false},
		{"too short", "Ab1", 8, true},
		{"no digit", "lettersonly", 8, true},
		{"no letter", "1234567890", 8, true},
		{"empty", "", 8, true},
		{"relaxed min length", "abc123", 6, false},
		{"unicode letters count", "пароль123", 8, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password, tt.minLen)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrWeakPassword)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
