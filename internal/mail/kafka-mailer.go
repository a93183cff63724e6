package mail

import (
	"context"
	"encoding/json"

	"github.com/contactbook/backend/internal/dto"
	"github.com/contactbook/backend/internal/interfaces"
)

// Event keys consumed by the downstream mail worker.
const (
	KeyVerifyEmail   = "user.verify_email"
	KeyResetPassword = "user.reset_password"
)

// KafkaMailer hands links off to the mail worker via the message queue.
type KafkaMailer struct {
	producer interfaces.ProducerHandler
}

func NewKafkaMailer(producer interfaces.ProducerHandler) *KafkaMailer {
	return &KafkaMailer{producer: producer}
}

func (m *KafkaMailer) SendVerification(ctx context.Context, userID uint, to, link string) error {
	payload, err := json.Marshal(dto.VerifyEmailEvent{
		UserID: userID,
		Email:  to,
		Link:   link,
	})
	if err != nil {
		return err
	}
	return m.producer.PublishMessage([]byte(KeyVerifyEmail), payload)
}

func (m *KafkaMailer) SendPasswordReset(ctx context.Context, userID uint, to, link string) error {
	payload, err := json.Marshal(dto.ResetPasswordEvent{
		UserID: userID,
		Email:  to,
		Link:   link,
	})
	if err != nil {
		return err
	}
	return m.producer.PublishMessage([]byte(KeyResetPassword), payload)
}
