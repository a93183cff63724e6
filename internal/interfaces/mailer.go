package interfaces

import "context"

// Mailer dispatches out-of-band links to a user. Delivery failures are
// reported to the caller but never fail the surrounding operation.
type Mailer interface {
	SendVerification(ctx context.Context, userID uint, to, link string) error
	SendPasswordReset(ctx context.Context, userID uint, to, link string) error
}
