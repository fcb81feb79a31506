package interfaces

import (
	"context"
	"encoding/json"
	"time"

	"renewal_notifier/internal/entities"
)

// Messenger is the external WhatsApp provider.
type Messenger interface {
	SendText(ctx context.Context, instance *entities.MessagingInstance, number, text string) (json.RawMessage, error)
	Connect(ctx context.Context, instance *entities.MessagingInstance) (string, error)
}

// Lease grants a named run-scoped lock. Acquire returns apperrors.ErrLeaseHeld
// when another holder owns an unexpired lease.
type Lease interface {
	Acquire(ctx context.Context, name string, ttl time.Duration) (LeaseHold, error)
}

// LeaseHold is an acquired lease. Renew moves the expiry to now+ttl and
// returns apperrors.ErrLeaseLost once the lease expired or changed hands.
// Release only frees the lease while this holder still owns it.
type LeaseHold interface {
	Renew(ctx context.Context, ttl time.Duration) error
	Release(ctx context.Context) error
}

// Alerter forwards a user alert to an operator channel.
type Alerter interface {
	Alert(ctx context.Context, n *entities.WhatsAppNotification) error
}
