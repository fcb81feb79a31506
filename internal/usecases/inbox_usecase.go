package usecases

import (
	"context"
	"encoding/json"
	"regexp"

	"renewal_notifier/internal/apperrors"
	"renewal_notifier/internal/entities"

	"github.com/google/uuid"
)

const (
	defaultNotificationLimit = 50
	maxNotificationLimit     = 200
	maxPreferenceBytes       = 4 << 10
)

var preferenceKey = regexp.MustCompile(`^[a-zA-Z0-9_.-]{1,64}$`)

// InboxUsecase serves disconnect alerts and per-user preference flags.
type InboxUsecase struct {
	notifications NotificationStore
	preferences   PreferenceStore
}

func NewInboxUsecase(notifications NotificationStore, preferences PreferenceStore) *InboxUsecase {
	return &InboxUsecase{notifications: notifications, preferences: preferences}
}

func (uc *InboxUsecase) Notifications(ctx context.Context, userID uuid.UUID, limit int) ([]entities.WhatsAppNotification, error) {
	if limit <= 0 {
		limit = defaultNotificationLimit
	}
	if limit > maxNotificationLimit {
		limit = maxNotificationLimit
	}
	return uc.notifications.ListByUser(ctx, userID, limit)
}

func (uc *InboxUsecase) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	return uc.notifications.MarkRead(ctx, userID, id)
}

// Preference returns the stored value or JSON null.
func (uc *InboxUsecase) Preference(ctx context.Context, userID uuid.UUID, key string) (json.RawMessage, error) {
	if !preferenceKey.MatchString(key) {
		return nil, apperrors.Validation("chave de preferência inválida")
	}
	value, err := uc.preferences.Get(ctx, userID, key)
	if err != nil {
		return nil, err
	}
	if value == nil {
		return json.RawMessage("null"), nil
	}
	return value, nil
}

func (uc *InboxUsecase) SetPreference(ctx context.Context, userID uuid.UUID, key string, value json.RawMessage) error {
	if !preferenceKey.MatchString(key) {
		return apperrors.Validation("chave de preferência inválida")
	}
	if len(value) == 0 || len(value) > maxPreferenceBytes || !json.Valid(value) {
		return apperrors.Validation("valor de preferência inválido")
	}
	return uc.preferences.Set(ctx, userID, key, value)
}
