package usecases

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"renewal_notifier/internal/apperrors"
	"renewal_notifier/internal/entities"
	"renewal_notifier/internal/interfaces"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	minPhoneDigits = 10
	maxPhoneDigits = 15
)

// MessagingUsecase covers ad-hoc sends and instance linking.
type MessagingUsecase struct {
	instances   InstanceStore
	usage       UsageStore
	quota       *QuotaEnforcer
	messenger   interfaces.Messenger
	audit       *AuditRecorder
	sendTimeout time.Duration
	now         func() time.Time
}

func NewMessagingUsecase(instances InstanceStore, usage UsageStore, quota *QuotaEnforcer, messenger interfaces.Messenger, audit *AuditRecorder, sendTimeout time.Duration) *MessagingUsecase {
	if sendTimeout <= 0 {
		sendTimeout = 15 * time.Second
	}
	return &MessagingUsecase{
		instances:   instances,
		usage:       usage,
		quota:       quota,
		messenger:   messenger,
		audit:       audit,
		sendTimeout: sendTimeout,
		now:         time.Now,
	}
}

// Send delivers message to phone through the caller's linked instance and
// returns the provider's response body.
func (uc *MessagingUsecase) Send(ctx context.Context, callerID uuid.UUID, phone, message string) (json.RawMessage, error) {
	if strings.TrimSpace(phone) == "" || strings.TrimSpace(message) == "" {
		return nil, apperrors.Validation("telefone e mensagem são obrigatórios")
	}
	inst, err := uc.instances.GetByUserID(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if inst == nil || !inst.IsActive {
		return nil, apperrors.Validation("nenhuma instância do WhatsApp vinculada")
	}

	number := CleanPhone(phone)
	if len(number) < minPhoneDigits || len(number) > maxPhoneDigits {
		return nil, apperrors.Unprocessable("número de telefone inválido")
	}

	actor, err := uc.quota.ResolveActor(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if err := uc.quota.RequireMessages(ctx, actor); err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, uc.sendTimeout)
	defer cancel()
	body, err := uc.messenger.SendText(callCtx, inst, number, message)
	if err != nil {
		log.Warn().Err(err).Str("instance_id", inst.ID.String()).Msg("manual send failed")
		return nil, err
	}

	if err := uc.usage.IncrementSent(ctx, callerID, uc.now()); err != nil {
		log.Warn().Err(err).Str("user_id", callerID.String()).Msg("failed to count usage")
	}
	return body, nil
}

// LinkInstance stores the provider credentials for the caller's channel.
func (uc *MessagingUsecase) LinkInstance(ctx context.Context, callerID uuid.UUID, key, token string) (*entities.MessagingInstance, error) {
	key, token = strings.TrimSpace(key), strings.TrimSpace(token)
	if key == "" || token == "" {
		return nil, apperrors.Validation("instância e token são obrigatórios")
	}
	inst, err := uc.instances.Link(ctx, callerID, key, token)
	if err != nil {
		return nil, err
	}
	uc.audit.Record(callerID, "link_instance", strPtr("whatsapp_instance"), strPtr(inst.ID.String()),
		map[string]string{"instance_key": key})
	return inst, nil
}

func (uc *MessagingUsecase) UnlinkInstance(ctx context.Context, callerID uuid.UUID) error {
	if err := uc.instances.Unlink(ctx, callerID); err != nil {
		return err
	}
	uc.audit.Record(callerID, "unlink_instance", strPtr("whatsapp_instance"), nil, nil)
	return nil
}

// PairingCode asks the provider to start pairing and returns the QR payload.
func (uc *MessagingUsecase) PairingCode(ctx context.Context, callerID uuid.UUID) (string, error) {
	inst, err := uc.instances.GetByUserID(ctx, callerID)
	if err != nil {
		return "", err
	}
	if inst == nil {
		return "", apperrors.NotFound("nenhuma instância do WhatsApp vinculada")
	}
	callCtx, cancel := context.WithTimeout(ctx, uc.sendTimeout)
	defer cancel()
	return uc.messenger.Connect(callCtx, inst)
}
