package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"renewal_notifier/internal/entities"
	"renewal_notifier/internal/interfaces"

	"github.com/rs/zerolog/log"
)

var disconnectEvents = map[string]struct{}{
	"disconnect":        {},
	"disconnected":      {},
	"connection.update": {},
	"logout":            {},
	"close":             {},
	"status.instance":   {},
}

var disconnectStates = map[string]struct{}{
	"disconnected": {},
	"close":        {},
	"logout":       {},
}

// WebhookEvent is a provider callback with its field aliases folded.
type WebhookEvent struct {
	Event    string
	Instance string
	State    string
}

type webhookFields struct {
	Event        string `json:"event"`
	Type         string `json:"type"`
	Instance     any    `json:"instance"`
	InstanceName string `json:"instanceName"`
	State        any    `json:"state"`
	Status       any    `json:"status"`
}

// ParseWebhookEvent normalizes a raw callback body. Top-level fields win over
// the nested data object.
func ParseWebhookEvent(body []byte) (WebhookEvent, error) {
	var payload struct {
		webhookFields
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return WebhookEvent{}, fmt.Errorf("decode webhook: %w", err)
	}
	ev := payload.webhookFields.normalize()

	if len(payload.Data) > 0 && payload.Data[0] == '{' {
		var nested webhookFields
		if err := json.Unmarshal(payload.Data, &nested); err == nil {
			inner := nested.normalize()
			if ev.Event == "" {
				ev.Event = inner.Event
			}
			if ev.Instance == "" {
				ev.Instance = inner.Instance
			}
			if ev.State == "" {
				ev.State = inner.State
			}
		}
	}
	return ev, nil
}

func (f webhookFields) normalize() WebhookEvent {
	return WebhookEvent{
		Event:    firstNonEmpty(f.Event, f.Type),
		Instance: firstNonEmpty(instanceName(f.Instance), f.InstanceName),
		State:    firstNonEmpty(asString(f.State), asString(f.Status)),
	}
}

// instanceName accepts a plain string or an object carrying a name or id.
func instanceName(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case map[string]any:
		for _, k := range []string{"name", "instanceName", "id"} {
			if s, ok := t[k].(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

func asString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

// Transition is the connection change an event implies.
type Transition int

const (
	TransitionNone Transition = iota
	TransitionConnected
	TransitionDisconnected
)

// Classify maps the event to a transition. An explicit connected state
// outranks a disconnect-looking event name.
func (e WebhookEvent) Classify() Transition {
	event := strings.ToLower(e.Event)
	state := strings.ToLower(e.State)

	if state == "connected" || state == "open" {
		return TransitionConnected
	}
	if _, ok := disconnectStates[state]; ok {
		return TransitionDisconnected
	}
	if _, ok := disconnectEvents[event]; ok {
		return TransitionDisconnected
	}
	if strings.Contains(event, "connected") || strings.Contains(event, "ready") {
		return TransitionConnected
	}
	return TransitionNone
}

// ConnectionTracker applies provider callbacks to instance connection state.
type ConnectionTracker struct {
	instances     InstanceStore
	notifications NotificationStore
	alerter       interfaces.Alerter
	now           func() time.Time
}

func NewConnectionTracker(instances InstanceStore, notifications NotificationStore, alerter interfaces.Alerter) *ConnectionTracker {
	return &ConnectionTracker{
		instances:     instances,
		notifications: notifications,
		alerter:       alerter,
		now:           time.Now,
	}
}

// Handle applies ev. Events without an instance or for unknown instances
// are ignored.
func (t *ConnectionTracker) Handle(ctx context.Context, ev WebhookEvent) (Transition, error) {
	if ev.Instance == "" {
		return TransitionNone, nil
	}
	inst, err := t.instances.GetByKey(ctx, ev.Instance)
	if err != nil {
		return TransitionNone, fmt.Errorf("lookup instance: %w", err)
	}
	if inst == nil {
		log.Debug().Str("instance", ev.Instance).Msg("webhook for unknown instance ignored")
		return TransitionNone, nil
	}

	transition := ev.Classify()
	switch transition {
	case TransitionDisconnected:
		return transition, t.markDisconnected(ctx, inst, ev)
	case TransitionConnected:
		if err := t.instances.UpdateConnectionStatus(ctx, inst.ID, entities.ConnectionConnected); err != nil {
			return transition, fmt.Errorf("mark connected: %w", err)
		}
		log.Info().Str("instance_id", inst.ID.String()).Msg("WhatsApp instance connected")
	}
	return transition, nil
}

func (t *ConnectionTracker) markDisconnected(ctx context.Context, inst *entities.MessagingInstance, ev WebhookEvent) error {
	if err := t.instances.UpdateConnectionStatus(ctx, inst.ID, entities.ConnectionDisconnected); err != nil {
		return fmt.Errorf("mark disconnected: %w", err)
	}

	metadata, err := json.Marshal(map[string]string{
		"event":     ev.Event,
		"instance":  ev.Instance,
		"state":     ev.State,
		"timestamp": t.now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	n := &entities.WhatsAppNotification{
		UserID:     inst.UserID,
		InstanceID: inst.ID,
		Title:      "WhatsApp desconectado",
		Message: fmt.Sprintf("Sua instância %s foi desconectada. Leia o QR Code novamente para "+
			"voltar a enviar lembretes aos clientes.", ev.Instance),
		Metadata: metadata,
	}
	if err := t.notifications.Insert(ctx, n); err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	log.Warn().Str("instance_id", inst.ID.String()).Str("event", ev.Event).Str("state", ev.State).
		Msg("WhatsApp instance disconnected")

	if t.alerter != nil {
		if err := t.alerter.Alert(ctx, n); err != nil {
			log.Warn().Err(err).Str("instance_id", inst.ID.String()).Msg("failed to forward disconnect alert")
		}
	}
	return nil
}
