package usecases

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"renewal_notifier/internal/entities"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const auditWriteTimeout = 5 * time.Second

// AuditRecorder appends audit entries through a bounded queue. Record never
// blocks; a full queue drops the entry with a log line.
type AuditRecorder struct {
	store AuditStore
	queue chan *entities.AuditEntry

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
	once   sync.Once
}

func NewAuditRecorder(store AuditStore, size int) *AuditRecorder {
	if size < 1 {
		size = 1
	}
	return &AuditRecorder{
		store: store,
		queue: make(chan *entities.AuditEntry, size),
		done:  make(chan struct{}),
	}
}

// Record enqueues an entry. details is marshalled to JSON; nil is allowed.
func (a *AuditRecorder) Record(actorID uuid.UUID, action string, targetType, targetID *string, details any) {
	entry := &entities.AuditEntry{
		ID:         uuid.New(),
		ActorID:    actorID,
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		CreatedAt:  time.Now(),
	}
	if details != nil {
		raw, err := json.Marshal(details)
		if err != nil {
			log.Warn().Err(err).Str("action", action).Msg("audit details not serializable")
		} else {
			entry.Details = raw
		}
	}

	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		log.Warn().Str("action", action).Msg("audit recorder closed, entry dropped")
		return
	}
	select {
	case a.queue <- entry:
	default:
		log.Warn().Str("action", action).Str("actor_id", actorID.String()).Msg("audit queue full, entry dropped")
	}
}

// Start drains the queue until Close is called. Entries still queued at
// Close are flushed before Start returns.
func (a *AuditRecorder) Start(ctx context.Context) {
	defer close(a.done)
	for entry := range a.queue {
		a.write(ctx, entry)
	}
}

// Close stops accepting entries and waits for the flusher, bounded by ctx.
func (a *AuditRecorder) Close(ctx context.Context) error {
	a.once.Do(func() {
		a.mu.Lock()
		a.closed = true
		close(a.queue)
		a.mu.Unlock()
	})
	select {
	case <-a.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *AuditRecorder) write(ctx context.Context, entry *entities.AuditEntry) {
	// queued entries are still written after ctx is cancelled
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditWriteTimeout)
	defer cancel()
	if err := a.store.Insert(writeCtx, entry); err != nil {
		log.Error().Err(err).Str("action", entry.Action).Msg("failed to write audit entry")
	}
}

// strPtr is a helper for optional audit targets.
func strPtr(s string) *string {
	return &s
}
