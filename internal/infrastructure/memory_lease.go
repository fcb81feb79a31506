package infrastructure

import (
	"context"
	"sync"
	"time"

	"renewal_notifier/internal/apperrors"
	"renewal_notifier/internal/interfaces"
)

// MemoryLease is a process-local lease. It guards a single replica only.
type MemoryLease struct {
	mu     sync.Mutex
	held   map[string]leaseEntry
	nextID uint64
	now    func() time.Time
}

type leaseEntry struct {
	id        uint64
	expiresAt time.Time
}

func NewMemoryLease() *MemoryLease {
	return &MemoryLease{
		held: make(map[string]leaseEntry),
		now:  time.Now,
	}
}

func (m *MemoryLease) Acquire(ctx context.Context, name string, ttl time.Duration) (interfaces.LeaseHold, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if entry, ok := m.held[name]; ok && now.Before(entry.expiresAt) {
		return nil, apperrors.ErrLeaseHeld
	}
	m.nextID++
	m.held[name] = leaseEntry{id: m.nextID, expiresAt: now.Add(ttl)}
	return &memoryHold{lease: m, name: name, id: m.nextID}, nil
}

type memoryHold struct {
	lease *MemoryLease
	name  string
	id    uint64
}

func (h *memoryHold) Renew(_ context.Context, ttl time.Duration) error {
	m := h.lease
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	entry, ok := m.held[h.name]
	if !ok || entry.id != h.id || !now.Before(entry.expiresAt) {
		return apperrors.ErrLeaseLost
	}
	entry.expiresAt = now.Add(ttl)
	m.held[h.name] = entry
	return nil
}

func (h *memoryHold) Release(context.Context) error {
	m := h.lease
	m.mu.Lock()
	defer m.mu.Unlock()
	if entry, ok := m.held[h.name]; ok && entry.id == h.id {
		delete(m.held, h.name)
	}
	return nil
}
