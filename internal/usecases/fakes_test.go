package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"renewal_notifier/internal/apperrors"
	"renewal_notifier/internal/entities"
	"renewal_notifier/internal/interfaces"
	"renewal_notifier/internal/repository"

	"github.com/google/uuid"
)

type fakeRoles struct {
	byUser map[uuid.UUID][]entities.RoleAssignment
}

func (f *fakeRoles) ListActive(_ context.Context, userID uuid.UUID) ([]entities.RoleAssignment, error) {
	return f.byUser[userID], nil
}

func (f *fakeRoles) grant(userID uuid.UUID, role entities.Role, tenant *uuid.UUID) {
	if f.byUser == nil {
		f.byUser = map[uuid.UUID][]entities.RoleAssignment{}
	}
	f.byUser[userID] = append(f.byUser[userID], entities.RoleAssignment{
		ID: uuid.New(), UserID: userID, Role: role, TenantID: tenant, IsActive: true,
	})
}

type fakeProfiles struct {
	byUser map[uuid.UUID]*entities.Profile
}

func (f *fakeProfiles) GetByUserID(_ context.Context, userID uuid.UUID) (*entities.Profile, error) {
	return f.byUser[userID], nil
}

type fakeResellers struct {
	byUser  map[uuid.UUID]*entities.Reseller
	byOwner map[uuid.UUID]int
}

func (f *fakeResellers) GetByUserID(_ context.Context, userID uuid.UUID) (*entities.Reseller, error) {
	return f.byUser[userID], nil
}

func (f *fakeResellers) CountByOwner(_ context.Context, ownerID uuid.UUID) (int, error) {
	return f.byOwner[ownerID], nil
}

type fakeTenants struct {
	known map[uuid.UUID]bool
}

func (f *fakeTenants) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	return f.known[id], nil
}

type fakeClients struct {
	mu      sync.Mutex
	clients map[uuid.UUID]*entities.Client
	listErr map[uuid.UUID]error
}

func newFakeClients(cs ...entities.Client) *fakeClients {
	f := &fakeClients{clients: map[uuid.UUID]*entities.Client{}}
	for i := range cs {
		c := cs[i]
		f.clients[c.ID] = &c
	}
	return f
}

func (f *fakeClients) CountByReseller(_ context.Context, resellerID uuid.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.clients {
		if c.ResellerID != nil && *c.ResellerID == resellerID {
			n++
		}
	}
	return n, nil
}

func (f *fakeClients) CountDirect(_ context.Context, userID uuid.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.clients {
		if c.UserID == userID && c.ResellerID == nil {
			n++
		}
	}
	return n, nil
}

func (f *fakeClients) CreateWithinLimit(ctx context.Context, c *entities.Client, limit int) error {
	var count int
	if c.ResellerID != nil {
		count, _ = f.CountByReseller(ctx, *c.ResellerID)
	} else {
		count, _ = f.CountDirect(ctx, c.UserID)
	}
	if limit > 0 && count >= limit {
		return apperrors.QuotaExceeded("limite de clientes atingido")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	c.ID = uuid.New()
	cp := *c
	f.clients[c.ID] = &cp
	return nil
}

func (f *fakeClients) GetByID(_ context.Context, id uuid.UUID) (*entities.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.clients[id]
	if !ok {
		return nil, apperrors.NotFound("cliente não encontrado")
	}
	cp := *c
	return &cp, nil
}

func (f *fakeClients) UpdateExpiration(_ context.Context, id uuid.UUID, expiration time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clients[id].ExpirationDate = expiration
	return nil
}

func (f *fakeClients) SetSuspended(_ context.Context, id uuid.UUID, suspended bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clients[id].IsSuspended = suspended
	return nil
}

func (f *fakeClients) ListDispatchable(_ context.Context, ownerID uuid.UUID, includeResellers bool) ([]entities.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.listErr[ownerID]; err != nil {
		return nil, err
	}
	out := []entities.Client{}
	for _, c := range f.clients {
		if c.UserID != ownerID || c.IsSuspended || c.PhoneNumber() == "" {
			continue
		}
		if c.ResellerID != nil && !includeResellers {
			continue
		}
		out = append(out, *c)
	}
	return out, nil
}

type fakeInstances struct {
	mu        sync.Mutex
	instances map[uuid.UUID]*entities.MessagingInstance
	updates   int
}

func newFakeInstances(insts ...entities.MessagingInstance) *fakeInstances {
	f := &fakeInstances{instances: map[uuid.UUID]*entities.MessagingInstance{}}
	for i := range insts {
		inst := insts[i]
		f.instances[inst.ID] = &inst
	}
	return f
}

func (f *fakeInstances) ListActive(context.Context) ([]entities.MessagingInstance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []entities.MessagingInstance{}
	for _, inst := range f.instances {
		if inst.IsActive {
			out = append(out, *inst)
		}
	}
	return out, nil
}

func (f *fakeInstances) GetByKey(_ context.Context, key string) (*entities.MessagingInstance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, inst := range f.instances {
		if inst.InstanceKey == key {
			cp := *inst
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeInstances) GetByUserID(_ context.Context, userID uuid.UUID) (*entities.MessagingInstance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, inst := range f.instances {
		if inst.UserID == userID {
			cp := *inst
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeInstances) UpdateConnectionStatus(_ context.Context, id uuid.UUID, status entities.ConnectionStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates++
	f.instances[id].ConnectionStatus = &status
	return nil
}

func (f *fakeInstances) Link(_ context.Context, userID uuid.UUID, key, token string) (*entities.MessagingInstance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	inst := &entities.MessagingInstance{ID: uuid.New(), UserID: userID, InstanceKey: key, Token: token, IsActive: true}
	f.instances[inst.ID] = inst
	return inst, nil
}

func (f *fakeInstances) Unlink(_ context.Context, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, inst := range f.instances {
		if inst.UserID == userID {
			delete(f.instances, id)
		}
	}
	return nil
}

func (f *fakeInstances) status(id uuid.UUID) *entities.ConnectionStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.instances[id].ConnectionStatus
}

type templateKey struct {
	user  uuid.UUID
	stage entities.Stage
}

type fakeTemplates struct {
	rows map[templateKey]string
}

func newFakeTemplates() *fakeTemplates {
	return &fakeTemplates{rows: map[templateKey]string{}}
}

func (f *fakeTemplates) Get(_ context.Context, userID uuid.UUID, stage entities.Stage) (*entities.MessageTemplate, error) {
	text, ok := f.rows[templateKey{userID, stage}]
	if !ok {
		return nil, nil
	}
	return &entities.MessageTemplate{UserID: userID, StatusKey: stage, Template: text}, nil
}

func (f *fakeTemplates) Upsert(_ context.Context, userID uuid.UUID, stage entities.Stage, text string) error {
	f.rows[templateKey{userID, stage}] = text
	return nil
}

func (f *fakeTemplates) Delete(_ context.Context, userID uuid.UUID, stage entities.Stage) error {
	delete(f.rows, templateKey{userID, stage})
	return nil
}

func (f *fakeTemplates) ListByUser(_ context.Context, userID uuid.UUID) ([]entities.MessageTemplate, error) {
	out := []entities.MessageTemplate{}
	for k, text := range f.rows {
		if k.user == userID {
			out = append(out, entities.MessageTemplate{UserID: userID, StatusKey: k.stage, Template: text})
		}
	}
	return out, nil
}

type fakeLogs struct {
	mu   sync.Mutex
	rows []entities.MessageLog
}

func (f *fakeLogs) Insert(_ context.Context, entry *entities.MessageLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	entry.ID = uuid.New()
	entry.CreatedAt = time.Now()
	f.rows = append(f.rows, *entry)
	return nil
}

func (f *fakeLogs) HasSent(_ context.Context, clientID uuid.UUID, stage entities.Stage, from, to time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rows {
		if r.ClientID == clientID && r.StatusKey == stage && r.Status == entities.DeliverySent &&
			!r.CreatedAt.Before(from) && r.CreatedAt.Before(to) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeLogs) byStatus(status entities.DeliveryStatus) []entities.MessageLog {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []entities.MessageLog{}
	for _, r := range f.rows {
		if r.Status == status {
			out = append(out, r)
		}
	}
	return out
}

type fakeUsage struct {
	mu   sync.Mutex
	sent map[uuid.UUID]int
}

func (f *fakeUsage) IncrementSent(_ context.Context, userID uuid.UUID, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sent == nil {
		f.sent = map[uuid.UUID]int{}
	}
	f.sent[userID]++
	return nil
}

func (f *fakeUsage) MonthSent(_ context.Context, userID uuid.UUID, _ time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent[userID], nil
}

type fakeAudit struct {
	mu      sync.Mutex
	entries []entities.AuditEntry
	err     error
}

func (f *fakeAudit) Insert(_ context.Context, entry *entities.AuditEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeAudit) actions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []string{}
	for _, e := range f.entries {
		out = append(out, e.Action)
	}
	return out
}

type fakeNotifications struct {
	mu   sync.Mutex
	rows []entities.WhatsAppNotification
}

func (f *fakeNotifications) Insert(_ context.Context, n *entities.WhatsAppNotification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	n.ID = uuid.New()
	f.rows = append(f.rows, *n)
	return nil
}

func (f *fakeNotifications) ListByUser(_ context.Context, userID uuid.UUID, limit int) ([]entities.WhatsAppNotification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []entities.WhatsAppNotification{}
	for _, n := range f.rows {
		if n.UserID == userID && len(out) < limit {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeNotifications) MarkRead(_ context.Context, userID, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.rows {
		if f.rows[i].ID == id && f.rows[i].UserID == userID {
			f.rows[i].IsRead = true
			return nil
		}
	}
	return apperrors.NotFound("notificação não encontrada")
}

type fakePreferences struct {
	values map[string]json.RawMessage
}

func (f *fakePreferences) Get(_ context.Context, userID uuid.UUID, key string) (json.RawMessage, error) {
	return f.values[userID.String()+"/"+key], nil
}

func (f *fakePreferences) Set(_ context.Context, userID uuid.UUID, key string, value json.RawMessage) error {
	if f.values == nil {
		f.values = map[string]json.RawMessage{}
	}
	f.values[userID.String()+"/"+key] = value
	return nil
}

type fakeUsers struct {
	mu       sync.Mutex
	created  []repository.NewAccount
	assigned map[uuid.UUID]entities.Role
	byEmail  map[string]*entities.User
}

func (f *fakeUsers) CreateAccount(_ context.Context, acct repository.NewAccount) (*entities.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.byEmail == nil {
		f.byEmail = map[string]*entities.User{}
	}
	if _, ok := f.byEmail[acct.Email]; ok {
		return nil, apperrors.Conflict("e-mail já cadastrado")
	}
	f.created = append(f.created, acct)
	u := &entities.User{ID: uuid.New(), Email: acct.Email, Name: acct.Name, PasswordHash: acct.PasswordHash}
	f.byEmail[acct.Email] = u
	return u, nil
}

func (f *fakeUsers) AssignFirstRole(_ context.Context, userID uuid.UUID, role entities.Role, _ *repository.NewReseller) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.assigned == nil {
		f.assigned = map[uuid.UUID]entities.Role{}
	}
	if _, ok := f.assigned[userID]; ok {
		return apperrors.Validation("usuário já possui um papel atribuído")
	}
	f.assigned[userID] = role
	return nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*entities.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byEmail[email], nil
}

func (f *fakeUsers) ListProfiles(context.Context) ([]entities.UserProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []entities.UserProfile{}
	for _, u := range f.byEmail {
		out = append(out, entities.UserProfile{ID: u.ID, Email: u.Email, Name: u.Name})
	}
	return out, nil
}

// fakeMessenger fails numbers listed in failures with the given error.
type fakeMessenger struct {
	mu       sync.Mutex
	sent     []string
	calls    int
	failures map[string]error
	delay    time.Duration
	qr       string
}

func (f *fakeMessenger) SendText(ctx context.Context, _ *entities.MessagingInstance, number, text string) (json.RawMessage, error) {
	f.mu.Lock()
	f.calls++
	err := f.failures[number]
	delay := f.delay
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.sent = append(f.sent, number+"|"+text)
	f.mu.Unlock()
	return json.RawMessage(`{"status":"ok"}`), nil
}

func (f *fakeMessenger) Connect(context.Context, *entities.MessagingInstance) (string, error) {
	if f.qr == "" {
		return "", errors.New("no qr")
	}
	return f.qr, nil
}

func (f *fakeMessenger) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeLease struct {
	mu       sync.Mutex
	held     bool
	released int
	renewals int
	renewErr error
}

func (f *fakeLease) Acquire(context.Context, string, time.Duration) (interfaces.LeaseHold, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.held {
		return nil, apperrors.ErrLeaseHeld
	}
	f.held = true
	return fakeHold{f}, nil
}

type fakeHold struct {
	lease *fakeLease
}

func (h fakeHold) Renew(context.Context, time.Duration) error {
	h.lease.mu.Lock()
	defer h.lease.mu.Unlock()
	h.lease.renewals++
	return h.lease.renewErr
}

func (h fakeHold) Release(context.Context) error {
	h.lease.mu.Lock()
	defer h.lease.mu.Unlock()
	h.lease.held = false
	h.lease.released++
	return nil
}

type fakeAlerter struct {
	mu     sync.Mutex
	alerts []entities.WhatsAppNotification
	err    error
}

func (f *fakeAlerter) Alert(_ context.Context, n *entities.WhatsAppNotification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alerts = append(f.alerts, *n)
	return f.err
}

func accountWithHash(email, hash string) repository.NewAccount {
	return repository.NewAccount{Email: email, PasswordHash: hash, Name: "User", Role: entities.RoleUser}
}
