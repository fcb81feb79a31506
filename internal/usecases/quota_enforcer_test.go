package usecases

import (
	"context"
	"errors"
	"testing"
	"time"

	"renewal_notifier/internal/apperrors"
	"renewal_notifier/internal/entities"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type quotaFixture struct {
	roles     *fakeRoles
	profiles  *fakeProfiles
	resellers *fakeResellers
	clients   *fakeClients
	usage     *fakeUsage
	quota     *QuotaEnforcer
}

func newQuotaFixture() *quotaFixture {
	f := &quotaFixture{
		roles:     &fakeRoles{},
		profiles:  &fakeProfiles{byUser: map[uuid.UUID]*entities.Profile{}},
		resellers: &fakeResellers{byUser: map[uuid.UUID]*entities.Reseller{}, byOwner: map[uuid.UUID]int{}},
		clients:   newFakeClients(),
		usage:     &fakeUsage{},
	}
	f.quota = NewQuotaEnforcer(f.roles, f.profiles, f.resellers, f.clients, f.usage)
	return f
}

// addReseller registers a reseller login under master with n clients.
func (f *quotaFixture) addReseller(master uuid.UUID, limits entities.ResellerLimits, n int) (uuid.UUID, *entities.Reseller) {
	login := uuid.New()
	res := &entities.Reseller{ID: uuid.New(), OwnerID: master, UserID: &login, Limits: limits}
	f.roles.grant(login, entities.RoleReseller, nil)
	f.resellers.byUser[login] = res
	f.resellers.byOwner[master]++
	for i := 0; i < n; i++ {
		c := entities.Client{ID: uuid.New(), UserID: master, ResellerID: &res.ID, ExpirationDate: time.Now()}
		f.clients.clients[c.ID] = &c
	}
	return login, res
}

func (f *quotaFixture) addDirectClients(owner uuid.UUID, n int) {
	for i := 0; i < n; i++ {
		c := entities.Client{ID: uuid.New(), UserID: owner, ExpirationDate: time.Now()}
		f.clients.clients[c.ID] = &c
	}
}

func TestQuota_ResellerAtLimit(t *testing.T) {
	ctx := context.Background()
	f := newQuotaFixture()
	master := uuid.New()
	login, _ := f.addReseller(master, entities.ResellerLimits{MaxClients: 50}, 50)

	actor, err := f.quota.ResolveActor(ctx, login)
	require.NoError(t, err)
	require.True(t, actor.IsReseller())

	status, err := f.quota.Check(ctx, actor)
	require.NoError(t, err)
	assert.False(t, status.CanCreateClient)
	assert.False(t, status.CanCreateReseller)
	assert.Equal(t, 50, status.CurrentClients)
	assert.Equal(t, 50, status.MaxClients)
	require.NotEmpty(t, status.Messages)
	assert.Contains(t, status.Messages[0], "50/50")
}

func TestQuota_ResellerBelowLimit(t *testing.T) {
	ctx := context.Background()
	f := newQuotaFixture()
	login, _ := f.addReseller(uuid.New(), entities.ResellerLimits{MaxClients: 50}, 49)

	actor, err := f.quota.ResolveActor(ctx, login)
	require.NoError(t, err)
	status, err := f.quota.Check(ctx, actor)
	require.NoError(t, err)
	assert.True(t, status.CanCreateClient)
	assert.False(t, status.CanCreateReseller)
}

func TestQuota_ResellerDefaultsWhenLimitsMissing(t *testing.T) {
	ctx := context.Background()
	f := newQuotaFixture()
	login, _ := f.addReseller(uuid.New(), entities.ResellerLimits{}, 10)

	actor, _ := f.quota.ResolveActor(ctx, login)
	status, err := f.quota.Check(ctx, actor)
	require.NoError(t, err)
	assert.Equal(t, entities.DefaultResellerMaxClients, status.MaxClients)
	assert.True(t, status.CanCreateClient)
}

func TestQuota_MasterLimitsIndependent(t *testing.T) {
	ctx := context.Background()
	f := newQuotaFixture()
	master := uuid.New()
	f.roles.grant(master, entities.RolePanelAdmin, nil)
	f.profiles.byUser[master] = &entities.Profile{UserID: master, Limits: entities.MasterLimits{MaxClients: 3, MaxResellers: 1}}
	f.addDirectClients(master, 2)
	f.addReseller(master, entities.ResellerLimits{}, 5)

	actor, err := f.quota.ResolveActor(ctx, master)
	require.NoError(t, err)
	status, err := f.quota.Check(ctx, actor)
	require.NoError(t, err)

	assert.Equal(t, 2, status.CurrentClients, "reseller clients do not count against the master")
	assert.True(t, status.CanCreateClient)
	assert.Equal(t, 1, status.CurrentResellers)
	assert.False(t, status.CanCreateReseller)
	assert.Len(t, status.Messages, 1)
}

func TestQuota_MasterWithoutProfileUsesDefaults(t *testing.T) {
	ctx := context.Background()
	f := newQuotaFixture()
	master := uuid.New()
	f.roles.grant(master, entities.RolePanelAdmin, nil)

	actor, _ := f.quota.ResolveActor(ctx, master)
	status, err := f.quota.Check(ctx, actor)
	require.NoError(t, err)
	assert.Equal(t, entities.DefaultMasterMaxClients, status.MaxClients)
	assert.Equal(t, entities.DefaultMasterMaxResellers, status.MaxResellers)
}

func TestQuota_OtherRolesUnrestricted(t *testing.T) {
	ctx := context.Background()
	f := newQuotaFixture()
	admin := uuid.New()
	f.roles.grant(admin, entities.RoleUser, nil)
	f.roles.grant(admin, entities.RoleSuperAdmin, nil)

	actor, err := f.quota.ResolveActor(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, entities.RoleSuperAdmin, actor.Role, "highest active role wins")

	status, err := f.quota.Check(ctx, actor)
	require.NoError(t, err)
	assert.True(t, status.CanCreateClient)
	assert.True(t, status.CanCreateReseller)

	nobody, err := f.quota.ResolveActor(ctx, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, entities.RoleUser, nobody.Role)
}

func TestQuota_MonthlyMessages(t *testing.T) {
	ctx := context.Background()
	f := newQuotaFixture()
	login, _ := f.addReseller(uuid.New(), entities.ResellerLimits{MaxMessagesMonth: 2}, 0)
	actor, _ := f.quota.ResolveActor(ctx, login)

	require.NoError(t, f.quota.RequireMessages(ctx, actor))
	f.usage.IncrementSent(ctx, login, time.Now())
	f.usage.IncrementSent(ctx, login, time.Now())

	mq, err := f.quota.CheckMessages(ctx, actor)
	require.NoError(t, err)
	assert.Equal(t, 2, mq.Sent)
	assert.False(t, mq.Allowed)
	assert.True(t, errors.Is(f.quota.RequireMessages(ctx, actor), apperrors.ErrQuotaExceeded))

	master := uuid.New()
	f.roles.grant(master, entities.RolePanelAdmin, nil)
	masterActor, _ := f.quota.ResolveActor(ctx, master)
	assert.NoError(t, f.quota.RequireMessages(ctx, masterActor), "masters have no monthly cap")
}
