package service

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/spec-kit/inventory-service/internal/auth"
	"github.com/spec-kit/inventory-service/internal/config"
	"github.com/spec-kit/inventory-service/internal/domain"
	"github.com/spec-kit/inventory-service/internal/events"
)

type serviceFixture struct {
	svc       *AuthService
	operators *memOperators
	keys      *memAPIKeys
	recorded  *recordedEvents
}

func newServiceFixture(t *testing.T, cfg config.Config, rdb *redis.Client) *serviceFixture {
	t.Helper()
	dispatcher := events.NewInMemoryDispatcher()
	recorded := &recordedEvents{}
	recorded.subscribe(dispatcher,
		events.EventLoginSucceeded, events.EventLoginFailed,
		events.EventAPIKeyIssued, events.EventLogout, events.EventOperatorActivity)

	f := &serviceFixture{operators: newMemOperators(), keys: &memAPIKeys{}, recorded: recorded}
	svc, err := NewAuthService(cfg, AuthDependencies{
		OperatorRepo: f.operators,
		APIKeyRepo:   f.keys,
		Redis:        rdb,
		Dispatcher:   dispatcher,
		Logger:       zaptest.NewLogger(t),
	})
	require.NoError(t, err)
	f.svc = svc
	return f
}

func seedAdmin(t *testing.T, f *serviceFixture) {
	t.Helper()
	require.NoError(t, f.svc.SeedAdmin(context.Background(), config.SeedAdminConfig{
		CustomerID: "cust-1",
		Username:   "admin",
		Email:      "admin@example.com",
		Password:   "admin123",
	}))
}

func TestAdminLoginScenario(t *testing.T) {
	f := newServiceFixture(t, testConfig(config.RevocationEmbedded), nil)
	seedAdmin(t, f)
	ctx := context.Background()

	res, err := f.svc.Login(ctx, auth.Credentials{Username: "admin", Password: "admin123"})
	require.NoError(t, err)
	require.NotEmpty(t, res.Token)

	claims, err := f.svc.Verify(ctx, res.Token)
	require.NoError(t, err)
	require.Equal(t, domain.RoleAdmin, claims.Role)
	require.Equal(t, "cust-1", claims.CustomerID)
	require.Equal(t, "/admin", auth.RoleHome(claims.Role))
	require.True(t, auth.Decide(auth.NamespaceOf("/admin/dashboard"), &claims.Role).Allowed)

	require.Len(t, f.recorded.ofType(events.EventLoginSucceeded), 1)
}

func TestLoginFailuresAreUniform(t *testing.T) {
	f := newServiceFixture(t, testConfig(config.RevocationEmbedded), nil)
	seedAdmin(t, f)
	ctx := context.Background()

	attempts := []auth.Credentials{
		{Username: "nobody", Password: "admin123"},
		{Username: "admin", Password: "wrong"},
		{Email: "admin@example.com", Password: "admin123", Role: domain.RoleUser},
	}
	for _, creds := range attempts {
		_, err := f.svc.Login(ctx, creds)
		require.ErrorIs(t, err, auth.ErrInvalidCredentials)
		require.Equal(t, "invalid credentials", err.Error())
	}

	failed := f.recorded.ofType(events.EventLoginFailed)
	require.Len(t, failed, 3)
	for _, ev := range failed {
		payload, ok := ev.Payload.(events.LoginFailedPayload)
		require.True(t, ok)
		require.NotContains(t, payload.Identifier, "admin123")
		require.NotContains(t, payload.Cause, "admin123")
	}
}

func TestLoginInactiveAndBackendDown(t *testing.T) {
	f := newServiceFixture(t, testConfig(config.RevocationEmbedded), nil)
	seedAdmin(t, f)
	ctx := context.Background()

	admin, err := f.operators.GetByUsername(ctx, "admin")
	require.NoError(t, err)
	require.NoError(t, f.operators.SetActive(ctx, "cust-1", admin.OperatorID, false))

	_, err = f.svc.Login(ctx, auth.Credentials{Username: "admin", Password: "admin123"})
	require.ErrorIs(t, err, auth.ErrInactiveIdentity)

	f.operators.err = errBackendDown
	_, err = f.svc.Login(ctx, auth.Credentials{Username: "admin", Password: "admin123"})
	require.ErrorIs(t, err, auth.ErrIssuanceFailure)
	require.NotErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestDeactivationLiveMode(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	f := newServiceFixture(t, testConfig(config.RevocationLive), rdb)
	require.True(t, f.svc.Verifier().Live())
	seedAdmin(t, f)
	ctx := context.Background()

	res, err := f.svc.Login(ctx, auth.Credentials{Username: "admin", Password: "admin123"})
	require.NoError(t, err)
	_, err = f.svc.Verify(ctx, res.Token)
	require.NoError(t, err)

	caller := res.Claims
	require.NoError(t, f.svc.SetOperatorActive(ctx, caller, caller.OperatorID, false))

	_, err = f.svc.Verify(ctx, res.Token)
	require.ErrorIs(t, err, auth.ErrDeactivated)
	require.Len(t, f.recorded.ofType(events.EventOperatorActivity), 1)
}

func TestDeactivationEmbeddedMode(t *testing.T) {
	f := newServiceFixture(t, testConfig(config.RevocationEmbedded), nil)
	require.False(t, f.svc.Verifier().Live())
	seedAdmin(t, f)
	ctx := context.Background()

	res, err := f.svc.Login(ctx, auth.Credentials{Username: "admin", Password: "admin123"})
	require.NoError(t, err)
	require.NoError(t, f.svc.SetOperatorActive(ctx, res.Claims, res.Claims.OperatorID, false))

	// Embedded mode only notices at expiry.
	_, err = f.svc.Verify(ctx, res.Token)
	require.NoError(t, err)
}

func TestSetOperatorActiveScopedToTenant(t *testing.T) {
	f := newServiceFixture(t, testConfig(config.RevocationLive), nil)
	seedAdmin(t, f)
	ctx := context.Background()

	admin, err := f.operators.GetByUsername(ctx, "admin")
	require.NoError(t, err)

	outsider := &auth.Claims{CustomerID: "cust-2", OperatorID: "op-x", Role: domain.RoleAdmin}
	err = f.svc.SetOperatorActive(ctx, outsider, admin.OperatorID, false)
	require.ErrorIs(t, err, ErrOperatorNotFound)
}

func TestIssueAPIKeyUsesCallerTenant(t *testing.T) {
	f := newServiceFixture(t, testConfig(config.RevocationEmbedded), nil)
	ctx := context.Background()
	caller := &auth.Claims{CustomerID: "cust-9", OperatorID: "op-1", Role: domain.RoleAgent}

	key, err := f.svc.IssueAPIKey(ctx, caller)
	require.NoError(t, err)
	require.Equal(t, "cust-9", key.CustomerID)

	keys, err := f.svc.ListAPIKeys(ctx, caller)
	require.NoError(t, err)
	require.Len(t, keys, 1)
	require.Equal(t, key.Key, keys[0].Key)

	issued := f.recorded.ofType(events.EventAPIKeyIssued)
	require.Len(t, issued, 1)
	require.Equal(t, events.APIKeyIssuedPayload{KeyID: key.ID}, issued[0].Payload)
}

func TestSeedAdminIsIdempotent(t *testing.T) {
	f := newServiceFixture(t, testConfig(config.RevocationEmbedded), nil)
	seedAdmin(t, f)
	seedAdmin(t, f)
	require.Len(t, f.operators.ops, 1)

	require.NoError(t, f.svc.SeedAdmin(context.Background(), config.SeedAdminConfig{}))
	require.Len(t, f.operators.ops, 1)
}

func TestLogoutPublishesEvent(t *testing.T) {
	f := newServiceFixture(t, testConfig(config.RevocationEmbedded), nil)
	f.svc.Logout(context.Background(), nil)
	require.Empty(t, f.recorded.ofType(events.EventLogout))

	f.svc.Logout(context.Background(), &auth.Claims{OperatorID: "op-1", CustomerID: "cust-1"})
	require.Len(t, f.recorded.ofType(events.EventLogout), 1)
}
