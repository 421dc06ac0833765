package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/storefront-api/internal/domains/access/adapters/memory"
	"github.com/Apurer/storefront-api/internal/domains/access/domain"
	"github.com/Apurer/storefront-api/internal/domains/access/ports"
)

func TestAuthorize_DefaultPolicy(t *testing.T) {
	svc := NewService(memory.NewRepository())
	ctx := context.Background()

	cases := []struct {
		role    string
		op      domain.Operation
		allowed bool
	}{
		{"cashier", domain.OpPlaceOrder, true},
		{"user", domain.OpPlaceOrder, false},
		{"cashier", domain.OpListOrders, false},
		{"manager", domain.OpListOrders, true},
		{"manager", domain.OpWriteInventory, false},
		{"admin", domain.OpManageRoles, true},
		{"ghost", domain.OpPlaceOrder, false},
		{"", domain.OpReadOrder, false},
	}
	for _, tc := range cases {
		t.Run(tc.role+"/"+string(tc.op), func(t *testing.T) {
			decision, err := svc.Authorize(ctx, domain.Principal{UserID: "u1", RoleID: tc.role}, tc.op)
			require.NoError(t, err)
			assert.Equal(t, tc.allowed, decision.Allowed)
		})
	}
}

func TestAuthorize_UnknownOperation(t *testing.T) {
	svc := NewService(memory.NewRepository())
	_, err := svc.Authorize(context.Background(), domain.Principal{RoleID: "admin"}, "orders.teleport")
	assert.ErrorIs(t, err, domain.ErrUnknownOperation)
}

func TestAuthorize_PolicyOverride(t *testing.T) {
	policy, err := domain.ParsePolicy("orders.place=1")
	require.NoError(t, err)
	svc := NewService(memory.NewRepository(), WithPolicy(policy))

	decision, err := svc.Authorize(context.Background(), domain.Principal{RoleID: "cashier"}, domain.OpPlaceOrder)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, domain.RingCashier, decision.Ring)
	assert.Equal(t, domain.RingManager, decision.Ceiling)
}

func TestCreateRole(t *testing.T) {
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := NewService(memory.NewRepository(), WithClock(func() time.Time { return fixed }))
	ctx := context.Background()

	role, err := svc.CreateRole(ctx, ports.CreateRoleInput{ID: "supervisor", Name: "Supervisor", Ring: 1, Modules: []string{"sales"}})
	require.NoError(t, err)
	assert.Equal(t, fixed, role.CreatedAt)

	_, err = svc.CreateRole(ctx, ports.CreateRoleInput{ID: "supervisor", Name: "Other", Ring: 1})
	assert.ErrorIs(t, err, ports.ErrDuplicateRole)

	_, err = svc.CreateRole(ctx, ports.CreateRoleInput{ID: "bad", Name: "Bad", Ring: 4})
	assert.ErrorIs(t, err, ErrInvalidInput)

	roles, err := svc.ListRoles(ctx)
	require.NoError(t, err)
	ids := make([]string, 0, len(roles))
	for _, r := range roles {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"admin", "manager", "supervisor", "cashier", "user"}, ids)

	decision, err := svc.Authorize(ctx, domain.Principal{RoleID: "supervisor"}, domain.OpListOrders)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
}
