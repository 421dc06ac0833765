package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRingAllows(t *testing.T) {
	assert.True(t, RingAdmin.Allows(RingCashier))
	assert.True(t, RingCashier.Allows(RingCashier))
	assert.False(t, RingUser.Allows(RingCashier))
}

func TestParsePolicy(t *testing.T) {
	policy, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, DefaultPolicy(), policy)

	policy, err = ParsePolicy(" orders.place = 1 , inventory.write=1")
	require.NoError(t, err)
	assert.Equal(t, RingManager, policy[OpPlaceOrder])
	assert.Equal(t, RingManager, policy[OpWriteInventory])
	assert.Equal(t, RingCashier, policy[OpReturnOrder])

	_, err = ParsePolicy("orders.teleport=1")
	assert.ErrorIs(t, err, ErrUnknownOperation)
	_, err = ParsePolicy("orders.place=9")
	assert.ErrorIs(t, err, ErrInvalidRing)
	_, err = ParsePolicy("orders.place")
	assert.Error(t, err)
}

func TestPolicyCeiling(t *testing.T) {
	ceiling, err := DefaultPolicy().Ceiling(OpManageRoles)
	require.NoError(t, err)
	assert.Equal(t, RingAdmin, ceiling)

	_, err = DefaultPolicy().Ceiling("nope")
	assert.ErrorIs(t, err, ErrUnknownOperation)
}

func TestNewRole(t *testing.T) {
	role, err := NewRole(" Supervisor ", "Supervisor", RingManager, []string{"Sales", "sales", " "})
	require.NoError(t, err)
	assert.Equal(t, "supervisor", role.ID)
	assert.Equal(t, []string{"sales"}, role.Modules)

	_, err = NewRole("x", "X", 7, nil)
	assert.ErrorIs(t, err, ErrInvalidRing)
	_, err = NewRole("", "X", RingUser, nil)
	assert.ErrorIs(t, err, ErrInvalidRoleID)
}
