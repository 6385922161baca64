package identity

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/waterbill/backend/internal/domain/shared"
)

func TestGate_Authorize(t *testing.T) {
	gate := NewGate(nil)

	tests := []struct {
		role Role
		op   Operation
		want Decision
	}{
		{RoleMeterReader, OpReadingCreate, Allow},
		{RoleMeterReader, OpBillCreate, Allow},
		{RoleMeterReader, OpBillPay, Deny},
		{RoleMeterReader, OpBillCancel, Deny},
		{RoleTreasurer, OpBillPay, Allow},
		{RoleTreasurer, OpLedgerSummarize, Allow},
		{RoleTreasurer, OpTariffCreate, Deny},
		{RoleAdmin, OpTariffCreate, Allow},
		{RoleAdmin, OpTariffUpdate, Deny},
		{RoleAdmin, OpBillCancel, Deny},
		{RoleAdmin, OpBillPay, Deny},
		{RoleSuperAdmin, OpBillCancel, Allow},
		{RoleSuperAdmin, OpTariffUpdate, Allow},
		{RoleSuperAdmin, OpBillPay, Allow},
		{RoleCustomer, OpBillReadOwn, Allow},
		{RoleCustomer, OpBillRead, Deny},
		{RoleCustomer, OpBillCreate, Deny},
		{RoleAnonymous, OpBillLookupByMeter, Allow},
		{RoleAnonymous, OpBillReadOwn, Deny},
		{Role("GHOST"), OpBillLookupByMeter, Deny},
	}

	for _, tt := range tests {
		t.Run(string(tt.role)+"/"+string(tt.op), func(t *testing.T) {
			assert.Equal(t, tt.want, gate.Authorize(tt.role, tt.op))
		})
	}
}

func TestGate_Require(t *testing.T) {
	gate := NewGate(nil)

	t.Run("allowed returns nil", func(t *testing.T) {
		assert.NoError(t, gate.Require(RoleTreasurer, OpBillPay))
	})

	t.Run("denied returns forbidden", func(t *testing.T) {
		err := gate.Require(RoleMeterReader, OpBillPay)
		assert.True(t, errors.Is(err, shared.ErrForbidden))
		assert.Contains(t, err.Error(), "METER_READER")
	})
}

func TestGate_CustomPolicy(t *testing.T) {
	gate := NewGate(Policy{RoleAdmin: grants(OpBillCancel)})
	assert.Equal(t, Allow, gate.Authorize(RoleAdmin, OpBillCancel))
	assert.Equal(t, Deny, gate.Authorize(RoleSuperAdmin, OpBillCancel))
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole(" treasurer ")
	assert.NoError(t, err)
	assert.Equal(t, RoleTreasurer, r)

	_, err = ParseRole("ANONYMOUS")
	assert.True(t, errors.Is(err, shared.ErrInvalidInput))

	assert.True(t, RoleAdmin.IsStaff())
	assert.False(t, RoleCustomer.IsStaff())
}
