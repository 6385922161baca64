package identity

import (
	"fmt"

	"github.com/waterbill/backend/internal/domain/shared"
)

// Operation identifies a guarded action in the billing core
type Operation string

const (
	OpCustomerManage    Operation = "customer.manage"
	OpCustomerRead      Operation = "customer.read"
	OpTariffCreate      Operation = "tariff.create"
	OpTariffUpdate      Operation = "tariff.update"
	OpTariffRead        Operation = "tariff.read"
	OpReadingCreate     Operation = "reading.create"
	OpBillCreate        Operation = "bill.create"
	OpBillPay           Operation = "bill.pay"
	OpBillCancel        Operation = "bill.cancel"
	OpBillRead          Operation = "bill.read"
	OpBillReadOwn       Operation = "bill.read_own"
	OpLedgerSummarize   Operation = "ledger.summarize"
	OpLedgerExport      Operation = "ledger.export"
	OpBillLookupByMeter Operation = "bill.lookup_by_meter"
)

// Decision is the outcome of a policy check
type Decision bool

const (
	Allow Decision = true
	Deny  Decision = false
)

// Policy maps role × operation to a decision. Anything absent is denied.
type Policy map[Role]map[Operation]struct{}

func grants(ops ...Operation) map[Operation]struct{} {
	m := make(map[Operation]struct{}, len(ops))
	for _, op := range ops {
		m[op] = struct{}{}
	}
	return m
}

// DefaultPolicy returns the static policy table for the billing core
func DefaultPolicy() Policy {
	return Policy{
		RoleSuperAdmin: grants(
			OpCustomerManage, OpCustomerRead,
			OpTariffCreate, OpTariffUpdate, OpTariffRead,
			OpReadingCreate,
			OpBillCreate, OpBillPay, OpBillCancel, OpBillRead, OpBillReadOwn,
			OpLedgerSummarize, OpLedgerExport,
			OpBillLookupByMeter,
		),
		RoleAdmin: grants(
			OpCustomerManage, OpCustomerRead,
			OpTariffCreate, OpTariffRead,
			OpReadingCreate,
			OpBillCreate, OpBillRead, OpBillReadOwn,
			OpLedgerSummarize, OpLedgerExport,
			OpBillLookupByMeter,
		),
		RoleMeterReader: grants(
			OpCustomerRead,
			OpTariffRead,
			OpReadingCreate,
			OpBillCreate, OpBillRead, OpBillReadOwn,
			OpBillLookupByMeter,
		),
		RoleTreasurer: grants(
			OpCustomerRead,
			OpTariffRead,
			OpBillPay, OpBillRead, OpBillReadOwn,
			OpLedgerSummarize, OpLedgerExport,
			OpBillLookupByMeter,
		),
		RoleCustomer: grants(
			OpBillReadOwn,
			OpBillLookupByMeter,
		),
		RoleAnonymous: grants(
			OpBillLookupByMeter,
		),
	}
}

// Gate is the authorization gate consulted before every mutation
type Gate struct {
	policy Policy
}

// NewGate creates a gate over the given policy. A nil policy uses DefaultPolicy.
func NewGate(policy Policy) *Gate {
	if policy == nil {
		policy = DefaultPolicy()
	}
	return &Gate{policy: policy}
}

// Authorize returns the decision for role performing op
func (g *Gate) Authorize(role Role, op Operation) Decision {
	ops, ok := g.policy[role]
	if !ok {
		return Deny
	}
	_, ok = ops[op]
	return Decision(ok)
}

// Require returns a FORBIDDEN domain error when the policy denies op
func (g *Gate) Require(role Role, op Operation) error {
	if g.Authorize(role, op) == Allow {
		return nil
	}
	return shared.NewDomainError(shared.CodeForbidden,
		fmt.Sprintf("Role %s is not allowed to perform %s", role, op))
}
