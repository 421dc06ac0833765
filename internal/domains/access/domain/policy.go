package domain

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Operation names a guarded use case.
type Operation string

const (
	OpPlaceOrder      Operation = "orders.place"
	OpReadOrder       Operation = "orders.read"
	OpListOrders      Operation = "orders.list"
	OpReturnOrder     Operation = "orders.return"
	OpUpdateShipping  Operation = "shipping.update"
	OpWriteInventory  Operation = "inventory.write"
	OpInventoryReport Operation = "inventory.report"
	OpManageRoles     Operation = "roles.manage"
)

var ErrUnknownOperation = errors.New("unknown operation")

// Policy maps each operation to the highest ring still allowed to perform it.
type Policy map[Operation]Ring

// DefaultPolicy returns a fresh copy of the built-in ceilings.
func DefaultPolicy() Policy {
	return Policy{
		OpPlaceOrder:      RingCashier,
		OpReadOrder:       RingCashier,
		OpListOrders:      RingManager,
		OpReturnOrder:     RingCashier,
		OpUpdateShipping:  RingManager,
		OpWriteInventory:  RingAdmin,
		OpInventoryReport: RingManager,
		OpManageRoles:     RingAdmin,
	}
}

// ParsePolicy applies "op=ring,op=ring" overrides on top of DefaultPolicy.
// Only known operations may be overridden.
func ParsePolicy(raw string) (Policy, error) {
	policy := DefaultPolicy()
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		name, value, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, fmt.Errorf("policy entry %q: expected op=ring", entry)
		}
		op := Operation(strings.ToLower(strings.TrimSpace(name)))
		if _, known := policy[op]; !known {
			return nil, fmt.Errorf("policy entry %q: %w", entry, ErrUnknownOperation)
		}
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || !Ring(n).Valid() {
			return nil, fmt.Errorf("policy entry %q: %w", entry, ErrInvalidRing)
		}
		policy[op] = Ring(n)
	}
	return policy, nil
}

// Ceiling returns the ring ceiling for op.
func (p Policy) Ceiling(op Operation) (Ring, error) {
	ceiling, ok := p[op]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownOperation, op)
	}
	return ceiling, nil
}

// Operations lists the guarded operations in name order.
func (p Policy) Operations() []Operation {
	ops := make([]Operation, 0, len(p))
	for op := range p {
		ops = append(ops, op)
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i] < ops[j] })
	return ops
}

// Principal is an authenticated caller.
type Principal struct {
	UserID string
	RoleID string
}

// Decision is the outcome of an authorization check. Ring is -1 when the role is unknown.
type Decision struct {
	Allowed bool
	Ring    Ring
	Ceiling Ring
}
