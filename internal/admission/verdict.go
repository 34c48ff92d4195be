// Package admission decides whether a proposed product name may enter the inventory and
// which stock unit it is sold by.
//
// The gate fails closed: only an explicit Accepted verdict admits a product.
package admission

import (
	"context"

	"github.com/dmehra2102/Marketplace-Booking-System/internal/inventory/domain"
)

type Outcome int

const (
	OutcomeUnavailable Outcome = iota
	OutcomeAccepted
	OutcomeRejected
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAccepted:
		return "accepted"
	case OutcomeRejected:
		return "rejected"
	default:
		return "unavailable"
	}
}

// Verdict is the parsed answer of the gate. Unit is only meaningful when Outcome is
// OutcomeAccepted and defaults to a per-piece unit otherwise.
type Verdict struct {
	Outcome Outcome
	Unit    domain.StockUnit
	Reason  string
}

func Accepted(unit domain.StockUnit) Verdict {
	return Verdict{Outcome: OutcomeAccepted, Unit: unit}
}

func Rejected(reason string) Verdict {
	return Verdict{Outcome: OutcomeRejected, Unit: domain.UnitPiece, Reason: reason}
}

func Unavailable(reason string) Verdict {
	return Verdict{Outcome: OutcomeUnavailable, Unit: domain.UnitPiece, Reason: reason}
}

func (v Verdict) Admitted() bool {
	return v.Outcome == OutcomeAccepted
}

type Gate interface {
	Admit(ctx context.Context, name string) Verdict
}

// GateFunc adapts a plain function to Gate.
type GateFunc func(ctx context.Context, name string) Verdict

func (f GateFunc) Admit(ctx context.Context, name string) Verdict { return f(ctx, name) }
