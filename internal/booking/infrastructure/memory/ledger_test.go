package memory

import (
	"testing"

	"github.com/dmehra2102/Marketplace-Booking-System/internal/booking/infrastructure/ledgertest"
	invmemory "github.com/dmehra2102/Marketplace-Booking-System/internal/inventory/infrastructure/memory"
)

func TestLedgerContract(t *testing.T) {
	ledgertest.Run(t, func(t *testing.T) ledgertest.Env {
		store := invmemory.New()
		return ledgertest.Env{Ledger: NewLedger(store), Products: store}
	})
}
