package domain

type Status string

const (
	StatusApplied           Status = "applied"
	StatusAvailable         Status = "available"
	StatusInsufficientStock Status = "insufficient_stock"
	StatusProductNotFound   Status = "product_not_found"
	StatusStoreError        Status = "store_error"
)

// Outcome reports the fate of one cart line. Lines are independent: a rejected line never
// stops the ones after it.
type Outcome struct {
	Line      int
	ProductID string
	Quantity  int
	Status    Status
	// NewStock and Deleted are set for applied lines.
	NewStock int
	Deleted  bool
	// Available is the stock seen when a line was refused for insufficient stock.
	Available int
	BookingID string
	Detail    string
}

// Result holds exactly one outcome per cart line, in cart order.
type Result struct {
	Outcomes []Outcome
}

func (r Result) Count(s Status) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == s {
			n++
		}
	}
	return n
}
