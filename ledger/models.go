package ledger

import (
	"time"
)

// Reminder is a single payment reminder event. Reminders are append-only:
// existing entries are never rewritten.
type Reminder struct {
	SentAt time.Time `json:"sent_at"`
	To     string    `json:"to"`
}

// Invoice is the central business record. Status, timestamps and the rail
// linkage fields are the only fields mutated after creation.
type Invoice struct {
	ID          string     `json:"id"`
	From        string     `json:"from"`
	To          string     `json:"to"`
	Amount      float64    `json:"amount"`
	Currency    string     `json:"currency"`
	Description string     `json:"description"`
	Escrow      bool       `json:"escrow"`
	Network     string     `json:"network"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	Deadline    time.Time  `json:"deadline"`
	PaidAt      *time.Time `json:"paid_at"`
	VerifiedAt  *time.Time `json:"verified_at"`
	// TxHash and EscrowID are set when a rail call succeeds. Empty means
	// "no confirmed rail action", not "rail action failed"; failures are
	// recorded in EscrowState instead.
	TxHash      string     `json:"txHash,omitempty"`
	EscrowID    string     `json:"escrowId,omitempty"`
	EscrowState string     `json:"escrow_state,omitempty"`
	Reminders   []Reminder `json:"reminders,omitempty"`
}

// Ledger is the full persisted collection: an insertion-ordered set of
// invoices plus the strictly increasing counter used to derive new ids.
// It is loaded and saved as a whole unit on every mutation.
type Ledger struct {
	Invoices []Invoice `json:"invoices"`
	Counter  int64     `json:"counter"`
}

// FindInvoice returns a pointer into the ledger's invoice slice, so callers
// holding the store lock can mutate the record in place.
func (l *Ledger) FindInvoice(id string) *Invoice {
	for i := range l.Invoices {
		if l.Invoices[i].ID == id {
			return &l.Invoices[i]
		}
	}
	return nil
}
