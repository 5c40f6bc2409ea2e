package ledger

import (
	"context"
)

// The counter of a fresh ledger starts at 1000 so invoice ids are visibly
// distinct from list indexes and other small numbers.
const initialCounter = 1000

// Storage persists the ledger document as a whole unit. Implementations do
// not need to be safe for concurrent use; the Store serializes access.
type Storage interface {
	Load(ctx context.Context) (*Ledger, error)
	Save(ctx context.Context, l *Ledger) error
}

func emptyLedger() *Ledger {
	return &Ledger{
		Invoices: []Invoice{},
		Counter:  initialCounter,
	}
}
