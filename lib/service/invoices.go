package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/usdchub/usdchub/common"
	"github.com/usdchub/usdchub/ledger"
)

type CreateInvoiceParams struct {
	From          string  `json:"from"`
	To            string  `json:"to"`
	Amount        float64 `json:"amount"`
	Description   string  `json:"description"`
	Escrow        bool    `json:"escrow"`
	DeadlineHours int     `json:"deadline_hours"`
}

type InvoiceStatus struct {
	Invoice           ledger.Invoice `json:"invoice"`
	DaysUntilDeadline int            `json:"days_until_deadline"`
	Onchain           *OnchainStatus `json:"onchain,omitempty"`
}

type ReleaseResult struct {
	Invoice ledger.Invoice `json:"invoice"`
	// Settlement distinguishes "rail confirmed the release" from "local
	// record advanced but the rail is unconfirmed" (optimistic release).
	Settlement string `json:"settlement"`
	Message    string `json:"message"`
}

// CreateInvoice validates the parameters, reserves a unique id, attempts the
// escrow hold when requested and persists the new invoice. A rail failure
// does not abort creation: the invoice is stored as escrowed with
// escrow_state "pending" so the gap between local and rail state stays
// visible to callers.
func (svc *InvoiceService) CreateInvoice(ctx context.Context, params CreateInvoiceParams) (*ledger.Invoice, error) {
	if params.From == "" || params.To == "" || params.Description == "" {
		return nil, fmt.Errorf("%w: from, to, amount and description are required", ErrInvalidParams)
	}
	if params.Amount <= 0 || math.IsNaN(params.Amount) || math.IsInf(params.Amount, 0) {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidParams)
	}
	deadlineHours := params.DeadlineHours
	if deadlineHours <= 0 {
		deadlineHours = svc.Config.DefaultDeadlineHours
	}

	// Phase 1: reserve the id under the ledger lock. The counter advances
	// exactly once per create, whatever the rail does afterwards.
	var invoiceID string
	err := svc.Store.Update(ctx, func(l *ledger.Ledger) error {
		invoiceID = generateInvoiceID(l.Counter)
		l.Counter++
		return nil
	})
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	invoice := &ledger.Invoice{
		ID:          invoiceID,
		From:        params.From,
		To:          params.To,
		Amount:      params.Amount,
		Currency:    common.Currency,
		Description: params.Description,
		Escrow:      params.Escrow,
		Network:     svc.Config.Network,
		Status:      common.InvoiceStatusPending,
		CreatedAt:   now,
		Deadline:    now.Add(time.Duration(deadlineHours) * time.Hour),
	}

	// Phase 2: the escrow hold happens with no lock held; its outcome is
	// folded into the record before the final write.
	if params.Escrow {
		invoice.Status = common.InvoiceStatusEscrowed
		railCtx, cancel := svc.railContext(ctx)
		hold, err := svc.RailClient.EscrowHold(railCtx, invoiceID, params.From, params.To, params.Amount, invoice.Network)
		cancel()
		if err != nil {
			svc.Logger.Errorf("Escrow hold failed for invoice %s: %v", invoiceID, err)
			invoice.EscrowState = common.EscrowStatePending
		} else {
			invoice.EscrowID = hold.EscrowID
			invoice.TxHash = hold.TxHash
			invoice.EscrowState = common.EscrowStateConfirmed
		}
	}

	err = svc.Store.Update(ctx, func(l *ledger.Ledger) error {
		l.Invoices = append(l.Invoices, *invoice)
		return nil
	})
	if err != nil {
		return nil, err
	}

	svc.Logger.Infof("Created invoice %s (%v %s, escrow=%v, escrow_state=%q)",
		invoice.ID, invoice.Amount, invoice.Currency, invoice.Escrow, invoice.EscrowState)
	svc.publishInvoiceEvent(*invoice)
	return invoice, nil
}

// GetInvoiceStatus returns the stored invoice, the deadline arithmetic and
// a best-effort on-chain status. The stored record is never mutated here.
func (svc *InvoiceService) GetInvoiceStatus(ctx context.Context, invoiceID string) (*InvoiceStatus, error) {
	invoice, err := svc.findInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	return &InvoiceStatus{
		Invoice:           *invoice,
		DaysUntilDeadline: daysUntilDeadline(invoice.Deadline, time.Now().UTC()),
		Onchain:           svc.OnchainStatusFor(ctx, invoice),
	}, nil
}

// VerifyWork stamps verified_at once. Re-verification is a no-op success.
func (svc *InvoiceService) VerifyWork(ctx context.Context, invoiceID string) (*ledger.Invoice, error) {
	var result ledger.Invoice
	err := svc.Store.Update(ctx, func(l *ledger.Ledger) error {
		invoice := l.FindInvoice(invoiceID)
		if invoice == nil {
			return ErrInvoiceNotFound
		}
		if invoice.VerifiedAt == nil {
			now := time.Now().UTC()
			invoice.VerifiedAt = &now
		}
		result = *invoice
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// ReleasePayment releases the escrow and advances the invoice to paid.
// Policy: the local status advances even when the rail release fails; the
// result carries settlement "pending" in that case instead of hiding it.
func (svc *InvoiceService) ReleasePayment(ctx context.Context, invoiceID string) (*ReleaseResult, error) {
	invoice, err := svc.findInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if invoice.Status != common.InvoiceStatusEscrowed {
		return nil, ErrInvalidState
	}

	// Rail call outside the ledger lock.
	settlement := common.EscrowStatePending
	releaseTxHash := ""
	if invoice.EscrowID != "" {
		railCtx, cancel := svc.railContext(ctx)
		release, err := svc.RailClient.EscrowRelease(railCtx, invoice.EscrowID, invoice.Network)
		cancel()
		if err != nil {
			svc.Logger.Errorf("Escrow release failed for invoice %s: %v", invoiceID, err)
		} else {
			releaseTxHash = release.TxHash
			settlement = common.EscrowStateConfirmed
		}
	}

	var result ledger.Invoice
	err = svc.Store.Update(ctx, func(l *ledger.Ledger) error {
		stored := l.FindInvoice(invoiceID)
		if stored == nil {
			return ErrInvoiceNotFound
		}
		// Re-check under the lock; a concurrent release may have won.
		if stored.Status != common.InvoiceStatusEscrowed {
			return ErrInvalidState
		}
		now := time.Now().UTC()
		stored.Status = common.InvoiceStatusPaid
		stored.PaidAt = &now
		stored.EscrowState = settlement
		if releaseTxHash != "" {
			stored.TxHash = releaseTxHash
		}
		result = *stored
		return nil
	})
	if err != nil {
		return nil, err
	}

	svc.Logger.Infof("Released invoice %s (settlement=%s)", invoiceID, settlement)
	svc.publishInvoiceEvent(result)
	return &ReleaseResult{
		Invoice:    result,
		Settlement: settlement,
		Message:    fmt.Sprintf("Payment of %v %s released to %s on %s", result.Amount, result.Currency, result.To, result.Network),
	}, nil
}

// AddReminder appends a reminder event to the invoice.
func (svc *InvoiceService) AddReminder(ctx context.Context, invoiceID string) (*ledger.Invoice, error) {
	var result ledger.Invoice
	err := svc.Store.Update(ctx, func(l *ledger.Ledger) error {
		invoice := l.FindInvoice(invoiceID)
		if invoice == nil {
			return ErrInvoiceNotFound
		}
		invoice.Reminders = append(invoice.Reminders, ledger.Reminder{
			SentAt: time.Now().UTC(),
			To:     invoice.To,
		})
		result = *invoice
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// ListInvoices returns a snapshot filtered by status, newest first, capped
// at limit. The second return value is the total matching count before the
// cap is applied.
func (svc *InvoiceService) ListInvoices(ctx context.Context, status string, limit int) ([]ledger.Invoice, int, error) {
	if limit <= 0 {
		limit = svc.Config.DefaultListLimit
	}

	var invoices []ledger.Invoice
	err := svc.Store.View(ctx, func(l *ledger.Ledger) error {
		for _, invoice := range l.Invoices {
			if status == "" || invoice.Status == status {
				invoices = append(invoices, invoice)
			}
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	sort.SliceStable(invoices, func(i, j int) bool {
		return invoices[i].CreatedAt.After(invoices[j].CreatedAt)
	})
	total := len(invoices)
	if len(invoices) > limit {
		invoices = invoices[:limit]
	}
	return invoices, total, nil
}

func (svc *InvoiceService) findInvoice(ctx context.Context, invoiceID string) (*ledger.Invoice, error) {
	var result *ledger.Invoice
	err := svc.Store.View(ctx, func(l *ledger.Ledger) error {
		invoice := l.FindInvoice(invoiceID)
		if invoice == nil {
			return ErrInvoiceNotFound
		}
		copied := *invoice
		result = &copied
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// generateInvoiceID derives an id from the current time and the ledger
// counter. The counter alone guarantees uniqueness under the single-writer
// invariant; the timestamp keeps ids globally distinguishable across
// ledger resets.
func generateInvoiceID(counter int64) string {
	ts := strings.ToUpper(strconv.FormatInt(time.Now().UnixMilli(), 36))
	return fmt.Sprintf("INV-%s-%d", ts, counter)
}

// daysUntilDeadline rounds up and never goes negative: one hour left still
// counts as a day, a missed deadline reports zero.
func daysUntilDeadline(deadline, now time.Time) int {
	days := int(math.Ceil(deadline.Sub(now).Hours() / 24))
	if days < 0 {
		return 0
	}
	return days
}
