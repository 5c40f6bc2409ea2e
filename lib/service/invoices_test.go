package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/usdchub/usdchub/common"
	"github.com/usdchub/usdchub/ledger"
	"github.com/usdchub/usdchub/lib"
	"github.com/usdchub/usdchub/rail"
)

func newTestService(railClient rail.SettlementClientWrapper) *InvoiceService {
	return &InvoiceService{
		Config: &Config{
			Network:              rail.NetworkBaseSepolia,
			RailTimeout:          1,
			DefaultDeadlineHours: 24,
			DefaultListLimit:     20,
		},
		Store:         ledger.NewStore(ledger.NewMemoryStorage()),
		RailClient:    railClient,
		Logger:        lib.Logger(""),
		InvoicePubSub: NewPubsub(),
	}
}

func newMockRail() *rail.MockClient {
	return rail.NewMockClient((&rail.Config{
		BaseSepoliaRPC:     "https://sepolia.base.org",
		ArbitrumSepoliaRPC: "https://sepolia.arbitrum.org/rpc",
	}).NetworkConfigs())
}

func validParams() CreateInvoiceParams {
	return CreateInvoiceParams{
		From:          "agent-a",
		To:            "agent-b",
		Amount:        100,
		Description:   "API integration work",
		DeadlineHours: 24,
	}
}

func counterValue(t *testing.T, svc *InvoiceService) int64 {
	t.Helper()
	var counter int64
	require.NoError(t, svc.Store.View(context.Background(), func(l *ledger.Ledger) error {
		counter = l.Counter
		return nil
	}))
	return counter
}

func TestCreateInvoiceValidation(t *testing.T) {
	svc := newTestService(newMockRail())
	ctx := context.Background()

	cases := []CreateInvoiceParams{
		{To: "b", Amount: 1, Description: "d"},
		{From: "a", Amount: 1, Description: "d"},
		{From: "a", To: "b", Amount: 1},
		{From: "a", To: "b", Amount: 0, Description: "d"},
		{From: "a", To: "b", Amount: -5, Description: "d"},
	}
	for _, params := range cases {
		_, err := svc.CreateInvoice(ctx, params)
		assert.ErrorIs(t, err, ErrInvalidParams)
	}

	// rejected before any state mutation
	assert.EqualValues(t, 1000, counterValue(t, svc))
	invoices, total, err := svc.ListInvoices(ctx, "", 0)
	require.NoError(t, err)
	assert.Empty(t, invoices)
	assert.Zero(t, total)
}

func TestCreateInvoiceDefaults(t *testing.T) {
	svc := newTestService(newMockRail())

	params := validParams()
	params.DeadlineHours = 0
	invoice, err := svc.CreateInvoice(context.Background(), params)
	require.NoError(t, err)

	assert.Equal(t, common.InvoiceStatusPending, invoice.Status)
	assert.Equal(t, common.Currency, invoice.Currency)
	assert.Equal(t, rail.NetworkBaseSepolia, invoice.Network)
	assert.Empty(t, invoice.EscrowState)
	assert.Nil(t, invoice.PaidAt)
	assert.Nil(t, invoice.VerifiedAt)
	assert.WithinDuration(t, invoice.CreatedAt.Add(24*time.Hour), invoice.Deadline, time.Second)
}

func TestCreateInvoiceIDsUnique(t *testing.T) {
	svc := newTestService(newMockRail())
	ctx := context.Background()

	seen := map[string]bool{}
	for i := 0; i < 25; i++ {
		invoice, err := svc.CreateInvoice(ctx, validParams())
		require.NoError(t, err)
		assert.False(t, seen[invoice.ID], "duplicate invoice id %s", invoice.ID)
		seen[invoice.ID] = true
	}
	assert.EqualValues(t, 1025, counterValue(t, svc))
}

func TestCreateInvoiceConcurrent(t *testing.T) {
	svc := newTestService(newMockRail())
	ctx := context.Background()

	const workers = 10
	ids := make(chan string, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			invoice, err := svc.CreateInvoice(ctx, validParams())
			assert.NoError(t, err)
			ids <- invoice.ID
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[string]bool{}
	for id := range ids {
		assert.False(t, seen[id], "duplicate invoice id %s", id)
		seen[id] = true
	}
	assert.Len(t, seen, workers)
	assert.EqualValues(t, 1000+workers, counterValue(t, svc))

	_, total, err := svc.ListInvoices(ctx, "", workers)
	require.NoError(t, err)
	assert.Equal(t, workers, total)
}

func TestCreateEscrowInvoice(t *testing.T) {
	mock := newMockRail()
	svc := newTestService(mock)

	params := validParams()
	params.Escrow = true
	invoice, err := svc.CreateInvoice(context.Background(), params)
	require.NoError(t, err)

	assert.Equal(t, common.InvoiceStatusEscrowed, invoice.Status)
	assert.Equal(t, common.EscrowStateConfirmed, invoice.EscrowState)
	assert.NotEmpty(t, invoice.EscrowID)
	assert.NotEmpty(t, invoice.TxHash)
	assert.Equal(t, 1, mock.Holds())
}

func TestCreateEscrowInvoiceRailFailure(t *testing.T) {
	mock := newMockRail()
	mock.HoldErr = errors.New("rpc: connection refused")
	svc := newTestService(mock)

	params := validParams()
	params.Escrow = true
	invoice, err := svc.CreateInvoice(context.Background(), params)
	require.NoError(t, err)

	// the invoice persists with a distinguishable degraded marker and the
	// counter still advances
	assert.Equal(t, common.InvoiceStatusEscrowed, invoice.Status)
	assert.Equal(t, common.EscrowStatePending, invoice.EscrowState)
	assert.Empty(t, invoice.EscrowID)
	assert.Empty(t, invoice.TxHash)
	assert.EqualValues(t, 1001, counterValue(t, svc))

	stored, err := svc.GetInvoiceStatus(context.Background(), invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, common.InvoiceStatusEscrowed, stored.Invoice.Status)
}

func TestCreateEscrowInvoiceRailTimeout(t *testing.T) {
	mock := newMockRail()
	mock.Delay = 5 * time.Second
	svc := newTestService(mock)

	params := validParams()
	params.Escrow = true
	start := time.Now()
	invoice, err := svc.CreateInvoice(context.Background(), params)
	require.NoError(t, err)

	assert.Less(t, time.Since(start), 3*time.Second, "create must not block on a hanging rail")
	assert.Equal(t, common.InvoiceStatusEscrowed, invoice.Status)
	assert.Equal(t, common.EscrowStatePending, invoice.EscrowState)
}

func TestCounterAdvancesOncePerCreate(t *testing.T) {
	mock := newMockRail()
	svc := newTestService(mock)
	ctx := context.Background()

	escrowed := validParams()
	escrowed.Escrow = true

	_, err := svc.CreateInvoice(ctx, validParams())
	require.NoError(t, err)
	mock.HoldErr = errors.New("nope")
	_, err = svc.CreateInvoice(ctx, escrowed)
	require.NoError(t, err)
	mock.HoldErr = nil
	_, err = svc.CreateInvoice(ctx, escrowed)
	require.NoError(t, err)

	assert.EqualValues(t, 1003, counterValue(t, svc))
}

func TestVerifyIdempotent(t *testing.T) {
	svc := newTestService(newMockRail())
	ctx := context.Background()

	invoice, err := svc.CreateInvoice(ctx, validParams())
	require.NoError(t, err)

	first, err := svc.VerifyWork(ctx, invoice.ID)
	require.NoError(t, err)
	require.NotNil(t, first.VerifiedAt)

	second, err := svc.VerifyWork(ctx, invoice.ID)
	require.NoError(t, err)
	require.NotNil(t, second.VerifiedAt)
	assert.Equal(t, *first.VerifiedAt, *second.VerifiedAt)
}

func TestVerifyNotFound(t *testing.T) {
	svc := newTestService(newMockRail())

	_, err := svc.VerifyWork(context.Background(), "INV-NOPE-1")
	assert.ErrorIs(t, err, ErrInvoiceNotFound)
}

func TestReleaseRequiresEscrowedStatus(t *testing.T) {
	svc := newTestService(newMockRail())
	ctx := context.Background()

	pending, err := svc.CreateInvoice(ctx, validParams())
	require.NoError(t, err)

	_, err = svc.ReleasePayment(ctx, pending.ID)
	assert.ErrorIs(t, err, ErrInvalidState)

	// record left unchanged
	status, err := svc.GetInvoiceStatus(ctx, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, common.InvoiceStatusPending, status.Invoice.Status)
	assert.Nil(t, status.Invoice.PaidAt)
}

func TestReleaseIsNotRepeatable(t *testing.T) {
	svc := newTestService(newMockRail())
	ctx := context.Background()

	params := validParams()
	params.Escrow = true
	invoice, err := svc.CreateInvoice(ctx, params)
	require.NoError(t, err)

	_, err = svc.ReleasePayment(ctx, invoice.ID)
	require.NoError(t, err)
	_, err = svc.ReleasePayment(ctx, invoice.ID)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestReleaseNotFound(t *testing.T) {
	svc := newTestService(newMockRail())

	_, err := svc.ReleasePayment(context.Background(), "INV-NOPE-1")
	assert.ErrorIs(t, err, ErrInvoiceNotFound)
}

func TestReleaseHappyPath(t *testing.T) {
	mock := newMockRail()
	svc := newTestService(mock)
	ctx := context.Background()

	params := validParams()
	params.Escrow = true
	invoice, err := svc.CreateInvoice(ctx, params)
	require.NoError(t, err)

	result, err := svc.ReleasePayment(ctx, invoice.ID)
	require.NoError(t, err)

	assert.Equal(t, common.InvoiceStatusPaid, result.Invoice.Status)
	assert.Equal(t, common.EscrowStateConfirmed, result.Settlement)
	require.NotNil(t, result.Invoice.PaidAt)
	assert.NotEqual(t, invoice.TxHash, result.Invoice.TxHash, "release records its own transaction")
	assert.Equal(t, 1, mock.Releases())
}

func TestReleaseRailFailureStillAdvances(t *testing.T) {
	mock := newMockRail()
	svc := newTestService(mock)
	ctx := context.Background()

	params := validParams()
	params.Escrow = true
	invoice, err := svc.CreateInvoice(ctx, params)
	require.NoError(t, err)

	mock.ReleaseErr = errors.New("rpc: timeout")
	result, err := svc.ReleasePayment(ctx, invoice.ID)
	require.NoError(t, err)

	// optimistic release: local state advances, the degraded settlement
	// marker surfaces the unconfirmed rail
	assert.Equal(t, common.InvoiceStatusPaid, result.Invoice.Status)
	assert.Equal(t, common.EscrowStatePending, result.Settlement)
	require.NotNil(t, result.Invoice.PaidAt)
}

func TestRemindAppends(t *testing.T) {
	svc := newTestService(newMockRail())
	ctx := context.Background()

	invoice, err := svc.CreateInvoice(ctx, validParams())
	require.NoError(t, err)

	first, err := svc.AddReminder(ctx, invoice.ID)
	require.NoError(t, err)
	require.Len(t, first.Reminders, 1)
	assert.Equal(t, invoice.To, first.Reminders[0].To)

	second, err := svc.AddReminder(ctx, invoice.ID)
	require.NoError(t, err)
	require.Len(t, second.Reminders, 2)
	assert.Equal(t, first.Reminders[0], second.Reminders[0])
}

func TestListInvoices(t *testing.T) {
	svc := newTestService(newMockRail())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := svc.CreateInvoice(ctx, validParams())
		require.NoError(t, err)
	}
	escrowParams := validParams()
	escrowParams.Escrow = true
	escrowed, err := svc.CreateInvoice(ctx, escrowParams)
	require.NoError(t, err)

	pending, total, err := svc.ListInvoices(ctx, common.InvoiceStatusPending, 3)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Len(t, pending, 3)

	all, total, err := svc.ListInvoices(ctx, "", 0)
	require.NoError(t, err)
	assert.Equal(t, 6, total)
	require.NotEmpty(t, all)
	// newest first
	assert.Equal(t, escrowed.ID, all[0].ID)
	for i := 1; i < len(all); i++ {
		assert.False(t, all[i].CreatedAt.After(all[i-1].CreatedAt))
	}

	escrowedOnly, total, err := svc.ListInvoices(ctx, common.InvoiceStatusEscrowed, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, escrowedOnly, 1)
	assert.Equal(t, escrowed.ID, escrowedOnly[0].ID)
}

func TestDaysUntilDeadline(t *testing.T) {
	now := time.Now().UTC()

	assert.Equal(t, 1, daysUntilDeadline(now.Add(24*time.Hour), now))
	assert.Equal(t, 2, daysUntilDeadline(now.Add(48*time.Hour), now))
	assert.Equal(t, 1, daysUntilDeadline(now.Add(time.Hour), now))
	assert.Equal(t, 0, daysUntilDeadline(now.Add(-time.Hour), now))
	assert.Equal(t, 0, daysUntilDeadline(now.Add(-100*24*time.Hour), now), "never negative")
}

func TestStatusNotFound(t *testing.T) {
	svc := newTestService(newMockRail())

	_, err := svc.GetInvoiceStatus(context.Background(), "INV-NOPE-1")
	assert.ErrorIs(t, err, ErrInvoiceNotFound)
}

func TestEndToEndEscrowFlow(t *testing.T) {
	svc := newTestService(newMockRail())
	ctx := context.Background()

	invoice, err := svc.CreateInvoice(ctx, CreateInvoiceParams{
		From:          "A",
		To:            "B",
		Amount:        100,
		Description:   "work",
		Escrow:        true,
		DeadlineHours: 48,
	})
	require.NoError(t, err)
	assert.Equal(t, common.InvoiceStatusEscrowed, invoice.Status)

	status, err := svc.GetInvoiceStatus(ctx, invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, status.DaysUntilDeadline)

	verified, err := svc.VerifyWork(ctx, invoice.ID)
	require.NoError(t, err)
	assert.NotNil(t, verified.VerifiedAt)

	released, err := svc.ReleasePayment(ctx, invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, common.InvoiceStatusPaid, released.Invoice.Status)
	assert.NotNil(t, released.Invoice.PaidAt)

	paid, total, err := svc.ListInvoices(ctx, common.InvoiceStatusPaid, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, paid, 1)
	assert.Equal(t, invoice.ID, paid[0].ID)
	assert.NotNil(t, paid[0].VerifiedAt)
}
