package common

const (
	InvoiceStatusPending  = "pending"
	InvoiceStatusEscrowed = "escrowed"
	InvoiceStatusPaid     = "paid"

	// Rail linkage states. Empty means no rail action was attempted,
	// "confirmed" means the rail acknowledged the call, "pending" means
	// the rail call failed or timed out and the local record advanced
	// anyway (optimistic progression).
	EscrowStateConfirmed = "confirmed"
	EscrowStatePending   = "pending"

	Currency = "USDC"
)
