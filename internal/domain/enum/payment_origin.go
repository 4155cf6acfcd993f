package enum

// PaymentOrigin tells which intake path produced a payment row
type PaymentOrigin string

const (
	// PaymentOriginSimple is a plain payment recorded against a custom order
	PaymentOriginSimple PaymentOrigin = "simple"
	// PaymentOriginLedger is an advance-ledger row carrying balance snapshots
	PaymentOriginLedger PaymentOrigin = "ledger"
)
