package paygate

// OrderStatus is the lifecycle state of a donation order as reported by
// the payment provider. Transitions happen provider-side only:
// CREATED -> APPROVED (payer approves out-of-band) -> COMPLETED (capture).
type OrderStatus string

const (
	CREATED   OrderStatus = "CREATED"
	APPROVED  OrderStatus = "APPROVED"
	COMPLETED OrderStatus = "COMPLETED"
)
