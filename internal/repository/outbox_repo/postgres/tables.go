package postgres

// Outbox table names created by the migrations. Both tables share one schema;
// the repository is instantiated once per table.
const (
	PaymentOutboxTable  = "payment_outbox"
	ApprovalOutboxTable = "restaurant_approval_outbox"
)
