package shared

// Permission modules understood by the gate.
const (
	ModuleBookings = "bookings"
	ModuleInvoices = "invoices"
	ModulePayments = "payments"
	ModuleDues     = "dues"
)

// Permission actions understood by the gate.
const (
	ActionView   = "view"
	ActionAdd    = "add"
	ActionEdit   = "edit"
	ActionDelete = "delete"
)

// ScopeGlobal is the sentinel scope used when no building scope applies.
const ScopeGlobal = "global"
