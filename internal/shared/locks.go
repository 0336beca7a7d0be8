package shared

import "fmt"

// InvoiceLockKey builds redis keys for invoice balance critical sections.
func InvoiceLockKey(invoiceID int64) string {
	return fmt.Sprintf("billing:invoice:%d:lock", invoiceID)
}

// DuesDigestKey builds the redis key holding the warmed dues summary.
func DuesDigestKey(scope string) string {
	if scope == "" {
		scope = ScopeGlobal
	}
	return fmt.Sprintf("dues:digest:%s", scope)
}
