package dto

// TenantBillingRunResult summarizes one tenant's slice of a billing run.
type TenantBillingRunResult struct {
	TenantID        string `json:"tenant_id"`
	InvoicesCreated int    `json:"invoices_created"`
	InvoicesSkipped int    `json:"invoices_skipped"`
	FailureCount    int    `json:"failure_count"`
}

// BillingRunResponse is the aggregate outcome of a recurring billing run.
type BillingRunResponse struct {
	Period          string                   `json:"period"`
	TenantsVisited  int                      `json:"tenants_visited"`
	InvoicesCreated int                      `json:"invoices_created"`
	InvoicesSkipped int                      `json:"invoices_skipped"`
	FailureCount    int                      `json:"failure_count"`
	Tenants         []TenantBillingRunResult `json:"tenants,omitempty"`
}

// OverdueSweepResponse reports how many invoices an overdue sweep touched.
type OverdueSweepResponse struct {
	InvoicesChecked int `json:"invoices_checked"`
	MarkedOverdue   int `json:"marked_overdue"`
	FailureCount    int `json:"failure_count"`
}

// ExpirySweepResponse reports how many subscriptions an expiry sweep closed.
type ExpirySweepResponse struct {
	SubscriptionsChecked int `json:"subscriptions_checked"`
	Expired              int `json:"expired"`
	FailureCount         int `json:"failure_count"`
}
