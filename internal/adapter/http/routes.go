package http

import "github.com/labstack/echo/v4"

// Router groups every handler the API serves.
type Router struct {
	Health   *Handler
	Loans    *LoanHandler
	Invoices *InvoiceHandler
	Access   *AccessHandler
	Funds    *FundsHandler
	Pool     *PoolHandler
	Webhook  *WebhookHandler
}

// Register mounts public reads as-is and wraps every mutation in mutating,
// which is expected to authenticate the caller and then enforce idempotency.
func (r Router) Register(e *echo.Echo, mutating ...echo.MiddlewareFunc) {
	e.GET("/health", r.Health.Health)
	e.GET("/stats", r.Health.Stats)

	e.GET("/loans", r.Loans.ListLoans)
	e.GET("/loans/counter", r.Loans.Counter)
	e.GET("/loans/:id", r.Loans.GetLoan)
	e.GET("/loans/:id/total-due", r.Loans.TotalDue)
	e.GET("/loans/:id/contributions", r.Loans.Contributions)
	e.GET("/loans/:id/contributions/:lender", r.Loans.Contribution)
	e.GET("/loans/:id/events", r.Loans.Events)
	e.POST("/loans", r.Loans.RequestLoan, mutating...)
	e.POST("/loans/sweep", r.Loans.Sweep, mutating...)
	e.POST("/loans/:id/fund", r.Loans.FundPartial, mutating...)
	e.POST("/loans/:id/repay", r.Loans.Repay, mutating...)
	e.POST("/loans/:id/default", r.Loans.MarkDefault, mutating...)
	e.POST("/loans/:id/cancel", r.Loans.Cancel, mutating...)

	e.GET("/invoices", r.Invoices.List)
	e.GET("/invoices/:id", r.Invoices.Get)
	e.GET("/invoices/:id/owner", r.Invoices.OwnerOf)
	e.GET("/invoices/:id/events", r.Invoices.Events)
	e.POST("/invoices", r.Invoices.Mint, mutating...)
	e.POST("/invoices/:id/verify", r.Invoices.Verify, mutating...)
	e.POST("/invoices/:id/verify-oracle", r.Invoices.VerifyByOracle, mutating...)
	e.POST("/invoices/:id/transfer", r.Invoices.Transfer, mutating...)

	e.GET("/roles/:principal", r.Access.Roles)
	e.POST("/roles/grant", r.Access.Grant, mutating...)
	e.POST("/roles/revoke", r.Access.Revoke, mutating...)

	e.GET("/funds/balances/:account", r.Funds.Balance)
	e.GET("/funds/allowances/:owner/:spender", r.Funds.Allowance)
	e.POST("/funds/approve", r.Funds.Approve, mutating...)
	e.POST("/funds/mint", r.Funds.Mint, mutating...)

	e.GET("/pool", r.Pool.Summary)
	e.GET("/pool/events", r.Pool.Events)
	e.POST("/pool/deposit", r.Pool.Deposit, mutating...)
	e.POST("/pool/fund-loan", r.Pool.FundLoan, mutating...)

	// authenticated by body signature, retried by the sender
	e.POST("/webhook/verify", r.Webhook.Verify)
}
