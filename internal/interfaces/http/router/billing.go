package router

import (
	"github.com/gin-gonic/gin"
	"github.com/waterbill/backend/internal/interfaces/http/handler"
)

// Handlers are the HTTP handlers of the billing API
type Handlers struct {
	Auth     *handler.AuthHandler
	System   *handler.SystemHandler
	Customer *handler.CustomerHandler
	Tariff   *handler.TariffHandler
	Reading  *handler.ReadingHandler
	Bill     *handler.BillHandler
	Ledger   *handler.LedgerHandler
}

// Limits holds per-route-group middleware. Nil entries are skipped.
type Limits struct {
	// Auth throttles login and token refresh per client
	Auth gin.HandlerFunc
	// Public throttles the unauthenticated lookup
	Public gin.HandlerFunc
}

// BillingRoutes builds the route groups of the billing API. Authentication
// is expected on the API group; the public and auth paths are exempted there.
func BillingRoutes(h Handlers, limits Limits) []*DomainGroup {
	system := NewDomainGroup("")
	system.GET("/health", h.System.Health)
	system.GET("/settings/company", h.System.CompanySettings)

	auth := NewDomainGroup("/auth")
	auth.POST("/login", limits.Auth, h.Auth.Login)
	auth.POST("/refresh", limits.Auth, h.Auth.RefreshToken)
	auth.POST("/logout", h.Auth.Logout)
	auth.GET("/me", h.Auth.GetCurrentUser)

	public := NewDomainGroup("/public")
	public.GET("/bills/unpaid", limits.Public, h.Bill.LookupUnpaid)

	customers := NewDomainGroup("/customers")
	customers.POST("", h.Customer.Create)
	customers.GET("", h.Customer.List)
	customers.GET("/:id", h.Customer.GetByID)
	customers.PUT("/:id", h.Customer.Update)
	customers.POST("/:id/tariff", h.Customer.AssignTariff)
	customers.GET("/:id/tariffs", h.Customer.TariffHistory)
	customers.POST("/:id/deactivate", h.Customer.Deactivate)
	customers.POST("/:id/activate", h.Customer.Activate)

	tariffs := NewDomainGroup("/tariffs")
	tariffs.POST("", h.Tariff.Create)
	tariffs.GET("", h.Tariff.List)
	tariffs.GET("/resolve", h.Tariff.Resolve)
	tariffs.POST("/compute", h.Tariff.Compute)
	tariffs.GET("/:id", h.Tariff.GetByID)
	tariffs.PUT("/:id", h.Tariff.Update)

	readings := NewDomainGroup("/readings")
	readings.POST("", h.Reading.Record)

	bills := NewDomainGroup("/bills")
	bills.POST("", h.Bill.Create)
	bills.GET("", h.Bill.List)
	bills.GET("/:id", h.Bill.GetByID)
	bills.POST("/:id/pay", h.Bill.Pay)
	bills.POST("/:id/cancel", h.Bill.Cancel)
	bills.GET("/:id/receipt", h.Bill.Receipt)
	bills.GET("/:id/transaction", h.Bill.Transaction)

	ledger := NewDomainGroup("/ledger")
	ledger.GET("/summary", h.Ledger.Summary)
	ledger.GET("/transactions", h.Ledger.Transactions)
	ledger.POST("/export", h.Ledger.Export)

	return []*DomainGroup{system, auth, public, customers, tariffs, readings, bills, ledger}
}
