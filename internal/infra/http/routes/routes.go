// Package routes registers the HTTP routes of the API.
package routes

import (
	"net/http"

	infrahttp "github.com/hromada/backoffice/internal/infra/http"
	"github.com/hromada/backoffice/internal/infra/http/handler"
)

// Router is an alias to the http package's Router interface.
type Router = infrahttp.Router

// Handlers holds all HTTP handlers for route registration.
type Handlers struct {
	Health    *handler.HealthHandler
	Debtor    *handler.DebtorHandler
	Charge    *handler.ChargeHandler
	Receipt   *handler.ReceiptHandler
	CNAP      *handler.CNAPHandler
	Registry  *handler.RegistryHandler
	SearchLog *handler.SearchLogHandler

	// Metrics serves /metrics when set.
	Metrics http.Handler
}

// Register registers all routes on r.
func Register(r Router, h Handlers) {
	registerProbes(r, h)

	r.Group("/api/v1", func(r Router) {
		registerDebtors(r, h.Debtor)
		registerCharges(r, h.Charge)
		registerReceipts(r, h.Receipt)
		registerCNAP(r, h.CNAP)
		registerRegistries(r, h.Registry)
		registerSearchLogs(r, h.SearchLog)
	})
}

func registerProbes(r Router, h Handlers) {
	if h.Health != nil {
		r.GET("/health", h.Health.Health)
		r.GET("/ready", h.Health.Ready)
	}
	if h.Metrics != nil {
		r.Handle("/metrics", h.Metrics)
	}
}

// Every list is served both as GET with query parameters and as POST
// /search with a JSON body.

func registerDebtors(r Router, h *handler.DebtorHandler) {
	r.Group("/debtors", func(r Router) {
		r.GET("/", h.Search)
		r.POST("/search", h.Search)
		r.POST("/", h.Create)
		r.GET("/{id}", h.Get)
		r.PUT("/{id}", h.Update)
		r.DELETE("/{id}", h.Delete)
	})
}

func registerCharges(r Router, h *handler.ChargeHandler) {
	r.Group("/charges", func(r Router) {
		r.GET("/", h.Search)
		r.POST("/search", h.Search)
		r.POST("/", h.Create)
		r.GET("/{id}", h.Get)
		r.PATCH("/{id}/status", h.ChangeStatus)
		r.DELETE("/{id}", h.Delete)
	})
}

func registerReceipts(r Router, h *handler.ReceiptHandler) {
	r.Group("/receipts", func(r Router) {
		r.GET("/", h.Search)
		r.POST("/search", h.Search)
		r.POST("/", h.Create)
		r.GET("/{id}", h.Get)
		r.DELETE("/{id}", h.Delete)
	})
}

func registerCNAP(r Router, h *handler.CNAPHandler) {
	r.Group("/cnap", func(r Router) {
		r.Group("/services", func(r Router) {
			r.GET("/", h.SearchServices)
			r.POST("/search", h.SearchServices)
			r.POST("/", h.CreateService)
			r.GET("/{id}", h.GetService)
			r.PUT("/{id}", h.UpdateService)
			r.DELETE("/{id}", h.DeleteService)
		})
		r.Group("/accounts", func(r Router) {
			r.GET("/", h.SearchAccounts)
			r.POST("/search", h.SearchAccounts)
			r.POST("/", h.CreateAccount)
			r.GET("/{id}", h.GetAccount)
			r.DELETE("/{id}", h.DeleteAccount)
		})
	})
}

func registerRegistries(r Router, h *handler.RegistryHandler) {
	r.Group("/registries", func(r Router) {
		r.GET("/", h.Search)
		r.POST("/search", h.Search)
		r.POST("/", h.Create)
		r.GET("/{id}", h.Get)
		r.PUT("/{id}", h.Update)
		r.DELETE("/{id}", h.Delete)
		r.GET("/{id}/records", h.ListRecords)
		r.POST("/{id}/records", h.AddRecord)
		r.POST("/{id}/publish", h.Publish)
	})
}

func registerSearchLogs(r Router, h *handler.SearchLogHandler) {
	r.Group("/search-logs", func(r Router) {
		r.GET("/", h.Search)
		r.POST("/search", h.Search)
	})
}
