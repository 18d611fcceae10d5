package router

import (
	"github.com/gin-gonic/gin"
	"github.com/shoppos/backend/internal/domain/staff"
	"github.com/shoppos/backend/internal/interfaces/http/handler"
	"github.com/shoppos/backend/internal/interfaces/http/middleware"
)

// Handlers are the handlers of the till API
type Handlers struct {
	System         *handler.SystemHandler
	BusinessDay    *handler.BusinessDayHandler
	Drawer         *handler.DrawerHandler
	CountSheet     *handler.CountSheetHandler
	Reconciliation *handler.ReconciliationHandler
	Sale           *handler.SaleHandler
	ExchangeRate   *handler.ExchangeRateHandler
	Staff          *handler.StaffHandler
}

// managerOnly admits shop owners and admins
func managerOnly() gin.HandlerFunc {
	return middleware.RequireRole(staff.RoleOwner, staff.RoleAdmin)
}

// SystemRoutes are mounted outside the shop scope and need no token
func SystemRoutes(h *handler.SystemHandler) *DomainGroup {
	return NewDomainGroup("system", "/system").
		GET("/info", h.GetSystemInfo).
		GET("/ping", h.Ping).
		GET("/health", h.Health)
}

// ShopRoutes returns the shop-scoped route groups
func ShopRoutes(h Handlers) []*DomainGroup {
	day := NewDomainGroup("business-day", "").
		GET("/day", h.BusinessDay.Current).
		POST("/day/open", managerOnly(), h.BusinessDay.Open).
		POST("/day/close", managerOnly(), h.BusinessDay.Close).
		GET("/days", h.BusinessDay.List).
		GET("/days/:date", h.BusinessDay.Get).
		GET("/days/:date/archives", managerOnly(), h.Reconciliation.ArchivesForDay).
		POST("/days/:date/reconciled", managerOnly(), h.Reconciliation.MarkReconciled)

	drawers := NewDomainGroup("drawers", "/drawers").
		GET("", managerOnly(), h.Drawer.List).
		GET("/:cashier_id", h.Drawer.Get).
		PUT("/:cashier_id/float", managerOnly(), h.Drawer.SetFloat).
		POST("/:cashier_id/settle", h.Drawer.Settle)

	denominations := NewDomainGroup("denominations", "/denominations").
		GET("", h.CountSheet.Denominations)

	sheets := NewDomainGroup("count-sheets", "/count-sheets").
		GET("", managerOnly(), h.CountSheet.List).
		GET("/:cashier_id", h.CountSheet.Get).
		PUT("/:cashier_id", h.CountSheet.Save).
		POST("/:cashier_id/recompute", h.CountSheet.Recompute).
		POST("/:cashier_id/complete", h.CountSheet.Complete).
		POST("/:cashier_id/review", managerOnly(), h.CountSheet.Review)

	recon := NewDomainGroup("reconciliation", "/reconciliation").
		Use(managerOnly()).
		GET("", h.Reconciliation.Get).
		POST("/start", h.Reconciliation.Start).
		POST("/await-counts", h.Reconciliation.AwaitCounts).
		GET("/summary", h.Reconciliation.Summary).
		POST("/complete", h.Reconciliation.Complete)

	archives := NewDomainGroup("archives", "/archives").
		Use(managerOnly()).
		GET("", h.Reconciliation.ListArchives)

	sales := NewDomainGroup("sales", "").
		POST("/sales", h.Sale.RecordSale).
		GET("/sales", managerOnly(), h.Sale.ListSales).
		POST("/refunds", h.Sale.RecordRefund).
		POST("/staff-lunches", h.Sale.RecordStaffLunch).
		GET("/staff-lunches", managerOnly(), h.Sale.ListStaffLunches)

	rates := NewDomainGroup("exchange-rates", "/exchange-rates").
		GET("", h.ExchangeRate.List).
		POST("", managerOnly(), h.ExchangeRate.Record).
		GET("/convert", h.ExchangeRate.Convert)

	staffRoutes := NewDomainGroup("staff", "").
		GET("/cashiers", managerOnly(), h.Staff.ListCashiers).
		POST("/cashiers", managerOnly(), h.Staff.RegisterCashier).
		GET("/cashiers/:user_id", managerOnly(), h.Staff.GetCashier).
		POST("/cashiers/:user_id/deactivate", managerOnly(), h.Staff.DeactivateCashier).
		POST("/cashiers/:user_id/activate", managerOnly(), h.Staff.ActivateCashier).
		POST("/shifts/start", h.Staff.StartShift).
		POST("/shifts/end", h.Staff.EndShift).
		GET("/shifts", managerOnly(), h.Staff.ListShifts)

	return []*DomainGroup{day, drawers, denominations, sheets, recon, archives, sales, rates, staffRoutes}
}

// Mount registers the system and shop routes on r
func Mount(r *Router, h Handlers) {
	if h.System != nil {
		r.Register(SystemRoutes(h.System))
	}
	for _, g := range ShopRoutes(h) {
		r.RegisterShop(g)
	}
	r.Setup()
}
