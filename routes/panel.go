package routes

import (
	panel_handlers "etkin.link/handlers/panel"
	"etkin.link/middlewares"

	"github.com/gofiber/fiber/v2"
)

// registerPanelRoutes /panel altındaki rotaları ve middleware'leri tanımlar.
// Form sahipleri (ve sistem kullanıcıları) içindir; oturum zorunludur.
func registerPanelRoutes(app *fiber.App) {
	homeHandler := panel_handlers.NewHomeHandler()
	formHandler := panel_handlers.NewFormHandler()
	analyticsHandler := panel_handlers.NewAnalyticsHandler()

	panelGroup := app.Group("/panel")
	panelGroup.Use(middlewares.AuthMiddleware)

	// --- Panel özeti ---
	panelGroup.Get("/home", homeHandler.Home)

	// --- Form tanımları ---
	panelGroup.Get("/forms", formHandler.ListForms)
	panelGroup.Post("/events/:eventID/forms", formHandler.CreateForm)
	panelGroup.Get("/forms/:id", formHandler.GetForm)
	panelGroup.Put("/forms/:id", formHandler.UpdateForm)
	panelGroup.Delete("/forms/:id", formHandler.DeleteForm)
	panelGroup.Post("/forms/:id/duplicate", formHandler.DuplicateForm)

	// --- Alan sıralama ---
	panelGroup.Post("/forms/:id/fields/:fieldID/reorder", formHandler.ReorderField)

	// --- İstatistik ve dışa aktarma ---
	panelGroup.Get("/forms/:id/analytics", analyticsHandler.GetAnalytics)
	panelGroup.Get("/forms/:id/submissions", analyticsHandler.ListSubmissions)
	panelGroup.Get("/forms/:id/export", analyticsHandler.ExportCSV)
}
