package routes

import (
	public_handlers "etkin.link/handlers/public"

	"github.com/gofiber/fiber/v2"
)

// registerPublicFormRoutes formu dolduracak kişilerin kullandığı uçları tanımlar.
// Oturum gerekmez; is_public=false formların erişim kontrolü serviste yapılır.
func registerPublicFormRoutes(app *fiber.App) {
	formHandler := public_handlers.NewFormHandler()

	app.Get("/forms/:id", formHandler.ShowForm)
	app.Post("/forms/:id", formHandler.SubmitForm)
}
