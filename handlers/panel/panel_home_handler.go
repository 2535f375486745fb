package handlers

import (
	"etkin.link/services"

	"github.com/gofiber/fiber/v2"
)

// HomeHandler panel giriş ekranının özet verilerini sağlar.
type HomeHandler struct {
	formService services.IFormService
}

// NewHomeHandler yeni bir HomeHandler örneği oluşturur.
func NewHomeHandler() *HomeHandler {
	return &HomeHandler{formService: services.NewFormService()}
}

// Home oturum kullanıcısının panel özetini döndürür.
// GET /panel/home
func (h *HomeHandler) Home(c *fiber.Ctx) error {
	count, err := h.formService.GetFormCountForUser(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"form_count": count})
}
