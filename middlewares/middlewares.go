package middlewares

import (
	"github.com/gofiber/fiber/v2"
)

// AuthMiddleware oturum açmış kullanıcı ister; yoksa 401 döner.
func AuthMiddleware(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok || userID == 0 {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "oturum açmanız gerekiyor"})
	}
	return c.Next()
}

// GuestMiddleware yalnızca oturumu olmayanlara izin verir (login/register).
func GuestMiddleware(c *fiber.Ctx) error {
	if userID, ok := c.Locals("userID").(uint); ok && userID != 0 {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "zaten oturum açık"})
	}
	return c.Next()
}
