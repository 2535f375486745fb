package handlers

import (
	"errors"
	"strconv"

	"etkin.link/configs/configslog"
	"etkin.link/pkg/queryparams"
	"etkin.link/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// FormHandler panel tarafındaki form tanımı uç noktalarını yönetir.
type FormHandler struct {
	formService services.IFormService
}

// NewFormHandler yeni bir FormHandler örneği oluşturur.
func NewFormHandler() *FormHandler {
	return &FormHandler{formService: services.NewFormService()}
}

// currentUserID middleware'in yerleştirdiği oturum kullanıcısını döndürür.
func currentUserID(c *fiber.Ctx) uint {
	userID, _ := c.Locals("userID").(uint)
	return userID
}

// parseIDParam URL parametresindeki sayısal ID'yi çözer.
func parseIDParam(c *fiber.Ctx, name string) (uint, error) {
	raw := c.Params(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, errors.New("geçersiz ID parametresi: " + raw)
	}
	return uint(id), nil
}

// serviceErrorStatus servis hatasını HTTP durum koduna çevirir.
// Eşleşmeyen her hata 500'dür ve çağıran tarafından loglanır.
func serviceErrorStatus(err error) int {
	var fieldErr *services.FieldValidationError
	switch {
	case errors.Is(err, services.ErrFormValidation),
		errors.Is(err, services.ErrFormInvalidInput),
		errors.Is(err, services.ErrSubmissionInvalidInput),
		errors.As(err, &fieldErr),
		errors.Is(err, services.ErrSubmissionValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, services.ErrFormForbidden),
		errors.Is(err, services.ErrFormAccessDenied):
		return fiber.StatusForbidden
	case errors.Is(err, services.ErrFormNotFound),
		errors.Is(err, services.ErrFieldNotFound),
		errors.Is(err, services.ErrEventNotFound),
		errors.Is(err, services.ErrUserNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, services.ErrFormInactive),
		errors.Is(err, services.ErrFormCapacityReached),
		errors.Is(err, services.ErrEventFormQuota):
		return fiber.StatusConflict
	}
	return fiber.StatusInternalServerError
}

// respondServiceError hata gövdesini yazar; beklenmeyenleri loglar.
func respondServiceError(c *fiber.Ctx, err error) error {
	status := serviceErrorStatus(err)
	if status == fiber.StatusInternalServerError {
		configslog.Log.Error("Panel: beklenmeyen servis hatası",
			zap.String("path", c.Path()), zap.Error(err))
		return c.Status(status).JSON(fiber.Map{"error": "beklenmeyen bir hata oluştu"})
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

// ListForms oturum kullanıcısının formlarını sayfalayarak döndürür.
// GET /panel/forms?page=1&perPage=20&name=...&status=...
func (h *FormHandler) ListForms(c *fiber.Ctx) error {
	var params queryparams.ListParams
	if err := c.QueryParser(&params); err != nil {
		params = queryparams.DefaultListParams("created_at")
	}

	result, err := h.formService.GetFormsForUser(c.UserContext(), currentUserID(c), params)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(result)
}

// CreateForm yeni form oluşturur.
// POST /panel/events/:eventID/forms
func (h *FormHandler) CreateForm(c *fiber.Ctx) error {
	eventID, err := parseIDParam(c, "eventID")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var input services.FormInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "geçersiz istek gövdesi"})
	}

	form, err := h.formService.CreateForm(c.UserContext(), currentUserID(c), eventID, input)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(form)
}

// GetForm tek formu alanlarıyla döndürür.
// GET /panel/forms/:id
func (h *FormHandler) GetForm(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	form, err := h.formService.GetFormByID(c.UserContext(), id, currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(form)
}

// UpdateForm formu ve alan listesini günceller.
// PUT /panel/forms/:id
func (h *FormHandler) UpdateForm(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var input services.FormInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "geçersiz istek gövdesi"})
	}

	form, err := h.formService.UpdateForm(c.UserContext(), id, currentUserID(c), input)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(form)
}

// DeleteForm formu ve bağlı kayıtlarını kaldırır.
// DELETE /panel/forms/:id
func (h *FormHandler) DeleteForm(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if err := h.formService.DeleteForm(c.UserContext(), id, currentUserID(c)); err != nil {
		return respondServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// DuplicateForm formun kopyasını oluşturur.
// POST /panel/forms/:id/duplicate
func (h *FormHandler) DuplicateForm(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	form, err := h.formService.DuplicateForm(c.UserContext(), id, currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(form)
}

type reorderRequest struct {
	Direction string `json:"direction" form:"direction"`
}

// ReorderField alanı bir basamak yukarı/aşağı taşır.
// POST /panel/forms/:id/fields/:fieldID/reorder
func (h *FormHandler) ReorderField(c *fiber.Ctx) error {
	formID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	fieldID, err := parseIDParam(c, "fieldID")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var req reorderRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "geçersiz istek gövdesi"})
	}

	err = h.formService.ReorderField(c.UserContext(), formID, currentUserID(c), fieldID, services.ReorderDirection(req.Direction))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
