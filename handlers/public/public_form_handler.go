package handlers

import (
	"errors"
	"strconv"
	"strings"

	"etkin.link/configs/configslog"
	"etkin.link/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Gönderim uç noktasında alan cevapları "field_<id>" anahtarlarıyla taşınır.
const fieldKeyPrefix = "field_"

// FormHandler herkese açık form görüntüleme ve doldurma uç noktaları.
type FormHandler struct {
	formService       services.IFormService
	submissionService services.ISubmissionService
}

// NewFormHandler yeni bir FormHandler örneği oluşturur.
func NewFormHandler() *FormHandler {
	return &FormHandler{
		formService:       services.NewFormService(),
		submissionService: services.NewSubmissionService(),
	}
}

// viewerUserID oturum varsa kullanıcı ID'sini, yoksa nil döndürür.
// Herkese açık uçlarda oturum zorunlu değildir.
func viewerUserID(c *fiber.Ctx) *uint {
	if userID, ok := c.Locals("userID").(uint); ok && userID != 0 {
		return &userID
	}
	return nil
}

func parseFormID(c *fiber.Ctx) (uint, error) {
	raw := c.Params("id")
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, errors.New("geçersiz form ID: " + raw)
	}
	return uint(id), nil
}

func submitErrorStatus(err error) int {
	var fieldErr *services.FieldValidationError
	switch {
	case errors.As(err, &fieldErr),
		errors.Is(err, services.ErrSubmissionValidation),
		errors.Is(err, services.ErrSubmissionInvalidInput):
		return fiber.StatusBadRequest
	case errors.Is(err, services.ErrFormAccessDenied),
		errors.Is(err, services.ErrFormForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, services.ErrFormNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, services.ErrFormInactive),
		errors.Is(err, services.ErrFormCapacityReached):
		return fiber.StatusConflict
	}
	return fiber.StatusInternalServerError
}

// ShowForm formu doldurulacak haliyle sunar.
// GET /forms/:id
func (h *FormHandler) ShowForm(c *fiber.Ctx) error {
	formID, err := parseFormID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	form, err := h.formService.GetFormForViewer(c.UserContext(), formID, viewerUserID(c))
	if err != nil {
		status := submitErrorStatus(err)
		if status == fiber.StatusInternalServerError {
			configslog.Log.Error("ShowForm error", zap.Uint("form_id", formID), zap.Error(err))
			return c.Status(status).Render("errors/500", fiber.Map{"Title": "Hata"}, "layouts/error_layout")
		}
		return c.Status(status).Render("errors/404", fiber.Map{"Title": "Form Bulunamadı"}, "layouts/error_layout")
	}

	if c.Accepts("text/html", "application/json") == "application/json" {
		return c.JSON(form)
	}
	return c.Render("public/form_fill", fiber.Map{
		"Title": form.Title,
		"Form":  form,
	}, "layouts/public")
}

// SubmitForm cevapları doğrulayıp kaydeder.
// POST /forms/:id — gövde application/x-www-form-urlencoded (field_<id>
// anahtarları, checkbox için tekrarlı) veya aynı anahtarlarla JSON olabilir.
func (h *FormHandler) SubmitForm(c *fiber.Ctx) error {
	formID, err := parseFormID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	rawAnswers, err := parseRawAnswers(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	submission, err := h.submissionService.Submit(c.UserContext(), formID, viewerUserID(c), rawAnswers)
	if err != nil {
		status := submitErrorStatus(err)
		if status == fiber.StatusInternalServerError {
			configslog.Log.Error("SubmitForm error", zap.Uint("form_id", formID), zap.Error(err))
			return c.Status(status).JSON(fiber.Map{"error": "gönderim kaydedilemedi"})
		}
		body := fiber.Map{"error": err.Error()}
		var fieldErr *services.FieldValidationError
		if errors.As(err, &fieldErr) {
			body["field_id"] = fieldErr.FieldID
			body["field_label"] = fieldErr.Label
			body["reason"] = fieldErr.Reason
		}
		return c.Status(status).JSON(body)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"key":          submission.Key,
		"submitted_at": submission.CreatedAt,
	})
}

// parseRawAnswers istek gövdesindeki field_<id> anahtarlarını ham cevap
// haritasına çevirir. Form kodlamasında tekrarlanan anahtarlar (checkbox)
// dilim olur; JSON gövde olduğu gibi aktarılır.
func parseRawAnswers(c *fiber.Ctx) (map[uint]any, error) {
	rawAnswers := make(map[uint]any)

	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		var body map[string]any
		if err := c.BodyParser(&body); err != nil {
			return nil, errors.New("geçersiz istek gövdesi")
		}
		for key, value := range body {
			fieldID, ok := parseFieldKey(key)
			if !ok {
				continue
			}
			rawAnswers[fieldID] = value
		}
		return rawAnswers, nil
	}

	c.Request().PostArgs().VisitAll(func(key, _ []byte) {
		fieldID, ok := parseFieldKey(string(key))
		if !ok {
			return
		}
		if _, seen := rawAnswers[fieldID]; seen {
			return
		}
		values := c.Request().PostArgs().PeekMulti(string(key))
		if len(values) == 1 {
			rawAnswers[fieldID] = string(values[0])
			return
		}
		list := make([]string, 0, len(values))
		for _, v := range values {
			list = append(list, string(v))
		}
		rawAnswers[fieldID] = list
	})
	return rawAnswers, nil
}

// parseFieldKey "field_12" -> 12. Tanınmayan anahtarlar sessizce atlanır.
func parseFieldKey(key string) (uint, bool) {
	if !strings.HasPrefix(key, fieldKeyPrefix) {
		return 0, false
	}
	id, err := strconv.ParseUint(key[len(fieldKeyPrefix):], 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
