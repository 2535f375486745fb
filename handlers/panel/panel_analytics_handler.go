package handlers

import (
	"fmt"

	"etkin.link/services"

	"github.com/gofiber/fiber/v2"
)

// AnalyticsHandler panel tarafındaki istatistik ve dışa aktarma uç noktaları.
type AnalyticsHandler struct {
	analyticsService  services.IAnalyticsService
	exportService     services.IExportService
	submissionService services.ISubmissionService
}

// NewAnalyticsHandler yeni bir AnalyticsHandler örneği oluşturur.
func NewAnalyticsHandler() *AnalyticsHandler {
	return &AnalyticsHandler{
		analyticsService:  services.NewAnalyticsService(),
		exportService:     services.NewExportService(),
		submissionService: services.NewSubmissionService(),
	}
}

// GetAnalytics formun pencere içi istatistiklerini döndürür.
// GET /panel/forms/:id/analytics?range=7d|30d|90d (varsayılan 30d)
func (h *AnalyticsHandler) GetAnalytics(c *fiber.Ctx) error {
	formID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	rng := services.ParseRange(c.Query("range"))
	report, err := h.analyticsService.ComputeAnalytics(c.UserContext(), formID, currentUserID(c), rng)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(report)
}

// ListSubmissions formun tüm gönderimlerini yeniden eskiye döndürür.
// GET /panel/forms/:id/submissions
func (h *AnalyticsHandler) ListSubmissions(c *fiber.Ctx) error {
	formID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	submissions, err := h.submissionService.GetSubmissionsForOwner(c.UserContext(), formID, currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"data": submissions, "total": len(submissions)})
}

// ExportCSV formun gönderimlerini CSV dosyası olarak indirir.
// GET /panel/forms/:id/export
func (h *AnalyticsHandler) ExportCSV(c *fiber.Ctx) error {
	formID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	data, err := h.exportService.ExportCSV(c.UserContext(), formID, currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}

	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="form-%d-submissions.csv"`, formID))
	return c.Send(data)
}
