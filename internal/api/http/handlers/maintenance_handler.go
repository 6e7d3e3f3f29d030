package handlers

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/queue-repair/internal/api/dto"
	"github.com/spec-kit/queue-repair/internal/service"
	apperrors "github.com/spec-kit/queue-repair/pkg/util"
)

// MaintenanceHandler exposes export and cleanup.
type MaintenanceHandler struct {
	service   *service.TicketService
	exportDir string
	now       func() time.Time
}

func NewMaintenanceHandler(ticketService *service.TicketService, exportDir string) *MaintenanceHandler {
	return &MaintenanceHandler{service: ticketService, exportDir: exportDir, now: time.Now}
}

// Export POST /exports.
func (h *MaintenanceHandler) Export(c *fiber.Ctx) error {
	var req dto.ExportRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewValidationError("invalid payload", nil)
		}
	}
	result, err := h.service.Export(c.UserContext(), h.exportDir, req.Search)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.ExportResponse{Path: result.Path, Count: result.Count}})
}

// Cleanup POST /maintenance/cleanup.
func (h *MaintenanceHandler) Cleanup(c *fiber.Ctx) error {
	removed, err := h.service.Cleanup(c.UserContext(), h.now())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.CleanupResponse{Removed: removed}})
}
