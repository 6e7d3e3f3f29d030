package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/queue-repair/internal/api/dto"
	"github.com/spec-kit/queue-repair/internal/domain"
	"github.com/spec-kit/queue-repair/internal/service"
)

// DashboardHandler serves aggregate statistics.
type DashboardHandler struct {
	service *service.TicketService
}

func NewDashboardHandler(ticketService *service.TicketService) *DashboardHandler {
	return &DashboardHandler{service: ticketService}
}

// Get GET /dashboard.
func (h *DashboardHandler) Get(c *fiber.Ctx) error {
	board := h.service.Dashboard()
	resp := dto.DashboardResponse{
		Total:  board.Stats.Total,
		Counts: map[string]int{},
		Recent: make([]dto.ActivityEntry, 0, len(board.Recent)),
	}
	for _, status := range []domain.TicketStatus{domain.TicketStatusPending, domain.TicketStatusRepaired, domain.TicketStatusCanceled} {
		resp.Counts[string(status)] = board.Stats.Count(status)
	}
	if pct, ok := board.Stats.Percentages(); ok {
		resp.Percentages = make(map[string]float64, len(pct))
		for status, value := range pct {
			resp.Percentages[string(status)] = value
		}
	} else {
		resp.NoData = true
	}
	for _, t := range board.Recent {
		resp.Recent = append(resp.Recent, dto.ActivityEntry{
			ID:            t.ID,
			Status:        t.Status,
			Device:        t.Device,
			DateSubmitted: t.DateSubmitted,
			Line:          service.ActivityLine(t),
		})
	}
	return c.JSON(fiber.Map{"data": resp})
}
