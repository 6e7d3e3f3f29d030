package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/queue-repair/internal/api/dto"
	"github.com/spec-kit/queue-repair/internal/service"
	apperrors "github.com/spec-kit/queue-repair/pkg/util"
)

// TicketsHandler manages ticket endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticket, err := h.service.CreateTicket(c.UserContext(), service.CreateTicketInput{
		Device:    req.Device,
		Serial:    req.Serial,
		Issue:     req.Issue,
		Submitted: req.Submitted,
		Contact:   req.Contact,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewTicketResponse(*ticket)})
}

// ListTickets GET /tickets?search=&sort=.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	view := h.service.Filter(c.Query("search"))
	tickets := view.Tickets
	if field := strings.TrimSpace(c.Query("sort")); field != "" {
		sorted, err := service.SortTickets(tickets, field)
		if err != nil {
			return err
		}
		tickets = sorted
	}
	return c.JSON(fiber.Map{
		"data": dto.NewTicketResponses(tickets),
		"meta": dto.ListMeta{Matched: view.Matched, Total: view.Total, Summary: view.Summary()},
	})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	id, err := ticketID(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.GetTicket(id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(*ticket)})
}

// TicketDetails GET /tickets/:id/details returns the plain-text block.
func (h *TicketsHandler) TicketDetails(c *fiber.Ctx) error {
	id, err := ticketID(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.GetTicket(id)
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.SendString(service.Details(*ticket))
}

// MarkRepaired POST /tickets/:id/repaired.
func (h *TicketsHandler) MarkRepaired(c *fiber.Ctx) error {
	id, err := ticketID(c)
	if err != nil {
		return err
	}
	result, err := h.service.MarkRepaired(c.UserContext(), id)
	if err != nil {
		return err
	}
	return transitionResponse(c, result)
}

// CancelRepair POST /tickets/:id/cancel.
func (h *TicketsHandler) CancelRepair(c *fiber.Ctx) error {
	id, err := ticketID(c)
	if err != nil {
		return err
	}
	result, err := h.service.CancelRepair(c.UserContext(), id)
	if err != nil {
		return err
	}
	return transitionResponse(c, result)
}

// DeleteTicket DELETE /tickets/:id?confirm=true.
func (h *TicketsHandler) DeleteTicket(c *fiber.Ctx) error {
	id, err := ticketID(c)
	if err != nil {
		return err
	}
	if !c.QueryBool("confirm") {
		return apperrors.NewValidationError("deletion must be confirmed", map[string]any{"confirm": "must be true"})
	}
	ticket, err := h.service.DeleteTicket(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(*ticket)})
}

func transitionResponse(c *fiber.Ctx, result service.TransitionResult) error {
	return c.JSON(fiber.Map{
		"data": dto.NewTicketResponse(result.Ticket),
		"meta": dto.TransitionMeta{Changed: result.Changed, Message: result.Message},
	})
}

func ticketID(c *fiber.Ctx) (int, error) {
	raw := c.Params("id")
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("invalid ticket id", map[string]any{"id": raw})
	}
	return id, nil
}
