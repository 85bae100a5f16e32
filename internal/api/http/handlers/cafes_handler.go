package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/barsan/reservation-service/internal/api/dto"
	"github.com/barsan/reservation-service/internal/auth"
	"github.com/barsan/reservation-service/internal/service"
)

// CafesHandler exposes cafe browsing and staff administration endpoints.
type CafesHandler struct {
	cafes *service.CafeService
}

// NewCafesHandler constructs handler.
func NewCafesHandler(cafeService *service.CafeService) *CafesHandler {
	return &CafesHandler{cafes: cafeService}
}

// List handles GET /api/cafes.
func (h *CafesHandler) List(c *fiber.Ctx) error {
	cafes, err := h.cafes.ListCafes(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": cafes})
}

// ListTables handles GET /api/cafes/:id/tables.
func (h *CafesHandler) ListTables(c *fiber.Ctx) error {
	tables, err := h.cafes.ListTables(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": tables})
}

// Create handles POST /api/cafes (admin staff only).
func (h *CafesHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Staff == nil {
		return fiber.NewError(http.StatusForbidden, "staff role required")
	}

	var req dto.CreateCafeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	cafe, err := h.cafes.CreateCafe(c.UserContext(), principal.Staff, req.Name, req.OpenTime, req.CloseTime)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": cafe})
}

// AddTable handles POST /api/cafes/:id/tables (staff only).
func (h *CafesHandler) AddTable(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Staff == nil {
		return fiber.NewError(http.StatusForbidden, "staff role required")
	}

	var req dto.CreateTableRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	table, err := h.cafes.AddTable(c.UserContext(), principal.Staff, c.Params("id"), req.Label, req.Capacity)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": table})
}

// SetTableActive handles PATCH /api/tables/:id/active (staff only).
func (h *CafesHandler) SetTableActive(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Staff == nil {
		return fiber.NewError(http.StatusForbidden, "staff role required")
	}

	var req dto.SetTableActiveRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	table, err := h.cafes.SetTableActive(c.UserContext(), principal.Staff, c.Params("id"), req.Active)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": table})
}
