package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-intake/internal/api/dto"
	"github.com/spec-kit/helpdesk-intake/internal/auth"
	"github.com/spec-kit/helpdesk-intake/internal/service"
	apperrors "github.com/spec-kit/helpdesk-intake/pkg/util/errorutil"
)

// IntakeHandler accepts relay deliveries.
type IntakeHandler struct {
	service *service.IntakeService
}

// NewIntakeHandler constructs handler.
func NewIntakeHandler(intakeService *service.IntakeService) *IntakeHandler {
	return &IntakeHandler{service: intakeService}
}

// Email POST /intake/email.
func (h *IntakeHandler) Email(c *fiber.Ctx) error {
	identity, _ := auth.IdentityFromContext(c)
	var req dto.IntakeEmailRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewInvalidEvent("invalid payload")
	}
	receipt, err := h.service.Process(c.UserContext(), identity, req.ToEvent())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewIntakeReceiptResponse(receipt)})
}
