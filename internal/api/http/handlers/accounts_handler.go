package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-intake/internal/api/dto"
	"github.com/spec-kit/helpdesk-intake/internal/auth"
	"github.com/spec-kit/helpdesk-intake/internal/service"
	apperrors "github.com/spec-kit/helpdesk-intake/pkg/util/errorutil"
)

// AccountsHandler exposes login and password endpoints.
type AccountsHandler struct {
	service *service.AccountService
}

// NewAccountsHandler constructs handler.
func NewAccountsHandler(accountService *service.AccountService) *AccountsHandler {
	return &AccountsHandler{service: accountService}
}

// Login POST /auth/login.
func (h *AccountsHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	token, expiresAt, err := h.service.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.LoginResponse{Token: token, ExpiresAt: expiresAt}})
}

// ResetPassword POST /admin/users/:id/password.
func (h *AccountsHandler) ResetPassword(c *fiber.Ctx) error {
	identity, _ := auth.IdentityFromContext(c)
	var req dto.PasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.service.ResetPassword(c.UserContext(), identity, c.Params("id"), req.Password); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.PasswordUpdatedResponse{Status: "password_updated"}})
}

// ChangeOwnPassword POST /auth/password.
func (h *AccountsHandler) ChangeOwnPassword(c *fiber.Ctx) error {
	identity, _ := auth.IdentityFromContext(c)
	var req dto.PasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.service.ChangeOwnPassword(c.UserContext(), identity, req.Password); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.PasswordUpdatedResponse{Status: "password_updated"}})
}
