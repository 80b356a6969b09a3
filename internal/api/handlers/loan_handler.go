package handlers

import (
	"errors"

	"microcred/internal/dto"
	"microcred/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// LoanHandler exposes the static application scoring surface and the admin
// views built on top of it.
type LoanHandler struct {
	loanService *service.LoanService
	logger      *zap.Logger
}

func NewLoanHandler(loanService *service.LoanService, logger *zap.Logger) *LoanHandler {
	return &LoanHandler{
		loanService: loanService,
		logger:      logger,
	}
}

// Apply godoc
// @Summary Apply for a loan
// @Description Submit a loan application and receive a credit assessment
// @Tags loans
// @Accept json
// @Produce json
// @Param request body dto.LoanApplicationRequest true "Loan application"
// @Security Bearer
// @Success 201 {object} dto.LoanApplicationResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /api/v1/loans/apply [post]
func (h *LoanHandler) Apply(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	var req dto.LoanApplicationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	resp, err := h.loanService.Apply(c.Context(), userID, &req)
	if err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": verr.Error(),
			})
		}
		h.logger.Error("Loan application failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Loan application failed",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(resp)
}

// GetCreditScore godoc
// @Summary Get loan credit assessment
// @Description Get the authenticated user's latest loan credit assessment
// @Tags loans
// @Produce json
// @Security Bearer
// @Success 200 {object} dto.CreditScoreDetailResponse
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/v1/loans/credit-score [get]
func (h *LoanHandler) GetCreditScore(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	resp, err := h.loanService.GetCreditScore(c.Context(), userID)
	if err != nil {
		if err == service.ErrScoreNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "No credit score found",
			})
		}
		h.logger.Error("Failed to load credit score", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load credit score",
		})
	}

	return c.JSON(resp)
}

// Dashboard godoc
// @Summary Admin dashboard aggregates
// @Description Portfolio-level aggregates across all scored applications
// @Tags admin
// @Produce json
// @Security Bearer
// @Success 200 {object} dto.AdminDashboardResponse
// @Failure 401 {object} map[string]string
// @Router /api/v1/admin/dashboard [get]
func (h *LoanHandler) Dashboard(c *fiber.Ctx) error {
	resp, err := h.loanService.Dashboard(c.Context())
	if err != nil {
		h.logger.Error("Failed to build dashboard", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to build dashboard",
		})
	}

	return c.JSON(resp)
}

// ListUsers godoc
// @Summary List users with assessments
// @Description Every user joined with their latest application and credit assessment
// @Tags admin
// @Produce json
// @Security Bearer
// @Success 200 {array} dto.AdminUserSummary
// @Failure 401 {object} map[string]string
// @Router /api/v1/admin/users [get]
func (h *LoanHandler) ListUsers(c *fiber.Ctx) error {
	resp, err := h.loanService.ListUsers(c.Context())
	if err != nil {
		h.logger.Error("Failed to list users", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list users",
		})
	}

	return c.JSON(resp)
}
