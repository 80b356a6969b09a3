package handlers

import (
	"errors"
	"strconv"

	"microcred/internal/dto"
	"microcred/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TransactionHandler exposes the dynamic scoring surface: transaction
// ingestion, score reads and the score history ledger.
type TransactionHandler struct {
	scoringService *service.ScoringService
	logger         *zap.Logger
}

func NewTransactionHandler(scoringService *service.ScoringService, logger *zap.Logger) *TransactionHandler {
	return &TransactionHandler{
		scoringService: scoringService,
		logger:         logger,
	}
}

// RecordTransaction godoc
// @Summary Record a financial transaction
// @Description Ingest one transaction and atomically update the subject's credit score
// @Tags transactions
// @Accept json
// @Produce json
// @Param request body dto.RecordTransactionRequest true "Transaction"
// @Security Bearer
// @Success 201 {object} dto.RecordTransactionResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /api/v1/transactions [post]
func (h *TransactionHandler) RecordTransaction(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	var req dto.RecordTransactionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	resp, err := h.scoringService.RecordTransaction(c.Context(), userID, &req)
	if err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": verr.Error(),
			})
		}
		h.logger.Error("Failed to record transaction", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to record transaction",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(resp)
}

// ListTransactions godoc
// @Summary List recent transactions
// @Description List the authenticated user's most recent transactions
// @Tags transactions
// @Produce json
// @Param limit query int false "Maximum entries to return" default(20)
// @Security Bearer
// @Success 200 {object} dto.TransactionListResponse
// @Failure 401 {object} map[string]string
// @Router /api/v1/transactions [get]
func (h *TransactionHandler) ListTransactions(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	resp, err := h.scoringService.ListTransactions(c.Context(), userID, queryLimit(c))
	if err != nil {
		h.logger.Error("Failed to list transactions", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list transactions",
		})
	}

	return c.JSON(resp)
}

// ClearTransactions godoc
// @Summary Clear all transactions
// @Description Delete the authenticated user's transactions and score history
// @Tags transactions
// @Produce json
// @Security Bearer
// @Success 200 {object} dto.ClearSubjectResponse
// @Failure 401 {object} map[string]string
// @Router /api/v1/transactions [delete]
func (h *TransactionHandler) ClearTransactions(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	resp, err := h.scoringService.ClearSubject(c.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to clear transactions", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to clear transactions",
		})
	}

	return c.JSON(resp)
}

// GetScore godoc
// @Summary Get current credit score
// @Description Recompute the authenticated user's dynamic credit score with full breakdown
// @Tags score
// @Produce json
// @Security Bearer
// @Success 200 {object} dto.ScoreResponse
// @Failure 401 {object} map[string]string
// @Router /api/v1/score [get]
func (h *TransactionHandler) GetScore(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	resp, err := h.scoringService.GetScore(c.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to compute score", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to compute score",
		})
	}

	return c.JSON(resp)
}

// GetScoreHistory godoc
// @Summary Get score change history
// @Description List the authenticated user's score changes, most recent first
// @Tags score
// @Produce json
// @Param limit query int false "Maximum entries to return" default(10)
// @Security Bearer
// @Success 200 {object} dto.ScoreHistoryResponse
// @Failure 401 {object} map[string]string
// @Router /api/v1/score/history [get]
func (h *TransactionHandler) GetScoreHistory(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	resp, err := h.scoringService.GetScoreHistory(c.Context(), userID, queryLimit(c))
	if err != nil {
		h.logger.Error("Failed to load score history", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load score history",
		})
	}

	return c.JSON(resp)
}

func getUserID(c *fiber.Ctx) (uuid.UUID, error) {
	userIDStr, ok := c.Locals("userID").(string)
	if !ok {
		return uuid.Nil, fiber.ErrUnauthorized
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return uuid.Nil, err
	}

	return userID, nil
}

func queryLimit(c *fiber.Ctx) int {
	limit, err := strconv.Atoi(c.Query("limit", "0"))
	if err != nil || limit < 0 {
		return 0
	}
	return limit
}
