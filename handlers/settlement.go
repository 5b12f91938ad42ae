package handlers

import (
	"context"
	"errors"
	"net/http"

	"casabay/models"
	"casabay/services/reconciliation"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SettlementHandler exposes the reconciliation surface: opening settlements,
// the pending view, and the approve/cancel decisions.
type SettlementHandler struct {
	Service reconciliation.Service
	Logger  *zap.Logger
}

// NewSettlementHandler creates a new SettlementHandler.
func NewSettlementHandler(svc reconciliation.Service, logger *zap.Logger) *SettlementHandler {
	return &SettlementHandler{Service: svc, Logger: logger}
}

// OpenSettlementHandler opens a pending settlement for a booking.
func (sh *SettlementHandler) OpenSettlementHandler(c *gin.Context) {
	var req models.OpenSettlementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	settlement, err := sh.Service.OpenSettlement(c.Request.Context(), req)
	if err != nil {
		sh.respondDomainError(c, err, "failed to open settlement")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"settlement": settlement})
}

// PendingSettlementsHandler returns the unified reconciliation view.
func (sh *SettlementHandler) PendingSettlementsHandler(c *gin.Context) {
	view, err := sh.Service.BuildPendingView(c.Request.Context())
	if err != nil {
		sh.Logger.Error("failed to build pending view", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build pending view"})
		return
	}
	c.JSON(http.StatusOK, view)
}

// ApproveSettlementHandler confirms a settlement by reference code.
func (sh *SettlementHandler) ApproveSettlementHandler(c *gin.Context) {
	sh.decideHandler(c, sh.Service.Approve)
}

// CancelSettlementHandler cancels a settlement by reference code.
func (sh *SettlementHandler) CancelSettlementHandler(c *gin.Context) {
	sh.decideHandler(c, sh.Service.Cancel)
}

func (sh *SettlementHandler) decideHandler(
	c *gin.Context,
	decide func(ctx context.Context, reference, actor string) (*models.SettlementDecision, error),
) {
	var input struct {
		ReferenceCode string `json:"reference_code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	actor := c.GetString("adminEmail")
	decision, err := decide(c.Request.Context(), input.ReferenceCode, actor)
	if err != nil {
		sh.respondDomainError(c, err, "failed to decide settlement")
		return
	}

	c.JSON(http.StatusOK, decision)
}

// respondDomainError maps reconciliation errors onto HTTP responses so the
// admin UI can show the specific reason for a rejection.
func (sh *SettlementHandler) respondDomainError(c *gin.Context, err error, logMsg string) {
	var finalized *reconciliation.AlreadyFinalizedError
	switch {
	case errors.Is(err, reconciliation.ErrSettlementNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "settlement not found"})
	case errors.Is(err, reconciliation.ErrBookingNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "booking not found"})
	case errors.As(err, &finalized):
		c.JSON(http.StatusConflict, gin.H{
			"error":      "settlement already finalized",
			"settlement": finalized.Settlement,
		})
	case errors.Is(err, reconciliation.ErrDuplicateActiveSettlement):
		c.JSON(http.StatusConflict, gin.H{"error": "booking already has a pending settlement; cancel it first"})
	case errors.Is(err, reconciliation.ErrUnknownSettlementKind):
		c.JSON(http.StatusBadRequest, gin.H{"error": "kind must be bank_transfer or cash"})
	default:
		sh.Logger.Error(logMsg, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
