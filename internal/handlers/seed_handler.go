package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "wealth/internal/errors"
	"wealth/internal/services"
)

// SeedHandler generates demo data. Only mounted in development.
type SeedHandler struct {
	seedService services.SeedServicer
}

// NewSeedHandler creates a new SeedHandler.
func NewSeedHandler(seedService services.SeedServicer) *SeedHandler {
	return &SeedHandler{seedService: seedService}
}

// SeedRequest represents the request payload for seeding demo data
type SeedRequest struct {
	AccountID string `json:"account_id" binding:"required,uuid"`
	Days      int    `json:"days" binding:"omitempty,min=1,max=365"`
}

// SeedTransactions replaces an account's ledger with demo data
// @Summary     Seed demo transactions
// @Description Replace the account's transactions with randomized demo data (development only)
// @Tags        seed
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body SeedRequest true "Seed parameters"
// @Success     200 {object} services.SeedSummary "Seed summary"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /seed [post]
func (h *SeedHandler) SeedTransactions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req SeedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	summary, err := h.seedService.SeedTransactions(userID, req.AccountID, req.Days)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"seed": summary})
}
