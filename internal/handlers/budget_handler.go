package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "wealth/internal/errors"
	"wealth/internal/money"
	"wealth/internal/services"
)

// BudgetHandler handles budget-related requests.
type BudgetHandler struct {
	budgetService services.BudgetServicer
	auditService  services.AuditServicer
}

// NewBudgetHandler creates a new BudgetHandler.
func NewBudgetHandler(budgetService services.BudgetServicer, auditService services.AuditServicer) *BudgetHandler {
	return &BudgetHandler{budgetService: budgetService, auditService: auditService}
}

// UpdateBudgetRequest represents the request payload for setting the budget
type UpdateBudgetRequest struct {
	Amount money.Amount `json:"amount"`
}

// GetCurrentBudget returns the user's budget and month-to-date spending
// @Summary     Get current budget
// @Description Get the user's budget together with this month's expenses for an account
// @Tags        budget
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       account_id query string true "Account ID"
// @Success     200 {object} services.BudgetStatus "Budget status"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budget [get]
func (h *BudgetHandler) GetCurrentBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	accountID := c.Query("account_id")
	if accountID == "" {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "account_id is required"))
		return
	}

	status, err := h.budgetService.GetCurrentBudget(userID, accountID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, status)
}

// UpdateBudget sets the user's monthly budget amount
// @Summary     Update budget
// @Description Set the user's monthly budget, creating it on first use
// @Tags        budget
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body UpdateBudgetRequest true "Budget amount"
// @Success     200 {object} models.Budget "Updated budget"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budget [put]
func (h *BudgetHandler) UpdateBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	budget, err := h.budgetService.UpdateBudget(userID, req.Amount)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_BUDGET", "budget", budget.ID, c.ClientIP(),
		map[string]interface{}{"amount": req.Amount.String()})

	c.JSON(http.StatusOK, gin.H{"budget": budget})
}
