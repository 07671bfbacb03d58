package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"wealth/internal/services"
)

// CronHandler exposes scheduled jobs to an external cron trigger.
type CronHandler struct {
	recurringService services.RecurringServicer
}

// NewCronHandler creates a new CronHandler.
func NewCronHandler(recurringService services.RecurringServicer) *CronHandler {
	return &CronHandler{recurringService: recurringService}
}

// ProcessRecurringTransactions runs the recurrence scheduler
// @Summary     Process recurring transactions
// @Description Materialize all due recurring transactions. Intended for an external cron caller.
// @Tags        cron
// @Produce     json
// @Param       Authorization header string true "Bearer cron secret"
// @Success     200 {object} services.RecurringRunReport "Run report"
// @Failure     401 {object} ErrorResponse "Invalid cron secret"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /cron/recurring-transactions [get]
func (h *CronHandler) ProcessRecurringTransactions(c *gin.Context) {
	report, err := h.recurringService.ProcessDueTransactions(time.Now())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "report": report})
}
