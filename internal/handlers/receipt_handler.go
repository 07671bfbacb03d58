package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "wealth/internal/errors"
	"wealth/internal/services"
)

// ReceiptHandler handles receipt scanning requests.
type ReceiptHandler struct {
	receiptService services.ReceiptServicer
}

// NewReceiptHandler creates a new ReceiptHandler.
func NewReceiptHandler(receiptService services.ReceiptServicer) *ReceiptHandler {
	return &ReceiptHandler{receiptService: receiptService}
}

// ScanReceipt extracts transaction data from an uploaded receipt
// @Summary     Scan a receipt
// @Description Upload a receipt image or PDF and extract transaction data
// @Tags        receipts
// @Accept      multipart/form-data
// @Produce     json
// @Security    BearerAuth
// @Param       file formData file true "Receipt file (PNG, JPEG, WEBP or PDF, max 8 MiB)"
// @Success     200 {object} services.ReceiptData "Extracted receipt data"
// @Failure     400 {object} ErrorResponse "Invalid or unsupported file"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     413 {object} ErrorResponse "File too large"
// @Failure     502 {object} ErrorResponse "Scan failed"
// @Router      /receipts/scan [post]
func (h *ReceiptHandler) ScanReceipt(c *gin.Context) {
	if _, err := getUserID(c); err != nil {
		respondWithError(c, err)
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "file is required"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}

	mimeType := fileHeader.Header.Get("Content-Type")

	result, err := h.receiptService.ScanReceipt(c.Request.Context(), data, mimeType)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"receipt": result})
}
