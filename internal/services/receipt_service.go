package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	apperrors "wealth/internal/errors"
	"wealth/internal/logger"
	"wealth/internal/money"
)

// maxReceiptSize is the largest upload the scanner accepts.
const maxReceiptSize = 8 << 20

var allowedReceiptMIMETypes = map[string]bool{
	"image/png":       true,
	"image/jpeg":      true,
	"image/webp":      true,
	"application/pdf": true,
}

// receiptCategories are the categories the model may assign. Anything
// outside this list is coerced to other-expense.
var receiptCategories = map[string]bool{
	"housing":        true,
	"transportation": true,
	"groceries":      true,
	"utilities":      true,
	"entertainment":  true,
	"food":           true,
	"shopping":       true,
	"healthcare":     true,
	"education":      true,
	"travel":         true,
	"insurance":      true,
	"gifts":          true,
	"bills":          true,
	"other-expense":  true,
}

const receiptPrompt = "You are a receipt scanner for a personal finance application.\n\n" +
	"Analyze the attached receipt and output STRICT JSON only (no comments, no extra text).\n" +
	"Output a single JSON object with these fields:\n" +
	"- \"amount\": number, the total amount paid\n" +
	"- \"date\": string, ISO format \"YYYY-MM-DD\"\n" +
	"- \"description\": string, a brief summary of the purchase\n" +
	"- \"merchant_name\": string, the merchant or store name\n" +
	"- \"category\": string, one of: housing, transportation, groceries, utilities, " +
	"entertainment, food, shopping, healthcare, education, travel, insurance, gifts, bills, other-expense\n\n" +
	"If the document is not a receipt, output an empty JSON object {}.\n" +
	"Return ONLY valid raw JSON.\n" +
	"Do NOT wrap the response in code fences.\n" +
	"Do NOT use ```json or any Markdown.\n"

// contentGenerator abstracts the model call so the parsing and
// validation around it can be tested without network access.
type contentGenerator interface {
	generate(ctx context.Context, model, prompt string, data []byte, mimeType string) (string, error)
}

// geminiGenerator calls the Gemini API.
type geminiGenerator struct {
	client *genai.Client
}

func (g *geminiGenerator) generate(ctx context.Context, model, prompt string, data []byte, mimeType string) (string, error) {
	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: prompt},
				{
					InlineData: &genai.Blob{
						MIMEType: mimeType,
						Data:     data,
					},
				},
			},
		},
	}

	resp, err := g.client.Models.GenerateContent(ctx, model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	return resp.Text(), nil
}

// receiptService extracts structured transaction data from receipt
// uploads.
type receiptService struct {
	generator     contentGenerator
	primaryModel  string
	fallbackModel string
}

// NewReceiptService creates a new ReceiptServicer backed by the given
// Gemini client.
func NewReceiptService(client *genai.Client, primaryModel, fallbackModel string) ReceiptServicer {
	return &receiptService{
		generator:     &geminiGenerator{client: client},
		primaryModel:  primaryModel,
		fallbackModel: fallbackModel,
	}
}

// newReceiptServiceWithGenerator wires a custom generator. Tests use
// this to exercise the validation pipeline without calling the API.
func newReceiptServiceWithGenerator(g contentGenerator, primaryModel, fallbackModel string) ReceiptServicer {
	return &receiptService{generator: g, primaryModel: primaryModel, fallbackModel: fallbackModel}
}

// ScanReceipt extracts transaction data from a receipt image or PDF.
// The cheaper primary model is tried first; the fallback model gets one
// attempt when the primary errors or returns unusable JSON. Any failure
// after that surfaces as SCAN_FAILED with no partial result.
func (s *receiptService) ScanReceipt(ctx context.Context, data []byte, mimeType string) (*ReceiptData, error) {
	if !allowedReceiptMIMETypes[mimeType] {
		return nil, apperrors.WithMessage(apperrors.ErrUnsupportedFileType, "supported types are PNG, JPEG, WEBP and PDF")
	}
	if len(data) == 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "file is empty")
	}
	if len(data) > maxReceiptSize {
		return nil, apperrors.ErrFileTooLarge
	}

	text, err := s.generator.generate(ctx, s.primaryModel, receiptPrompt, data, mimeType)
	var result *ReceiptData
	if err == nil {
		result, err = parseReceiptJSON(text)
	}
	if err == nil {
		return result, nil
	}

	logger.Get().Warnw("primary receipt scan failed, retrying on fallback model",
		"primary_model", s.primaryModel,
		"fallback_model", s.fallbackModel,
		"error", err,
	)

	text, ferr := s.generator.generate(ctx, s.fallbackModel, receiptPrompt, data, mimeType)
	if ferr != nil {
		return nil, apperrors.Wrap(apperrors.ErrScanFailed, ferr)
	}
	result, err = parseReceiptJSON(text)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrScanFailed, err)
	}
	return result, nil
}

// rawReceipt is the wire shape the model is asked to produce.
type rawReceipt struct {
	Amount       *float64 `json:"amount"`
	Date         string   `json:"date"`
	Description  string   `json:"description"`
	MerchantName string   `json:"merchant_name"`
	Category     string   `json:"category"`
}

// parseReceiptJSON validates the model output and converts it to
// ReceiptData. Incomplete or malformed output is an error so the caller
// can retry or fail closed, never a partial result.
func parseReceiptJSON(raw string) (*ReceiptData, error) {
	clean := cleanModelJSON(raw)
	if clean == "" {
		return nil, fmt.Errorf("empty model response")
	}

	var parsed rawReceipt
	if err := json.Unmarshal([]byte(clean), &parsed); err != nil {
		return nil, fmt.Errorf("unmarshal receipt JSON: %w", err)
	}

	if parsed.Amount == nil || parsed.Date == "" {
		return nil, fmt.Errorf("model response missing amount or date")
	}

	amount, err := money.FromFloat(*parsed.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}
	if amount.IsNegative() {
		return nil, fmt.Errorf("negative amount %s", amount)
	}

	date, err := time.Parse("2006-01-02", parsed.Date)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", parsed.Date, err)
	}

	category := parsed.Category
	if !receiptCategories[category] {
		category = "other-expense"
	}

	return &ReceiptData{
		Amount:       amount,
		Date:         date,
		Description:  parsed.Description,
		MerchantName: parsed.MerchantName,
		Category:     category,
	}, nil
}

// cleanModelJSON strips Markdown fences and surrounding junk when the
// model ignores the raw-JSON instruction.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}

	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}

	s = strings.TrimSpace(s)

	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}

	return s
}
