package services

import (
	stderrors "errors"
	"strings"
	"time"

	"gorm.io/gorm"

	apperrors "wealth/internal/errors"
	"wealth/internal/logger"
	"wealth/internal/models"
	"wealth/internal/money"
	"wealth/internal/revalidate"
)

// maxOccurrencesPerRun caps how far a single run catches up one
// template. The cursor persists, so a template further behind than this
// finishes on subsequent runs.
const maxOccurrencesPerRun = 1000

const recurringTag = "(Recurring)"

// recurringService materializes occurrences from recurring transaction
// templates.
type recurringService struct {
	db       *gorm.DB
	notifier revalidate.Notifier
}

// NewRecurringService creates a new RecurringServicer.
func NewRecurringService(db *gorm.DB, notifier revalidate.Notifier) RecurringServicer {
	return &recurringService{db: db, notifier: notifier}
}

// nextDate advances a schedule cursor by one interval. Steps are
// calendar-aware: monthly from Jan 31 lands on Mar 2/3 via time.AddDate
// normalization, and daily steps across DST boundaries keep the wall
// clock time.
func nextDate(from time.Time, interval models.RecurringInterval) (time.Time, error) {
	switch interval {
	case models.RecurringIntervalDaily:
		return from.AddDate(0, 0, 1), nil
	case models.RecurringIntervalWeekly:
		return from.AddDate(0, 0, 7), nil
	case models.RecurringIntervalMonthly:
		return from.AddDate(0, 1, 0), nil
	case models.RecurringIntervalYearly:
		return from.AddDate(1, 0, 0), nil
	}
	return time.Time{}, apperrors.WithMessage(apperrors.ErrInvalidInterval, "unrecognized recurring interval: "+string(interval))
}

// tagRecurring appends the recurring marker to a description exactly once.
func tagRecurring(description string) string {
	if strings.HasSuffix(description, recurringTag) {
		return description
	}
	if description == "" {
		return recurringTag
	}
	return description + " " + recurringTag
}

// ProcessDueTransactions finds every due recurring template and
// materializes all occurrences between its cursor and now. Each template
// is handled in its own transaction, so one broken template never blocks
// the rest of the batch. Rerunning immediately is a no-op because the
// cursor only advances when a template's transaction commits.
func (s *recurringService) ProcessDueTransactions(now time.Time) (*RecurringRunReport, error) {
	var due []models.Transaction
	err := s.db.
		Where("is_recurring = ? AND status = ?", true, models.TransactionStatusCompleted).
		Where("last_processed IS NULL OR next_recurring_date <= ?", now).
		Find(&due).Error
	if err != nil {
		return nil, wrapStoreErr(err)
	}

	report := &RecurringRunReport{TemplatesDue: len(due)}
	staleAccounts := make(map[string]struct{})

	for i := range due {
		created, err := s.processTemplate(due[i].ID, now)
		if err != nil {
			var appErr *apperrors.AppError
			code, reason := "INTERNAL_ERROR", err.Error()
			if stderrors.As(err, &appErr) {
				code, reason = appErr.Code, appErr.Message
			}
			logger.Get().Errorw("recurring template failed",
				"template_id", due[i].ID,
				"code", code,
				"error", err,
			)
			report.Failures = append(report.Failures, TemplateFailure{
				TemplateID: due[i].ID,
				Code:       code,
				Reason:     reason,
			})
			continue
		}
		report.TemplatesProcessed++
		report.OccurrencesCreated += created
		if created > 0 {
			staleAccounts[due[i].AccountID] = struct{}{}
		}
	}

	if report.OccurrencesCreated > 0 {
		views := []string{revalidate.ViewDashboard}
		for accountID := range staleAccounts {
			views = append(views, revalidate.AccountView(accountID))
		}
		s.notifier.ViewsStale(views...)
	}

	return report, nil
}

// processTemplate catches up one template in a single transaction:
// occurrence rows, one net balance increment, and the cursor update all
// commit together or not at all.
func (s *recurringService) processTemplate(templateID string, now time.Time) (int, error) {
	var created int

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var template models.Transaction
		err := tx.Where("id = ? AND is_recurring = ?", templateID, true).First(&template).Error
		if err != nil {
			if stderrors.Is(err, gorm.ErrRecordNotFound) {
				// Deleted or edited since the batch query. Nothing to do.
				return nil
			}
			return wrapStoreErr(err)
		}

		cursor := template.Date
		if template.LastProcessed != nil {
			cursor = *template.LastProcessed
		}
		if template.NextRecurringDate != nil {
			cursor = *template.NextRecurringDate
		}

		// A template with no interval produces at most one occurrence,
		// then its schedule is retired.
		if template.RecurringInterval == nil {
			if cursor.After(now) {
				return nil
			}
			occurrence := occurrenceFrom(&template, cursor)
			if err := tx.Create(&occurrence).Error; err != nil {
				return wrapStoreErr(err)
			}
			if err := incrementBalance(tx, template.UserID, template.AccountID, occurrence.SignedAmount()); err != nil {
				return err
			}
			created = 1
			if err := tx.Model(&template).UpdateColumns(map[string]interface{}{
				"is_recurring":        false,
				"next_recurring_date": nil,
				"last_processed":      cursor,
			}).Error; err != nil {
				return wrapStoreErr(err)
			}
			return nil
		}

		if _, err := nextDate(cursor, *template.RecurringInterval); err != nil {
			return err
		}

		var occurrences []models.Transaction
		delta := money.Zero()
		for !cursor.After(now) && len(occurrences) < maxOccurrencesPerRun {
			occurrence := occurrenceFrom(&template, cursor)
			occurrences = append(occurrences, occurrence)
			delta = delta.Add(occurrence.SignedAmount())
			cursor, _ = nextDate(cursor, *template.RecurringInterval)
		}

		if len(occurrences) == 0 {
			return nil
		}

		if err := tx.Create(&occurrences).Error; err != nil {
			return wrapStoreErr(err)
		}
		if err := incrementBalance(tx, template.UserID, template.AccountID, delta); err != nil {
			return err
		}
		created = len(occurrences)

		// The cursor has stepped past the last generated occurrence;
		// last_processed records the occurrence date itself.
		if err := tx.Model(&template).UpdateColumns(map[string]interface{}{
			"last_processed":      occurrences[len(occurrences)-1].Date,
			"next_recurring_date": cursor,
		}).Error; err != nil {
			return wrapStoreErr(err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return created, nil
}

// occurrenceFrom builds a concrete, non-recurring occurrence row from a
// template, dated at the schedule cursor.
func occurrenceFrom(template *models.Transaction, date time.Time) models.Transaction {
	return models.Transaction{
		UserID:      template.UserID,
		AccountID:   template.AccountID,
		Type:        template.Type,
		Amount:      template.Amount,
		Description: tagRecurring(template.Description),
		Category:    template.Category,
		Date:        date,
		Status:      models.TransactionStatusCompleted,
	}
}
