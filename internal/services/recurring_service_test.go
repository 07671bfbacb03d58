package services

import (
	"strings"
	"testing"
	"time"

	"wealth/internal/models"
	"wealth/internal/revalidate"
	"wealth/internal/testutil"
)

func TestNextDate(t *testing.T) {
	base := time.Date(2026, 1, 31, 9, 0, 0, 0, time.UTC)

	cases := []struct {
		name     string
		interval models.RecurringInterval
		want     time.Time
	}{
		{"daily", models.RecurringIntervalDaily, time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)},
		{"weekly", models.RecurringIntervalWeekly, time.Date(2026, 2, 7, 9, 0, 0, 0, time.UTC)},
		// Jan 31 + 1 month normalizes past the end of February.
		{"monthly_overflow", models.RecurringIntervalMonthly, time.Date(2026, 3, 3, 9, 0, 0, 0, time.UTC)},
		{"yearly", models.RecurringIntervalYearly, time.Date(2027, 1, 31, 9, 0, 0, 0, time.UTC)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := nextDate(base, tc.interval)
			testutil.AssertNoError(t, err)
			if !got.Equal(tc.want) {
				t.Errorf("expected %v, got %v", tc.want, got)
			}
		})
	}

	t.Run("unknown_interval", func(t *testing.T) {
		_, err := nextDate(base, models.RecurringInterval("fortnightly"))
		testutil.AssertAppError(t, err, "INVALID_RECURRING_INTERVAL")
	})
}

func TestTagRecurring(t *testing.T) {
	if got := tagRecurring("Netflix"); got != "Netflix (Recurring)" {
		t.Errorf("unexpected tag result: %q", got)
	}
	// Occurrences spawned from an already-tagged description must not
	// stack tags.
	if got := tagRecurring("Netflix (Recurring)"); got != "Netflix (Recurring)" {
		t.Errorf("expected no double tag, got %q", got)
	}
	if got := tagRecurring(""); got != "(Recurring)" {
		t.Errorf("unexpected empty-description tag: %q", got)
	}
}

func TestProcessDueTransactions_CatchUp(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewRecurringService(db, revalidate.NewNoop())
	accounts := NewAccountService(db, revalidate.NewNoop())

	user := testutil.CreateTestUser(t, db)
	account := testutil.CreateTestAccount(t, db, user.ID)

	// The run happens hours after the schedule's time of day.
	now := time.Date(2026, 6, 10, 12, 0, 0, 0, time.UTC)
	cursor := time.Date(2026, 6, 8, 8, 0, 0, 0, time.UTC) // due 3 times: -2, -1, today

	template := testutil.CreateTestRecurringTemplate(t, db, user.ID, account.ID,
		models.TransactionTypeExpense, testutil.Amount(t, "9.75"), models.RecurringIntervalDaily, cursor)

	report, err := svc.ProcessDueTransactions(now)
	testutil.AssertNoError(t, err)

	if report.OccurrencesCreated != 3 {
		t.Errorf("expected 3 occurrences, got %d", report.OccurrencesCreated)
	}
	if len(report.Failures) != 0 {
		t.Errorf("unexpected failures: %v", report.Failures)
	}

	var occurrences []models.Transaction
	testutil.AssertNoError(t, db.
		Where("account_id = ? AND is_recurring = ? AND id <> ?", account.ID, false, template.ID).
		Order("date ASC").
		Find(&occurrences).Error)
	if len(occurrences) != 3 {
		t.Fatalf("expected 3 occurrence rows, got %d", len(occurrences))
	}
	for i, occ := range occurrences {
		want := cursor.AddDate(0, 0, i)
		if !occ.Date.Equal(want) {
			t.Errorf("occurrence %d: expected date %v, got %v", i, want, occ.Date)
		}
		if !strings.HasSuffix(occ.Description, "(Recurring)") {
			t.Errorf("occurrence %d: description %q missing recurring tag", i, occ.Description)
		}
		if occ.Status != models.TransactionStatusCompleted {
			t.Errorf("occurrence %d: expected completed status, got %s", i, occ.Status)
		}
	}

	// One net increment: 3 x -9.75.
	reloaded, err := accounts.GetAccountByID(user.ID, account.ID)
	testutil.AssertNoError(t, err)
	testutil.AssertAmount(t, reloaded.Balance, "-29.25")

	// last_processed tracks the last generated occurrence, not the run
	// time; the next cursor is one step beyond it.
	var updated models.Transaction
	testutil.AssertNoError(t, db.Where("id = ?", template.ID).First(&updated).Error)
	lastOccurrence := time.Date(2026, 6, 10, 8, 0, 0, 0, time.UTC)
	if updated.LastProcessed == nil || !updated.LastProcessed.Equal(lastOccurrence) {
		t.Errorf("expected last_processed %v, got %v", lastOccurrence, updated.LastProcessed)
	}
	if updated.NextRecurringDate == nil || !updated.NextRecurringDate.Equal(lastOccurrence.AddDate(0, 0, 1)) {
		t.Errorf("expected cursor %v, got %v", lastOccurrence.AddDate(0, 0, 1), updated.NextRecurringDate)
	}

	// The cursor moved past now, so a rerun creates nothing.
	rerun, err := svc.ProcessDueTransactions(now)
	testutil.AssertNoError(t, err)
	if rerun.OccurrencesCreated != 0 {
		t.Errorf("expected rerun to be a no-op, created %d", rerun.OccurrencesCreated)
	}

	reloaded, err = accounts.GetAccountByID(user.ID, account.ID)
	testutil.AssertNoError(t, err)
	testutil.AssertAmount(t, reloaded.Balance, "-29.25")
}

func TestProcessDueTransactions_MonthlyCalendarAware(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewRecurringService(db, revalidate.NewNoop())

	user := testutil.CreateTestUser(t, db)
	account := testutil.CreateTestAccount(t, db, user.ID)

	start := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	testutil.CreateTestRecurringTemplate(t, db, user.ID, account.ID,
		models.TransactionTypeIncome, testutil.Amount(t, "1000"), models.RecurringIntervalMonthly, start)

	now := time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC)
	report, err := svc.ProcessDueTransactions(now)
	testutil.AssertNoError(t, err)

	// Jan 15, Feb 15, Mar 15.
	if report.OccurrencesCreated != 3 {
		t.Errorf("expected 3 monthly occurrences, got %d", report.OccurrencesCreated)
	}

	var template models.Transaction
	testutil.AssertNoError(t, db.Where("is_recurring = ? AND user_id = ?", true, user.ID).First(&template).Error)
	want := time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC)
	if template.NextRecurringDate == nil || !template.NextRecurringDate.Equal(want) {
		t.Errorf("expected cursor at %v, got %v", want, template.NextRecurringDate)
	}
}

func TestProcessDueTransactions_TemplateIsolation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewRecurringService(db, revalidate.NewNoop())
	accounts := NewAccountService(db, revalidate.NewNoop())

	user := testutil.CreateTestUser(t, db)
	account := testutil.CreateTestAccount(t, db, user.ID)

	now := time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC)
	due := now.AddDate(0, 0, -1)

	// A template carrying an interval value the scheduler does not know.
	bad := testutil.CreateTestRecurringTemplate(t, db, user.ID, account.ID,
		models.TransactionTypeExpense, testutil.Amount(t, "5"), models.RecurringInterval("hourly"), due)
	good := testutil.CreateTestRecurringTemplate(t, db, user.ID, account.ID,
		models.TransactionTypeExpense, testutil.Amount(t, "12.50"), models.RecurringIntervalDaily, due)

	report, err := svc.ProcessDueTransactions(now)
	testutil.AssertNoError(t, err)

	if len(report.Failures) != 1 {
		t.Fatalf("expected 1 failure, got %d", len(report.Failures))
	}
	if report.Failures[0].TemplateID != bad.ID {
		t.Errorf("expected failure for template %s, got %s", bad.ID, report.Failures[0].TemplateID)
	}
	if report.Failures[0].Code != "INVALID_RECURRING_INTERVAL" {
		t.Errorf("expected INVALID_RECURRING_INTERVAL, got %s", report.Failures[0].Code)
	}

	// The good template still processed: 2 occurrences (yesterday, today).
	if report.OccurrencesCreated != 2 {
		t.Errorf("expected 2 occurrences from good template, got %d", report.OccurrencesCreated)
	}
	_ = good

	reloaded, err := accounts.GetAccountByID(user.ID, account.ID)
	testutil.AssertNoError(t, err)
	testutil.AssertAmount(t, reloaded.Balance, "-25")
}

func TestProcessDueTransactions_MissingAccountSkipsTemplate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewRecurringService(db, revalidate.NewNoop())

	user := testutil.CreateTestUser(t, db)
	account := testutil.CreateTestAccount(t, db, user.ID)

	now := time.Now()
	template := testutil.CreateTestRecurringTemplate(t, db, user.ID, account.ID,
		models.TransactionTypeExpense, testutil.Amount(t, "5"), models.RecurringIntervalDaily, now.AddDate(0, 0, -1))

	// The account disappears between template creation and the run.
	testutil.AssertNoError(t, db.Delete(&models.Account{}, "id = ?", account.ID).Error)

	report, err := svc.ProcessDueTransactions(now)
	testutil.AssertNoError(t, err)

	if len(report.Failures) != 1 {
		t.Fatalf("expected 1 failure, got %d", len(report.Failures))
	}
	if report.Failures[0].Code != "ACCOUNT_NOT_FOUND" {
		t.Errorf("expected ACCOUNT_NOT_FOUND, got %s", report.Failures[0].Code)
	}

	// The whole template transaction rolled back: no occurrence rows.
	var count int64
	testutil.AssertNoError(t, db.Model(&models.Transaction{}).
		Where("user_id = ? AND id <> ?", user.ID, template.ID).
		Count(&count).Error)
	if count != 0 {
		t.Errorf("expected no occurrence rows after rollback, got %d", count)
	}
}

func TestProcessDueTransactions_NilIntervalRetiresSchedule(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewRecurringService(db, revalidate.NewNoop())

	user := testutil.CreateTestUser(t, db)
	account := testutil.CreateTestAccount(t, db, user.ID)

	now := time.Now()
	due := now.AddDate(0, 0, -3)
	template := &models.Transaction{
		UserID:            user.ID,
		AccountID:         account.ID,
		Type:              models.TransactionTypeExpense,
		Amount:            testutil.Amount(t, "7.25"),
		Category:          "entertainment",
		Date:              due,
		Status:            models.TransactionStatusCompleted,
		IsRecurring:       true,
		NextRecurringDate: &due,
	}
	testutil.AssertNoError(t, db.Create(template).Error)

	report, err := svc.ProcessDueTransactions(now)
	testutil.AssertNoError(t, err)

	if report.OccurrencesCreated != 1 {
		t.Errorf("expected exactly 1 occurrence, got %d", report.OccurrencesCreated)
	}

	var reloaded models.Transaction
	testutil.AssertNoError(t, db.Where("id = ?", template.ID).First(&reloaded).Error)
	if reloaded.IsRecurring {
		t.Error("expected schedule to be retired")
	}
	if reloaded.NextRecurringDate != nil {
		t.Error("expected cursor to be cleared")
	}

	// Retired templates never fire again.
	rerun, err := svc.ProcessDueTransactions(now)
	testutil.AssertNoError(t, err)
	if rerun.OccurrencesCreated != 0 {
		t.Errorf("expected no occurrences on rerun, got %d", rerun.OccurrencesCreated)
	}
}
