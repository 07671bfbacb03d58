package services

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	apperrors "wealth/internal/errors"
	"wealth/internal/models"
	"wealth/internal/money"
	"wealth/internal/pagination"
	"wealth/internal/revalidate"
)

// accountService handles account-related business logic.
type accountService struct {
	db       *gorm.DB
	notifier revalidate.Notifier
}

// NewAccountService creates a new AccountServicer.
func NewAccountService(db *gorm.DB, notifier revalidate.Notifier) AccountServicer {
	return &accountService{db: db, notifier: notifier}
}

// incrementBalance applies a signed delta to an account balance as a
// single atomic UPDATE. The balance column is never read first, so
// concurrent increments compose instead of overwriting each other.
// RowsAffected 0 means the account does not exist for this user.
func incrementBalance(tx *gorm.DB, userID, accountID string, delta money.Amount) error {
	if delta.IsZero() {
		return nil
	}
	result := tx.Model(&models.Account{}).
		Where("id = ? AND user_id = ?", accountID, userID).
		UpdateColumn("balance", gorm.Expr("balance + ?", delta))
	if result.Error != nil {
		return wrapStoreErr(result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrAccountNotFound
	}
	return nil
}

// wrapStoreErr maps store-level failures onto the error taxonomy.
// Serialization failures surface as CONFLICT so the caller can retry.
// The string match covers the sqlite test driver, which has no typed
// error for lock contention.
func wrapStoreErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "40001" {
		return apperrors.Wrap(apperrors.ErrConflict, err)
	}
	if strings.Contains(err.Error(), "database is locked") {
		return apperrors.Wrap(apperrors.ErrConflict, err)
	}
	return apperrors.Wrap(apperrors.ErrInternalServer, err)
}

// CreateAccount creates a new account for a user. The user's first
// account is always made the default; when the caller asks for default
// on a later account, the previous default is unset in the same
// transaction so exactly one default survives.
func (s *accountService) CreateAccount(userID, name string, kind models.AccountKind, initialBalance money.Amount, isDefault bool) (*models.Account, error) {
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "account name is required")
	}
	if kind != models.AccountKindCurrent && kind != models.AccountKindSavings {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "account kind must be current or savings")
	}

	account := &models.Account{
		UserID:  userID,
		Name:    name,
		Kind:    kind,
		Balance: initialBalance,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Account{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
			return wrapStoreErr(err)
		}

		account.IsDefault = count == 0 || isDefault

		if account.IsDefault && count > 0 {
			if err := tx.Model(&models.Account{}).
				Where("user_id = ? AND is_default = ?", userID, true).
				Update("is_default", false).Error; err != nil {
				return wrapStoreErr(err)
			}
		}

		if err := tx.Create(account).Error; err != nil {
			return wrapStoreErr(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.ViewsStale(revalidate.ViewDashboard)
	return account, nil
}

// GetUserAccounts retrieves a paginated list of accounts for a user.
func (s *accountService) GetUserAccounts(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Account], error) {
	page.Defaults()

	var totalItems int64
	base := s.db.Model(&models.Account{}).Where("user_id = ?", userID)
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, wrapStoreErr(err)
	}

	var accounts []models.Account
	if err := base.Order("created_at DESC, id DESC").
		Scopes(pagination.Paginate(page)).
		Find(&accounts).Error; err != nil {
		return nil, wrapStoreErr(err)
	}

	result := pagination.NewPageResponse(accounts, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetAccountByID retrieves an account by ID for a specific user
func (s *accountService) GetAccountByID(userID, accountID string) (*models.Account, error) {
	var account models.Account
	if err := s.db.Where("id = ? AND user_id = ?", accountID, userID).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrAccountNotFound
		}
		return nil, wrapStoreErr(err)
	}
	return &account, nil
}

// SetDefaultAccount makes the given account the user's only default.
// Unset-then-set runs in one transaction so no interleaving can observe
// two defaults.
func (s *accountService) SetDefaultAccount(userID, accountID string) (*models.Account, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Account{}).
			Where("user_id = ? AND is_default = ?", userID, true).
			Update("is_default", false).Error; err != nil {
			return wrapStoreErr(err)
		}

		result := tx.Model(&models.Account{}).
			Where("id = ? AND user_id = ?", accountID, userID).
			Update("is_default", true)
		if result.Error != nil {
			return wrapStoreErr(result.Error)
		}
		if result.RowsAffected == 0 {
			return apperrors.ErrAccountNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.ViewsStale(revalidate.ViewDashboard, revalidate.AccountView(accountID))
	return s.GetAccountByID(userID, accountID)
}
