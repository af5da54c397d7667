package services

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"wealthbook/internal/dates"
	apperrors "wealthbook/internal/errors"
	"wealthbook/internal/models"
	"wealthbook/internal/pagination"
)

// transactionService records holding transactions.
type transactionService struct {
	db *gorm.DB
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB) TransactionServicer {
	return &transactionService{db: db}
}

// RecordTransaction stores a transaction and applies it to the holding in the
// same database transaction: BUY adds, SELL subtracts, ADJUST sets.
func (s *transactionService) RecordTransaction(in TransactionInput) (*models.Transaction, *models.Holding, error) {
	switch in.Type {
	case models.TransactionTypeBuy, models.TransactionTypeSell, models.TransactionTypeAdjust:
	default:
		return nil, nil, apperrors.ErrInvalidTransactionType
	}
	if in.Quantity.IsNegative() || (in.Type != models.TransactionTypeAdjust && in.Quantity.IsZero()) {
		return nil, nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "quantity must be greater than zero")
	}
	if in.Price.Valid && in.Price.Decimal.IsNegative() {
		return nil, nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "price cannot be negative")
	}
	if in.TransactionDate.IsZero() {
		in.TransactionDate = dates.Today()
	}

	var (
		txn     models.Transaction
		holding models.Holding
	)
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := ensureExists(tx, &models.Portfolio{}, in.PortfolioID, apperrors.ErrPortfolioNotFound); err != nil {
			return err
		}
		if err := ensureExists(tx, &models.Instrument{}, in.InstrumentID, apperrors.ErrInstrumentNotFound); err != nil {
			return err
		}

		found := true
		err := tx.Where("portfolio_id = ? AND instrument_id = ?", in.PortfolioID, in.InstrumentID).First(&holding).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			found = false
			holding = models.Holding{PortfolioID: in.PortfolioID, InstrumentID: in.InstrumentID, Quantity: decimal.Zero}
		} else if err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		newQty, err := applyTransaction(holding.Quantity, in.Type, in.Quantity)
		if err != nil {
			return err
		}

		txn = models.Transaction{
			PortfolioID:     in.PortfolioID,
			InstrumentID:    in.InstrumentID,
			TransactionDate: dates.Day(in.TransactionDate),
			TransactionType: in.Type,
			Quantity:        in.Quantity,
			Price:           in.Price,
			Notes:           in.Notes,
			CreatedBy:       in.CreatedBy,
		}
		if err := tx.Create(&txn).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		if !found {
			holding.Quantity = newQty
			if in.Type == models.TransactionTypeBuy {
				d := txn.TransactionDate
				holding.AcquisitionDate = &d
				holding.AcquisitionPrice = in.Price
			}
			if err := tx.Create(&holding).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			return nil
		}

		if err := tx.Model(&holding).Update("quantity", newQty).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		holding.Quantity = newQty
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return &txn, &holding, nil
}

// applyTransaction returns the holding quantity after a transaction.
func applyTransaction(current decimal.Decimal, typ models.TransactionType, qty decimal.Decimal) (decimal.Decimal, error) {
	switch typ {
	case models.TransactionTypeBuy:
		return current.Add(qty), nil
	case models.TransactionTypeSell:
		if qty.GreaterThan(current) {
			return decimal.Zero, apperrors.WithMessage(apperrors.ErrInvariantViolation,
				fmt.Sprintf("insufficient quantity: sell %s exceeds held %s", qty, current))
		}
		return current.Sub(qty), nil
	case models.TransactionTypeAdjust:
		return qty, nil
	}
	return decimal.Zero, apperrors.ErrInvalidTransactionType
}

// GetTransactionByID returns a transaction by its ID.
func (s *transactionService) GetTransactionByID(id string) (*models.Transaction, error) {
	var txn models.Transaction
	if err := s.db.Preload("Instrument").Where("id = ?", id).First(&txn).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &txn, nil
}

// ListTransactions returns a portfolio's transactions, newest first.
func (s *transactionService) ListTransactions(portfolioID string, page pagination.PageRequest) (*pagination.PageResponse[models.Transaction], error) {
	if err := ensureExists(s.db, &models.Portfolio{}, portfolioID, apperrors.ErrPortfolioNotFound); err != nil {
		return nil, err
	}
	page.Defaults()

	var totalItems int64
	base := s.db.Model(&models.Transaction{}).Where("portfolio_id = ?", portfolioID)
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var txns []models.Transaction
	if err := s.db.Preload("Instrument").Where("portfolio_id = ?", portfolioID).
		Order("transaction_date DESC, created_at DESC").
		Scopes(pagination.Paginate(page)).
		Find(&txns).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(txns, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// ensureExists returns notFound when no row of model has the given id.
func ensureExists(db *gorm.DB, model interface{}, id string, notFound error) error {
	var count int64
	if err := db.Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count == 0 {
		return notFound
	}
	return nil
}
