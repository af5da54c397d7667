package services

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"wealthbook/internal/dates"
	apperrors "wealthbook/internal/errors"
	"wealthbook/internal/models"
)

// portfolioService handles portfolios, holdings and reads of their valuations.
type portfolioService struct {
	db *gorm.DB
}

// NewPortfolioService creates a new PortfolioServicer.
func NewPortfolioService(db *gorm.DB) PortfolioServicer {
	return &portfolioService{db: db}
}

// CreatePortfolio creates an empty portfolio. Currency defaults to HUF.
func (s *portfolioService) CreatePortfolio(name, owner, currency string) (*models.Portfolio, error) {
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "name is required")
	}
	if currency == "" {
		currency = "HUF"
	}
	p := &models.Portfolio{Name: name, Owner: owner, Currency: strings.ToUpper(currency)}
	if err := s.db.Create(p).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return p, nil
}

// GetPortfolioByID returns a portfolio with its holdings and their instruments.
func (s *portfolioService) GetPortfolioByID(id string) (*models.Portfolio, error) {
	var p models.Portfolio
	if err := s.db.Preload("Holdings.Instrument").Where("id = ?", id).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPortfolioNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &p, nil
}

// ListPortfolios returns all portfolios ordered by name.
func (s *portfolioService) ListPortfolios() ([]models.Portfolio, error) {
	var portfolios []models.Portfolio
	if err := s.db.Order("name ASC").Find(&portfolios).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return portfolios, nil
}

// ListHoldings returns a portfolio's holdings with their instruments.
func (s *portfolioService) ListHoldings(portfolioID string) ([]models.Holding, error) {
	if err := s.ensurePortfolio(portfolioID); err != nil {
		return nil, err
	}
	var holdings []models.Holding
	if err := s.db.Preload("Instrument").
		Where("portfolio_id = ?", portfolioID).
		Find(&holdings).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return holdings, nil
}

// OpenHolding creates the opening position for an instrument, as loaded from
// the seed file. Existing holdings are left untouched and returned.
func (s *portfolioService) OpenHolding(
	portfolioID, instrumentID string,
	quantity decimal.Decimal,
	acquisitionDate *time.Time,
	acquisitionPrice decimal.NullDecimal,
) (*models.Holding, error) {
	if quantity.IsNegative() {
		return nil, apperrors.WithMessage(apperrors.ErrInvariantViolation, "quantity cannot be negative")
	}
	if err := s.ensurePortfolio(portfolioID); err != nil {
		return nil, err
	}
	if acquisitionDate != nil {
		d := dates.Day(*acquisitionDate)
		acquisitionDate = &d
	}

	h := models.Holding{
		PortfolioID:      portfolioID,
		InstrumentID:     instrumentID,
		Quantity:         quantity,
		AcquisitionDate:  acquisitionDate,
		AcquisitionPrice: acquisitionPrice,
	}
	if err := s.db.Where("portfolio_id = ? AND instrument_id = ?", portfolioID, instrumentID).
		FirstOrCreate(&h).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &h, nil
}

// GetSnapshot returns the valuation rows of a portfolio on a date.
func (s *portfolioService) GetSnapshot(portfolioID string, date time.Time) ([]models.PortfolioValueDaily, error) {
	if err := s.ensurePortfolio(portfolioID); err != nil {
		return nil, err
	}
	var rows []models.PortfolioValueDaily
	if err := s.db.Preload("Instrument").
		Where("portfolio_id = ? AND snapshot_date = ?", portfolioID, dates.Day(date)).
		Order("value_huf DESC").
		Find(&rows).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return rows, nil
}

// GetSummary totals a portfolio's valuation on a date. A date without rows
// sums to zero.
func (s *portfolioService) GetSummary(portfolioID string, date time.Time) (*PortfolioSummary, error) {
	rows, err := s.GetSnapshot(portfolioID, date)
	if err != nil {
		return nil, err
	}
	total := decimal.Zero
	for i := range rows {
		total = total.Add(rows[i].ValueHUF)
	}
	return &PortfolioSummary{
		PortfolioID:  portfolioID,
		SnapshotDate: dates.Format(dates.Day(date)),
		TotalHUF:     total,
		Positions:    len(rows),
	}, nil
}

// GetHistory returns the daily total of a portfolio between from and to,
// oldest first. Only dates that have valuation rows are included.
func (s *portfolioService) GetHistory(portfolioID string, from, to time.Time) ([]PortfolioHistoryPoint, error) {
	if err := s.ensurePortfolio(portfolioID); err != nil {
		return nil, err
	}
	if to.Before(from) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "to must not be before from")
	}

	var rows []models.PortfolioValueDaily
	if err := s.db.Select("snapshot_date", "value_huf").
		Where("portfolio_id = ? AND snapshot_date >= ? AND snapshot_date <= ?", portfolioID, dates.Day(from), dates.Day(to)).
		Order("snapshot_date ASC").
		Find(&rows).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	history := []PortfolioHistoryPoint{}
	for i := range rows {
		day := dates.Format(rows[i].SnapshotDate)
		if n := len(history); n > 0 && history[n-1].SnapshotDate == day {
			history[n-1].TotalHUF = history[n-1].TotalHUF.Add(rows[i].ValueHUF)
			history[n-1].Positions++
			continue
		}
		history = append(history, PortfolioHistoryPoint{SnapshotDate: day, TotalHUF: rows[i].ValueHUF, Positions: 1})
	}
	return history, nil
}

func (s *portfolioService) ensurePortfolio(id string) error {
	return ensureExists(s.db, &models.Portfolio{}, id, apperrors.ErrPortfolioNotFound)
}
