package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "wealthbook/internal/errors"
	"wealthbook/internal/models"
	"wealthbook/internal/pagination"
)

// instrumentService handles the instrument catalogue.
type instrumentService struct {
	db *gorm.DB
}

// NewInstrumentService creates a new InstrumentServicer.
func NewInstrumentService(db *gorm.DB) InstrumentServicer {
	return &instrumentService{db: db}
}

// CreateInstrument registers an instrument. The ISIN must be unique.
func (s *instrumentService) CreateInstrument(
	isin, name, currency string,
	instrumentType models.InstrumentType,
	ticker, source string,
) (*models.Instrument, error) {
	isin = strings.ToUpper(strings.TrimSpace(isin))
	if isin == "" || name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "isin and name are required")
	}

	inst := &models.Instrument{
		ISIN:           isin,
		Name:           name,
		Currency:       strings.ToUpper(currency),
		InstrumentType: instrumentType,
		Ticker:         ticker,
		Source:         source,
	}
	if err := s.db.Create(inst).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, apperrors.ErrDuplicateISIN
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return inst, nil
}

// GetInstrumentByID returns an instrument by its ID.
func (s *instrumentService) GetInstrumentByID(id string) (*models.Instrument, error) {
	var inst models.Instrument
	if err := s.db.Where("id = ?", id).First(&inst).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInstrumentNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &inst, nil
}

// GetInstrumentByISIN returns an instrument by its ISIN.
func (s *instrumentService) GetInstrumentByISIN(isin string) (*models.Instrument, error) {
	var inst models.Instrument
	if err := s.db.Where("isin = ?", strings.ToUpper(isin)).First(&inst).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInstrumentNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &inst, nil
}

// ListInstruments returns a paginated list ordered by name, optionally
// filtered by a case-insensitive match on ISIN, name or ticker.
func (s *instrumentService) ListInstruments(search string, page pagination.PageRequest) (*pagination.PageResponse[models.Instrument], error) {
	base := s.db.Model(&models.Instrument{})
	if search != "" {
		like := "%" + strings.ToLower(search) + "%"
		base = base.Where("LOWER(isin) LIKE ? OR LOWER(name) LIKE ? OR LOWER(ticker) LIKE ?", like, like, like)
	}

	result, err := pagination.Query[models.Instrument](base, page, "name ASC")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return result, nil
}

// ListTrackedInstruments returns every instrument with a ticker, which is
// what the fetch oracle asks prices for.
func (s *instrumentService) ListTrackedInstruments() ([]models.Instrument, error) {
	var instruments []models.Instrument
	if err := s.db.Where("ticker <> ''").Order("isin ASC").Find(&instruments).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return instruments, nil
}

// UpdateInstrument changes instrument metadata. ISIN and currency are identity
// and cannot change.
func (s *instrumentService) UpdateInstrument(id string, update InstrumentUpdate) (*models.Instrument, error) {
	inst, err := s.GetInstrumentByID(id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if update.Name != nil {
		if *update.Name == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "name cannot be empty")
		}
		updates["name"] = *update.Name
	}
	if update.InstrumentType != nil {
		updates["instrument_type"] = *update.InstrumentType
	}
	if update.Ticker != nil {
		updates["ticker"] = *update.Ticker
	}
	if update.Source != nil {
		updates["source"] = *update.Source
	}
	if len(updates) == 0 {
		return inst, nil
	}

	if err := s.db.Model(inst).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return s.GetInstrumentByID(id)
}
