package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"wealthbook/internal/config"
	"wealthbook/internal/dates"
	apperrors "wealthbook/internal/errors"
	"wealthbook/internal/logger"
	"wealthbook/internal/models"
	"wealthbook/internal/services"
)

// ApplySeed creates the instruments, portfolios, holdings and categories of
// a seed file. Entries that already exist are skipped, so a seed can be
// applied repeatedly.
func (a *App) ApplySeed(seed *config.Seed) (*services.BatchResult, error) {
	log := logger.Get()
	result := services.NewBatchResult()

	instrumentIDs := make(map[string]string, len(seed.Instruments))
	for _, si := range seed.Instruments {
		isin := strings.ToUpper(si.ISIN)
		typ := models.InstrumentType(si.InstrumentType)
		if typ == "" {
			typ = models.InstrumentTypeEquity
		}
		inst, err := a.Instruments.CreateInstrument(isin, si.Name, si.Currency, typ, si.Ticker, si.Source)
		if errors.Is(err, apperrors.ErrDuplicateISIN) {
			inst, err = a.Instruments.GetInstrumentByISIN(isin)
			if err == nil {
				result.Skip("instrument "+isin, apperrors.ErrDuplicateISIN.Code, "already exists")
				instrumentIDs[isin] = inst.ID
				continue
			}
		}
		if err != nil {
			result.Record("instrument "+isin, err)
			continue
		}
		instrumentIDs[isin] = inst.ID
		result.Succeed()
	}

	existing, err := a.Portfolios.ListPortfolios()
	if err != nil {
		return nil, err
	}
	byName := make(map[string]string, len(existing))
	for _, p := range existing {
		byName[p.Name] = p.ID
	}

	for _, sp := range seed.Portfolios {
		id, ok := byName[sp.Name]
		if !ok {
			currency := sp.Currency
			if currency == "" {
				currency = a.Config.BaseCurrency
			}
			p, err := a.Portfolios.CreatePortfolio(sp.Name, sp.Owner, currency)
			if err != nil {
				result.Record("portfolio "+sp.Name, err)
				continue
			}
			id = p.ID
			byName[sp.Name] = id
			result.Succeed()
		}

		for _, sh := range sp.Holdings {
			key := fmt.Sprintf("holding %s/%s", sp.Name, sh.ISIN)
			instrumentID, ok := instrumentIDs[strings.ToUpper(sh.ISIN)]
			if !ok {
				inst, err := a.Instruments.GetInstrumentByISIN(sh.ISIN)
				if err != nil {
					result.Record(key, err)
					continue
				}
				instrumentID = inst.ID
			}
			if err := a.openSeedHolding(id, instrumentID, sh); err != nil {
				result.Record(key, err)
				continue
			}
			result.Succeed()
		}
	}

	for _, sc := range seed.Categories {
		typ := models.CategoryType(sc.CategoryType)
		_, err := a.Wealth.CreateCategory(typ, sc.Name, sc.Currency, sc.IsLiability || typ == models.CategoryTypeLoan)
		key := fmt.Sprintf("category %s/%s", sc.CategoryType, sc.Name)
		if errors.Is(err, apperrors.ErrDuplicateCategory) {
			result.Skip(key, apperrors.ErrDuplicateCategory.Code, "already exists")
			continue
		}
		if err != nil {
			result.Record(key, err)
			continue
		}
		result.Succeed()
	}

	log.Infow("seed applied", "succeeded", result.Succeeded, "skipped", result.Skipped, "failed", result.Failed)
	return result, nil
}

func (a *App) openSeedHolding(portfolioID, instrumentID string, sh config.SeedHolding) error {
	quantity, err := decimal.NewFromString(sh.Quantity)
	if err != nil {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, fmt.Sprintf("invalid quantity %q", sh.Quantity))
	}

	var price decimal.NullDecimal
	if sh.AcquisitionPrice != "" {
		p, err := decimal.NewFromString(sh.AcquisitionPrice)
		if err != nil {
			return apperrors.WithMessage(apperrors.ErrInvalidInput, fmt.Sprintf("invalid acquisition_price %q", sh.AcquisitionPrice))
		}
		price = decimal.NewNullDecimal(p)
	}

	var acquired *time.Time
	if sh.AcquisitionDate != "" {
		d, err := dates.Parse(sh.AcquisitionDate)
		if err != nil {
			return apperrors.WithMessage(apperrors.ErrInvalidInput, fmt.Sprintf("invalid acquisition_date %q", sh.AcquisitionDate))
		}
		acquired = &d
	}

	_, err = a.Portfolios.OpenHolding(portfolioID, instrumentID, quantity, acquired, price)
	return err
}
