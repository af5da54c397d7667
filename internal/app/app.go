// Package app wires the services shared by the API server and the CLI.
package app

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"wealthbook/internal/config"
	"wealthbook/internal/pricing"
	"wealthbook/internal/services"
)

// App holds the configured services over one database.
type App struct {
	Config *config.Config
	DB     *gorm.DB

	Instruments  services.InstrumentServicer
	Portfolios   services.PortfolioServicer
	Transactions services.TransactionServicer
	Prices       services.PriceServicer
	FxRates      services.FxRateServicer
	Valuation    services.ValuationServicer
	Wealth       services.WealthServicer
	Loans        services.LoanReductionServicer
	Pipeline     services.PipelineServicer

	// LoanReductions is the monthly repayment schedule from the seed file.
	LoanReductions []services.LoanReduction
}

// New builds every service. The loan schedule is read from cfg.SeedFile
// when that file exists.
func New(cfg *config.Config, db *gorm.DB) (*App, error) {
	reductions, err := loadLoanReductions(cfg.SeedFile)
	if err != nil {
		return nil, err
	}

	priceChain := pricing.NewDefaultChain(db, cfg.LookupTimeout)
	fx := pricing.NewFXResolver(db, cfg.LookupTimeout)

	a := &App{Config: cfg, DB: db, LoanReductions: reductions}
	a.Instruments = services.NewInstrumentService(db)
	a.Portfolios = services.NewPortfolioService(db)
	a.Transactions = services.NewTransactionService(db)
	a.Prices = services.NewPriceService(db, priceChain)
	a.FxRates = services.NewFxRateService(db, fx)
	a.Valuation = services.NewValuationService(db, priceChain, fx, services.ValuationOptions{
		Workers:      cfg.ValuationWorkers,
		BaseCurrency: cfg.BaseCurrency,
	})
	a.Wealth = services.NewWealthService(db, fx, cfg.BaseCurrency)
	a.Loans = services.NewLoanReductionService(db, a.Wealth)
	a.Pipeline = services.NewPipelineService(a.Valuation, a.Wealth, a.Loans, reductions)
	return a, nil
}

func loadLoanReductions(path string) ([]services.LoanReduction, error) {
	if path == "" {
		return nil, nil
	}
	seed, err := config.LoadSeed(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return LoanReductions(seed)
}

// LoanReductions converts the seed's loan schedule.
func LoanReductions(seed *config.Seed) ([]services.LoanReduction, error) {
	out := make([]services.LoanReduction, 0, len(seed.LoanReductions))
	for i, r := range seed.LoanReductions {
		amount, err := decimal.NewFromString(r.Amount)
		if err != nil {
			return nil, fmt.Errorf("loan_reductions[%d]: invalid amount %q: %w", i, r.Amount, err)
		}
		out = append(out, services.LoanReduction{Category: r.Category, Amount: amount})
	}
	return out, nil
}
