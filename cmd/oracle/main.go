package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"

	"wealthbook/internal/client"
	"wealthbook/internal/config"
	"wealthbook/internal/logger"
	"wealthbook/internal/oracle"
	"wealthbook/internal/provider"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadOracle()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger.InitWithLevel(cfg.Env, cfg.LogLevel)
	log := logger.Get()
	defer logger.Sync()

	httpClient := &http.Client{Timeout: cfg.RequestTimeout}

	apiClient := client.NewWealthbookClient(cfg.APIURL, cfg.PipelineAPIKey, httpClient)

	providerOpts := []provider.Option{
		provider.WithHTTPClient(httpClient),
		provider.WithRateLimit(cfg.ProviderRateLimit),
	}
	providers := []provider.PriceProvider{
		provider.NewYahooProvider(providerOpts...),
	}
	rates := provider.NewRateChain(time.Hour,
		provider.NewExchangeRateAPIProvider(providerOpts...),
		provider.NewFrankfurterProvider(providerOpts...),
	)

	orc := oracle.NewOracle(apiClient, providers, rates, cfg, log)
	result, err := orc.Run(context.Background())
	if err != nil {
		log.Errorw("oracle run failed", "error", err)
		logger.Sync()
		os.Exit(1)
	}

	log.Infow("oracle run completed",
		"date", result.Date.Format("2006-01-02"),
		"instruments_fetched", result.InstrumentsFetched,
		"prices_recorded", result.PricesRecorded,
		"rates_recorded", result.RatesRecorded,
		"errors", len(result.Errors),
		"duration", result.Duration.String(),
	)
	if result.DailyClose != nil {
		log.Infow("daily close completed",
			"valuations", result.DailyClose.Valuation,
			"wealth", result.DailyClose.Wealth,
		)
	}
	for _, issue := range result.Issues {
		log.Warnw("write skipped", "key", issue.Key, "code", issue.Code, "reason", issue.Reason)
	}

	if len(result.Errors) > 0 || result.RateError != nil {
		logger.Sync()
		os.Exit(2)
	}
}
