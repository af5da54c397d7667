package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"wealthbook/internal/validator"
)

// OracleConfig holds the fetch oracle's configuration values.
type OracleConfig struct {
	APIURL            string
	PipelineAPIKey    string
	LogLevel          string
	Env               string
	RequestTimeout    time.Duration
	ComputeSnapshots  bool
	FXCurrencies      []string // currencies fetched as "HUF per unit"
	ProviderRateLimit float64  // requests per second per provider
}

// LoadOracle reads oracle configuration from environment variables and
// validates required fields.
func LoadOracle() (*OracleConfig, error) {
	cfg := &OracleConfig{Env: getEnv("ENV", "development")}

	cfg.APIURL = os.Getenv("WEALTHBOOK_API_URL")
	if cfg.APIURL == "" {
		return nil, fmt.Errorf("WEALTHBOOK_API_URL is required")
	}

	cfg.PipelineAPIKey = os.Getenv("PIPELINE_API_KEY")
	if cfg.PipelineAPIKey == "" {
		return nil, fmt.Errorf("PIPELINE_API_KEY is required")
	}

	level, err := parseLogLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		return nil, err
	}
	cfg.LogLevel = level

	timeout, err := parseTimeout(os.Getenv("REQUEST_TIMEOUT"))
	if err != nil {
		return nil, err
	}
	cfg.RequestTimeout = timeout

	snapshots, err := parseBool(os.Getenv("COMPUTE_SNAPSHOTS"), true)
	if err != nil {
		return nil, fmt.Errorf("invalid COMPUTE_SNAPSHOTS value: %w", err)
	}
	cfg.ComputeSnapshots = snapshots

	currencies, err := parseCurrencies(getEnv("FX_CURRENCIES", "EUR,USD"))
	if err != nil {
		return nil, err
	}
	cfg.FXCurrencies = currencies

	limit, err := strconv.ParseFloat(getEnv("PROVIDER_RATE_LIMIT", "2"), 64)
	if err != nil || limit <= 0 {
		return nil, fmt.Errorf("invalid PROVIDER_RATE_LIMIT %q: must be a positive number", os.Getenv("PROVIDER_RATE_LIMIT"))
	}
	cfg.ProviderRateLimit = limit

	return cfg, nil
}

func parseLogLevel(s string) (string, error) {
	if s == "" {
		return "info", nil
	}
	switch l := strings.ToLower(s); l {
	case "debug", "info", "warn", "error":
		return l, nil
	default:
		return "", fmt.Errorf("invalid LOG_LEVEL %q: must be debug, info, warn, or error", s)
	}
}

func parseTimeout(s string) (time.Duration, error) {
	if s == "" {
		return 30 * time.Second, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid REQUEST_TIMEOUT %q: %w", s, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("REQUEST_TIMEOUT must be positive, got %v", d)
	}
	return d, nil
}

func parseBool(s string, defaultVal bool) (bool, error) {
	if s == "" {
		return defaultVal, nil
	}
	switch strings.ToLower(s) {
	case "true", "1":
		return true, nil
	case "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("must be true, false, 1, or 0, got %q", s)
	}
}

func parseCurrencies(s string) ([]string, error) {
	var out []string
	for _, part := range strings.Split(s, ",") {
		code := strings.ToUpper(strings.TrimSpace(part))
		if code == "" || code == "HUF" {
			continue
		}
		if !validator.IsCurrency(code) {
			return nil, fmt.Errorf("invalid FX_CURRENCIES entry %q: not an ISO 4217 code", code)
		}
		out = append(out, code)
	}
	return out, nil
}
