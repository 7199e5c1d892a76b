// Package config provides configuration loading and management for the
// collateral engine service.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

// AssetConfig describes one registered collateral type and its price feed.
// The full asset list arrives as a JSON array in the ASSETS env var.
type AssetConfig struct {
	// Symbol is the collateral type identifier, e.g. "WETH".
	Symbol string `json:"symbol"`

	// Feed selects the feed kind: "chainlink", "http" or "static".
	Feed string `json:"feed"`

	// Decimals is the feed's native precision (8 for Chainlink USD pairs).
	Decimals uint8 `json:"decimals"`

	// Price seeds a static feed, as a base-10 integer in feed precision.
	Price string `json:"price,omitempty"`

	// URL is the quote endpoint for http feeds.
	URL string `json:"url,omitempty"`

	// Signer is the hex address allowed to sign http feed quotes.
	Signer string `json:"signer,omitempty"`

	// RPCEndpoint is the EVM node used by chainlink feeds.
	RPCEndpoint string `json:"rpc_endpoint,omitempty"`

	// Address is the chainlink aggregator contract address.
	Address string `json:"address,omitempty"`
}

// Config holds all application configuration.
type Config struct {
	// HTTP server port
	Port string

	// Registered collateral types and their feeds
	Assets []AssetConfig

	// OpenTelemetry endpoint for observability
	OtelEndpoint string

	// Oracle and circuit breaker calibration
	StalenessTimeout time.Duration
	Cooldown         time.Duration
	AllowedDropBps   uint64

	// Solvency calibration
	LiquidationThresholdBps uint64
	LiquidationBonusBps     uint64
	DepositFeeBps           uint64

	// Operation journal; empty disables it
	JournalPath string

	// Event recorder and webhook export
	EventHistory   int
	WebhookURL     string
	WebhookAPIKey  string
	ExportInterval time.Duration

	// API rate limiting
	RateLimitRPS   float64
	RateLimitBurst int

	// Dev-mode faucet for the in-memory tokens
	DevFaucet bool
}

// ParseAssets decodes the ASSETS env var's JSON array. An empty string
// yields no assets; malformed JSON is an error rather than an empty list,
// so a typo cannot masquerade as "nothing configured".
func ParseAssets(raw string) ([]AssetConfig, error) {
	if raw == "" {
		return nil, nil
	}
	var assets []AssetConfig
	if err := json.Unmarshal([]byte(raw), &assets); err != nil {
		return nil, fmt.Errorf("config: parsing ASSETS: %w", err)
	}
	return assets, nil
}

// Load creates a new Config from environment variables.
func Load() Config {
	assets, err := ParseAssets(os.Getenv("ASSETS"))
	if err != nil {
		logrus.Fatalf("Invalid ASSETS configuration: %v", err)
	}

	return Config{
		Port:                    GetEnvOrDefault("PORT", "8080"),
		Assets:                  assets,
		OtelEndpoint:            GetEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		StalenessTimeout:        GetEnvAsDuration("ORACLE_STALENESS_TIMEOUT", 3*time.Hour),
		Cooldown:                GetEnvAsDuration("BREAKER_COOLDOWN", time.Hour),
		AllowedDropBps:          GetEnvAsBps("BREAKER_ALLOWED_DROP_BPS", 2_000),
		LiquidationThresholdBps: GetEnvAsBps("LIQUIDATION_THRESHOLD_BPS", 5_000),
		LiquidationBonusBps:     GetEnvAsBps("LIQUIDATION_BONUS_BPS", 1_000),
		DepositFeeBps:           GetEnvAsBps("DEPOSIT_FEE_BPS", 0),
		JournalPath:             GetEnvOrDefault("JOURNAL_PATH", ""),
		EventHistory:            GetEnvAsInt("EVENT_HISTORY", 1_000),
		WebhookURL:              GetEnvOrDefault("WEBHOOK_URL", ""),
		WebhookAPIKey:           GetEnvOrDefault("WEBHOOK_API_KEY", ""),
		ExportInterval:          GetEnvAsDuration("EVENT_EXPORT_INTERVAL", time.Minute),
		RateLimitRPS:            GetEnvAsFloat("RATE_LIMIT_RPS", 50),
		RateLimitBurst:          GetEnvAsInt("RATE_LIMIT_BURST", 100),
		DevFaucet:               GetEnvAsBool("DEV_FAUCET", false),
	}
}

// GetEnv retrieves an environment variable and whether it exists.
func GetEnv(key string) (string, bool) {
	value, exists := os.LookupEnv(key)
	return value, exists
}

// GetEnvOrDefault retrieves an environment variable or returns the default
// value if not set.
func GetEnvOrDefault(key, defaultValue string) string {
	if value, exists := GetEnv(key); exists {
		return value
	}
	return defaultValue
}

// GetEnvAsInt retrieves an environment variable as an integer with a
// default value.
func GetEnvAsInt(key string, defaultValue int) int {
	if value, exists := GetEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// GetEnvAsBps retrieves a basis-point ratio, clamping to the 0..10_000
// range so a misconfigured ratio can never exceed 100%.
func GetEnvAsBps(key string, defaultValue uint64) uint64 {
	if value, exists := GetEnv(key); exists {
		if parsed, err := strconv.ParseUint(value, 10, 64); err == nil {
			if parsed > 10_000 {
				return 10_000
			}
			return parsed
		}
	}
	return defaultValue
}

// GetEnvAsFloat retrieves an environment variable as a float with a
// default value.
func GetEnvAsFloat(key string, defaultValue float64) float64 {
	if value, exists := GetEnv(key); exists {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// GetEnvAsBool retrieves an environment variable as a boolean with a
// default value.
func GetEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := GetEnv(key); exists {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// GetEnvAsDuration retrieves an environment variable as a duration with a
// default value.
func GetEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := GetEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
