package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultAppName        = "TezGate"
	defaultAppEnv         = "development"
	defaultPort           = "8080"
	defaultLogLevel       = "info"
	defaultNetwork        = "ghostnet"
	defaultRPCURL         = "https://rpc.ghostnet.teztnets.com"
	defaultIndexerURL     = "https://api.ghostnet.tzkt.io"
	defaultBalanceSource  = "rpc"
	defaultShutdownDelay  = 10 * time.Second
	defaultConfirmTimeout = 5 * time.Minute
	defaultConfirmPoll    = 5 * time.Second
	defaultBalanceTTL     = 10 * time.Minute
	defaultIdempotencyTTL = 24 * time.Hour

	shutdownSecondsEnvVar  = "SHUTDOWN_TIMEOUT_SECONDS"
	shutdownDurationEnvVar = "SHUTDOWN_TIMEOUT"
)

// Config captures gateway runtime configuration loaded from environment
// variables.
type Config struct {
	AppName  string
	AppEnv   string
	Port     string
	LogLevel string

	// Chain access
	Network       string
	RPCURL        string
	IndexerURL    string
	TokenContract string

	// Transfer parameters
	DepositAddress string
	AccountID      string

	// Collaborators
	LedgerURL       string
	WalletBridgeURL string
	WalletAddress   string
	BalanceSource   string

	// Optional infrastructure
	DatabaseURL string
	RedisURL    string
	APIKeyHash  string

	ConfirmTimeout  time.Duration
	ConfirmPoll     time.Duration
	BalanceCacheTTL time.Duration
	IdempotencyTTL  time.Duration
	ShutdownPeriod  time.Duration
}

// Load reads configuration values from the environment and populates a
// Config instance.
func Load() (Config, error) {
	cfg := Config{
		AppName:  getEnv("APP_NAME", defaultAppName),
		AppEnv:   getEnv("APP_ENV", defaultAppEnv),
		Port:     getEnv("PORT", defaultPort),
		LogLevel: strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),

		Network:       getEnv("TEZOS_NETWORK", defaultNetwork),
		RPCURL:        getEnv("TEZOS_RPC_URL", defaultRPCURL),
		IndexerURL:    getEnv("INDEXER_URL", defaultIndexerURL),
		TokenContract: os.Getenv("USDT_CONTRACT"),

		DepositAddress: os.Getenv("DEPOSIT_ADDRESS"),
		AccountID:      getEnv("ACCOUNT_ID", "demo"),

		LedgerURL:       os.Getenv("LEDGER_URL"),
		WalletBridgeURL: os.Getenv("WALLET_BRIDGE_URL"),
		WalletAddress:   os.Getenv("WALLET_ADDRESS"),
		BalanceSource:   strings.ToLower(getEnv("BALANCE_SOURCE", defaultBalanceSource)),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),
		APIKeyHash:  os.Getenv("API_KEY_HASH"),

		ConfirmTimeout:  defaultConfirmTimeout,
		ConfirmPoll:     defaultConfirmPoll,
		BalanceCacheTTL: defaultBalanceTTL,
		IdempotencyTTL:  defaultIdempotencyTTL,
		ShutdownPeriod:  defaultShutdownDelay,
	}

	var err error
	if cfg.ConfirmTimeout, err = durationEnv("CONFIRM_TIMEOUT", cfg.ConfirmTimeout); err != nil {
		return Config{}, err
	}
	if cfg.ConfirmPoll, err = durationEnv("CONFIRM_POLL_INTERVAL", cfg.ConfirmPoll); err != nil {
		return Config{}, err
	}
	if cfg.BalanceCacheTTL, err = durationEnv("BALANCE_CACHE_TTL", cfg.BalanceCacheTTL); err != nil {
		return Config{}, err
	}
	if cfg.IdempotencyTTL, err = durationEnv("IDEMPOTENCY_TTL", cfg.IdempotencyTTL); err != nil {
		return Config{}, err
	}

	if v := os.Getenv(shutdownSecondsEnvVar); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", shutdownSecondsEnvVar, err)
		}
		cfg.ShutdownPeriod = time.Duration(seconds) * time.Second
	} else if cfg.ShutdownPeriod, err = durationEnv(shutdownDurationEnvVar, cfg.ShutdownPeriod); err != nil {
		return Config{}, err
	}

	if cfg.LedgerURL == "" {
		return Config{}, fmt.Errorf("LEDGER_URL must be set")
	}

	switch cfg.BalanceSource {
	case "rpc", "ledger":
	default:
		return Config{}, fmt.Errorf("BALANCE_SOURCE must be rpc or ledger, got %q", cfg.BalanceSource)
	}

	// Outside dev a real deposit target and wallet bridge are mandatory;
	// dev mode falls back to the simulated wallet.
	if !cfg.IsDev() {
		if cfg.DepositAddress == "" {
			return Config{}, fmt.Errorf("DEPOSIT_ADDRESS must be set when APP_ENV=%s", cfg.AppEnv)
		}
		if cfg.WalletBridgeURL == "" {
			return Config{}, fmt.Errorf("WALLET_BRIDGE_URL must be set when APP_ENV=%s", cfg.AppEnv)
		}
	}
	if cfg.DepositAddress == "" {
		cfg.DepositAddress = "tz1burnburnburnburnburnburnburjAYjjX"
	}

	return cfg, nil
}

// IsDev reports whether the gateway runs in a development environment.
func (c Config) IsDev() bool {
	switch strings.ToLower(c.AppEnv) {
	case "dev", "development", "local":
		return true
	default:
		return false
	}
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
