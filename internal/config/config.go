package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Module provides application configuration.
var Module = fx.Provide(Load)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPPort    string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int

	// CreditNettingPolicy decides how credits known before the year starts
	// reduce the quarterly schedule: "net_total" nets them against the
	// liability before the percentage split, "last_quarter" leaves the split
	// on the gross liability and nets only the final installment.
	CreditNettingPolicy string

	// RevisionAdvisoryThreshold is |actual-projected|/projected above which
	// a revision is recommended.
	RevisionAdvisoryThreshold float64

	// AllowRevisionAfterFinalize permits revisions on finalized assessments.
	AllowRevisionAfterFinalize bool

	SweepInterval  time.Duration
	SweepBatchSize int

	SeedRulePacks bool
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName:     getenv("APP_SERVICE", "taxsuite"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),
		HTTPPort:    getenv("HTTP_PORT", "8080"),

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "taxsuite"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 25),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),

		CreditNettingPolicy:        normalizeNettingPolicy(getenv("CREDIT_NETTING_POLICY", NettingNetTotal)),
		RevisionAdvisoryThreshold:  getenvFloat("REVISION_ADVISORY_THRESHOLD", 0.2),
		AllowRevisionAfterFinalize: getenvBool("ALLOW_REVISION_AFTER_FINALIZE", false),

		SweepInterval:  getenvDuration("SWEEP_INTERVAL", 24*time.Hour),
		SweepBatchSize: getenvInt("SWEEP_BATCH_SIZE", 25),

		SeedRulePacks: getenvBool("SEED_RULE_PACKS", true),
	}
}

const (
	NettingNetTotal    = "net_total"
	NettingLastQuarter = "last_quarter"
)

func normalizeNettingPolicy(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case NettingLastQuarter:
		return NettingLastQuarter
	default:
		return NettingNetTotal
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return def
	}
	return parsed
}
