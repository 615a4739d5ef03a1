package cliparse

import (
	"errors"
	"flag"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port         int
	DatabaseURL  string
	DatabaseType string
	AdminKey     string
	AdminKeySalt string
	MaxRetries   int
	RateLimit    float64 // requests per second per client, 0 disables
	RateBurst    int
	TrustProxy   bool // key rate limits on forwarded client IPs
	RecomputeAll bool
}

// LoadEnvFile loads variables from a .env file if one exists.
// Variables already set in the environment win.
func LoadEnvFile(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return godotenv.Load(path)
}

// ParseFlags validates flags and sets port number
func ParseFlags(args []string) (Config, error) {
	var cfg Config

	fs := flag.NewFlagSet("compass", flag.ContinueOnError)

	// Network config (can be CLI args or env)
	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	fs.StringVar(&cfg.DatabaseType, "t", "", "Database type (sqlite or postgres)")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.AdminKey, "admin-key", "", "Site admin key (prefer env)")
	fs.StringVar(&cfg.AdminKeySalt, "admin-salt", "", "Admin key salt (prefer env)")

	// Tuning
	fs.IntVar(&cfg.MaxRetries, "max-retries", -1, "Retries for conflicting vote transactions")
	fs.Float64Var(&cfg.RateLimit, "rate-limit", -1, "Requests per second per client on write routes (0 disables)")
	fs.IntVar(&cfg.RateBurst, "rate-burst", 0, "Rate limiter burst size")

	fs.BoolVar(&cfg.TrustProxy, "trust-proxy", false, "Trust X-Forwarded-For for rate limiting (only behind a proxy)")
	fs.BoolVar(&cfg.RecomputeAll, "recompute-all", false, "Recompute every icon's scores and exit")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	// Fall back to environment variables
	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = 3318 // default
		}
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
	}

	if cfg.DatabaseType == "" {
		cfg.DatabaseType = os.Getenv("DATABASE_TYPE")
		if cfg.DatabaseType == "" {
			cfg.DatabaseType = "sqlite"
		}
	}
	if cfg.DatabaseType != "sqlite" && cfg.DatabaseType != "postgres" {
		return Config{}, errors.New("database type must be sqlite or postgres")
	}

	if cfg.MaxRetries < 0 {
		n, err := intEnv("MAX_VOTE_RETRIES", 5)
		if err != nil {
			return Config{}, err
		}
		cfg.MaxRetries = n
	}

	if cfg.RateLimit < 0 {
		cfg.RateLimit = 5
		if s := os.Getenv("RATE_LIMIT"); s != "" {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil || v < 0 {
				return Config{}, errors.New("invalid RATE_LIMIT env variable")
			}
			cfg.RateLimit = v
		}
	}
	if cfg.RateBurst <= 0 {
		n, err := intEnv("RATE_BURST", 10)
		if err != nil {
			return Config{}, err
		}
		cfg.RateBurst = n
	}

	if !cfg.TrustProxy {
		if s := os.Getenv("TRUST_PROXY"); s != "" {
			v, err := strconv.ParseBool(s)
			if err != nil {
				return Config{}, errors.New("invalid TRUST_PROXY env variable")
			}
			cfg.TrustProxy = v
		}
	}

	// Secrets - MUST be provided
	if cfg.AdminKey == "" {
		cfg.AdminKey = os.Getenv("ADMIN_KEY")
	}
	if cfg.AdminKey == "" {
		return Config{}, errors.New("ADMIN_KEY required")
	}

	if cfg.AdminKeySalt == "" {
		cfg.AdminKeySalt = os.Getenv("ADMIN_KEY_SALT")
	}
	if cfg.AdminKeySalt == "" {
		return Config{}, errors.New("ADMIN_KEY_SALT required")
	}

	return cfg, nil
}

func intEnv(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, errors.New("invalid " + key + " env variable")
	}
	return n, nil
}
