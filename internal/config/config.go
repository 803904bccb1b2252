package config // package config loads application configuration from environment variables

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Unlike the rate limit and Redis settings, every
// value here has a documented default so the server starts against a local
// MySQL with no .env file at all.
type Config struct {
	Env            string        // application environment (dev, test, prod)
	Port           string        // HTTP port to listen on
	LogLevel       string        // debug, info, warn, error
	DBDSN          string        // full go-sql-driver DSN; overrides the discrete fields when set
	DBUser         string        // database username
	DBPass         string        // database password (empty allowed)
	DBHost         string        // database host address
	DBPort         string        // database port number
	DBName         string        // database name
	SessionSecret  string        // HMAC key for the session cookie
	SessionTimeout time.Duration // sliding idle timeout
	SessionTTL     time.Duration // how long idle session records are kept
	BcryptCost     int           // bcrypt cost for password hashing
	CSRFEnabled    bool          // protect form posts with echo's CSRF middleware
	RabbitURL      string        // broker for activity events; empty disables publishing
}

// Load reads configuration values from the environment and fills in defaults.
// The second return value is true when SESSION_SECRET was absent and a random
// per-process key was generated; callers should warn because sessions will
// not survive a restart.
func Load() (Config, bool) {
	cfg := Config{
		Env:            envStr("APP_ENV", "dev"),
		Port:           envStr("APP_PORT", "8080"),
		LogLevel:       envStr("LOG_LEVEL", "info"),
		DBDSN:          envStr("DB_DSN", ""),
		DBUser:         envStr("DB_USER", "root"),
		DBPass:         envStr("DB_PASSWORD", envStr("DB_PASS", "")),
		DBHost:         envStr("DB_HOST", "localhost"),
		DBPort:         envStr("DB_PORT", "3306"),
		DBName:         envStr("DB_NAME", "filmio"),
		SessionSecret:  envStr("SESSION_SECRET", ""),
		SessionTimeout: envDur("SESSION_TIMEOUT", 1800*time.Second),
		SessionTTL:     envDur("SESSION_RECORD_TTL", 24*time.Hour),
		BcryptCost:     envInt("BCRYPT_COST", 10),
		CSRFEnabled:    envBool("CSRF_ENABLED", true),
		RabbitURL:      envStr("RABBITMQ_URL", envStr("AMQP_URL", "")),
	}
	generated := false
	if cfg.SessionSecret == "" {
		cfg.SessionSecret = randomSecret()
		generated = true
	}
	if cfg.SessionTimeout <= 0 {
		cfg.SessionTimeout = 1800 * time.Second
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		cfg.BcryptCost = 10
	}
	return cfg, generated
}

// IsProd reports whether cookies should be marked Secure.
func (c Config) IsProd() bool { return c.Env == "prod" || c.Env == "production" }

// DSN returns the go-sql-driver connection string.  A DB_DSN override is
// kept as given except that DATETIME parsing and UTC are forced, because the
// repositories scan into time.Time.  An unparsable override is returned
// unchanged so the driver reports the error on open.
func (c Config) DSN() string {
	if c.DBDSN != "" {
		mc, err := mysql.ParseDSN(c.DBDSN)
		if err != nil {
			return c.DBDSN
		}
		mc.ParseTime = true
		mc.Loc = time.UTC
		return mc.FormatDSN()
	}
	auth := c.DBUser
	if c.DBPass != "" {
		auth = fmt.Sprintf("%s:%s", c.DBUser, c.DBPass)
	}
	// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps times consistent
	return fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		auth, c.DBHost, c.DBPort, c.DBName)
}

func randomSecret() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return hex.EncodeToString(buf)
}
