package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

// Prefix is prepended to every environment key read by Load.
const Prefix = "ROOMRES_"

// Config captures environment driven configuration values for the reservation service.
type Config struct {
	HTTPPort            int
	SQLiteDSN           string
	SessionSecret       string
	SessionTTL          time.Duration
	Location            *time.Location
	StrictSlotAlignment bool
	CORSAllowedOrigins  []string
	LogLevel            string
}

// LookupFunc resolves an environment key.
type LookupFunc func(key string) (string, bool)

// LoadEnvFile copies variables from a dotenv file into the process
// environment without overriding variables that are already set. A missing
// file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: stat %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("config: load %s: %w", path, err)
	}
	return nil
}

// Load parses configuration values from the current process environment.
func Load() (Config, error) {
	return LoadFrom(os.LookupEnv)
}

// LoadFrom parses configuration values using lookup.
//
// Optional fields fall back to defaults. Missing required keys are reported
// before invalid values, each as a comma separated list.
func LoadFrom(lookup LookupFunc) (Config, error) {
	cfg := Config{
		HTTPPort:   8080,
		SQLiteDSN:  "file:roomreservations.db",
		SessionTTL: 7 * 24 * time.Hour,
		Location:   time.UTC,
		LogLevel:   "info",
	}

	get := func(name string) string {
		value, _ := lookup(Prefix + name)
		return strings.TrimSpace(value)
	}

	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 4)

	if portValue := get("HTTP_PORT"); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 || port > 65535 {
			invalid = append(invalid, Prefix+"HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := get("SQLITE_DSN"); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if secret := get("SESSION_SECRET"); secret == "" {
		missing = append(missing, Prefix+"SESSION_SECRET")
	} else {
		cfg.SessionSecret = secret
	}

	if ttlValue := get("SESSION_TTL"); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, Prefix+"SESSION_TTL")
		} else {
			cfg.SessionTTL = ttl
		}
	}

	if tz := get("TIMEZONE"); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			invalid = append(invalid, Prefix+"TIMEZONE")
		} else {
			cfg.Location = loc
		}
	}

	if strictValue := get("STRICT_SLOT_ALIGNMENT"); strictValue != "" {
		strict, err := strconv.ParseBool(strictValue)
		if err != nil {
			invalid = append(invalid, Prefix+"STRICT_SLOT_ALIGNMENT")
		} else {
			cfg.StrictSlotAlignment = strict
		}
	}

	if origins := get("CORS_ALLOWED_ORIGINS"); origins != "" {
		for _, origin := range strings.Split(origins, ",") {
			if trimmed := strings.TrimSpace(origin); trimmed != "" {
				cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, trimmed)
			}
		}
	}

	if level := get("LOG_LEVEL"); level != "" {
		switch strings.ToLower(level) {
		case "debug", "info", "warn", "warning", "error":
			cfg.LogLevel = strings.ToLower(level)
		default:
			invalid = append(invalid, Prefix+"LOG_LEVEL")
		}
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables are not set: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("environment variables have invalid values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

// Addr returns the listen address for HTTPPort.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}
