// Package config loads application configuration from environment variables.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/gommon/log"

	"github.com/iliyamo/flight-booking/internal/database"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.
type Config struct {
	Env            string // APP_ENV (dev, test, prod)
	Port           string // APP_PORT
	DBUser         string // DB_USER
	DBPass         string // DB_PASS, empty allowed
	DBHost         string // DB_HOST
	DBPort         string // DB_PORT
	DBName         string // DB_NAME
	JWTSecret      string // JWT_SECRET
	AccessTTLMin   int    // ACCESS_TOKEN_TTL_MIN
	RefreshTTLDays int    // REFRESH_TOKEN_TTL_DAYS
	BcryptCost     int    // BCRYPT_COST

	AMQPURL       string        // AMQP_URL or RABBITMQ_URL; empty disables events
	LogDir        string        // BOOKING_LOG_DIR, where the event consumer writes booking.log
	CheckInWindow time.Duration // CHECKIN_WINDOW, how long before departure check-in opens
	AutoMigrate   bool          // DB_AUTO_MIGRATE, apply the embedded schema at startup
}

// Load reads configuration values from environment variables.  Missing
// required variables are fatal.
func Load() Config {
	amqpURL := os.Getenv("AMQP_URL")
	if amqpURL == "" {
		amqpURL = os.Getenv("RABBITMQ_URL")
	}
	return Config{
		Env:            strings.ToLower(strings.TrimSpace(must("APP_ENV"))),
		Port:           must("APP_PORT"),
		DBUser:         must("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"),
		DBHost:         must("DB_HOST"),
		DBPort:         must("DB_PORT"),
		DBName:         must("DB_NAME"),
		JWTSecret:      must("JWT_SECRET"),
		AccessTTLMin:   mustInt("ACCESS_TOKEN_TTL_MIN"),
		RefreshTTLDays: mustInt("REFRESH_TOKEN_TTL_DAYS"),
		BcryptCost:     mustInt("BCRYPT_COST"),

		AMQPURL:       amqpURL,
		LogDir:        envStr("BOOKING_LOG_DIR", "logs"),
		CheckInWindow: envDur("CHECKIN_WINDOW", 24*time.Hour),
		AutoMigrate:   envBool("DB_AUTO_MIGRATE", false),
	}
}

// selfServiceEmployeeEnvs are the environments where a new account may
// pick the EMPLOYEE role for itself.  Anything else, including unknown
// values such as "production" or "staging", is treated as production.
var selfServiceEmployeeEnvs = map[string]bool{"dev": true, "development": true, "local": true, "test": true}

// SelfServiceEmployees reports whether registration may grant EMPLOYEE.
func (c Config) SelfServiceEmployees() bool {
	return selfServiceEmployeeEnvs[strings.ToLower(strings.TrimSpace(c.Env))]
}

// Database returns the connection options for database.Open.
func (c Config) Database() database.Options {
	return database.Options{User: c.DBUser, Pass: c.DBPass, Host: c.DBHost, Port: c.DBPort, Name: c.DBName}
}

// must retrieves a required environment variable or exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is must for integers.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envBool(k string, d bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "True", "yes", "YES", "on", "ON":
		return true
	case "0", "false", "FALSE", "False", "no", "NO", "off", "OFF":
		return false
	}
	return d
}

func envInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if dur, err := time.ParseDuration(v); err == nil {
		return dur
	}
	return d
}
