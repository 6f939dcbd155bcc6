package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Two separate secrets are kept on purpose: the
// JWT secret signs staff access tokens, while the token secret feeds the
// HMAC over entry and sheet credentials.  Compromise of one must not
// compromise the other.
type Config struct {
	Env               string  // application environment (e.g. "dev", "prod")
	Port              string  // HTTP port to listen on
	DBUser            string  // database username
	DBPass            string  // database password (optional)
	DBHost            string  // database host address
	DBPort            string  // database port number
	DBName            string  // database name
	JWTSecret         string  // secret used to sign staff JWTs
	TokenSecret       string  // secret used for HMAC over entry/sheet credentials
	AccessTTLMin      int     // staff access token time-to-live in minutes
	BcryptCost        int     // bcrypt cost for staff password hashing
	EntryTokenTTLHrs  int     // hours an unused entry token stays valid
	StorageRoot       string  // root directory of the local object store
	OCREngineURL      string  // base URL of the QR/OCR recognition sidecar
	ScoreConfidence   float64 // OCR confidence threshold for auto-applied scores
	SeatAssignRetries int     // attempts before a seat conflict is surfaced
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.  Tunables with safe
// defaults (storage root, confidence threshold, retry count) are optional.
func Load() Config {
	return Config{
		Env:               must("APP_ENV"),
		Port:              must("APP_PORT"),
		DBUser:            must("DB_USER"),
		DBPass:            os.Getenv("DB_PASS"), // empty allowed
		DBHost:            must("DB_HOST"),
		DBPort:            must("DB_PORT"),
		DBName:            must("DB_NAME"),
		JWTSecret:         must("JWT_SECRET"),
		TokenSecret:       must("TOKEN_SECRET"),
		AccessTTLMin:      mustInt("ACCESS_TOKEN_TTL_MIN"),
		BcryptCost:        mustInt("BCRYPT_COST"),
		EntryTokenTTLHrs:  optInt("ENTRY_TOKEN_TTL_HOURS", 24),
		StorageRoot:       optStr("STORAGE_ROOT", "data"),
		OCREngineURL:      optStr("OCR_ENGINE_URL", "http://localhost:8090"),
		ScoreConfidence:   optFloat("OCR_CONFIDENCE_THRESHOLD", 0.7),
		SeatAssignRetries: optInt("SEAT_ASSIGN_RETRIES", 3),
	}
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
// If conversion fails, the application logs a fatal error and exits.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

// optStr returns the environment value or a default when unset.
func optStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// optInt returns the environment value parsed as int, or a default when unset.
func optInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, v)
	}
	return n
}

// optFloat returns the environment value parsed as float64, or a default when unset.
func optFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Fatalf("invalid float for %s: %q", key, v)
	}
	return f
}
