package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
)

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable. The types reflect how the values are used in
// the application: strings for identifiers and secrets, ints for durations
// and costs.
type Config struct {
	Env        string // application environment ("dev" or "prod")
	Port       string // HTTP port to listen on
	MongoURI   string // MongoDB connection string
	MongoDB    string // database name
	JWTSecret  string // secret used to sign session JWTs
	JWTTTLMin  int    // session token time-to-live in minutes
	BcryptCost int    // bcrypt cost for password hashing

	SMTPHost string // outbound mail host (used by the email consumer)
	SMTPPort string // outbound mail port
	SMTPUser string // outbound mail username (optional)
	SMTPPass string // outbound mail password (optional)
	MailFrom string // From address on outbound mail
}

// Load reads configuration values from environment variables and returns a
// Config. Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
	return Config{
		Env:        must("APP_ENV"),
		Port:       must("APP_PORT"),
		MongoURI:   must("MONGO_URI"),
		MongoDB:    must("MONGO_DB"),
		JWTSecret:  must("JWT_SECRET"),
		JWTTTLMin:  mustInt("JWT_TTL_MIN"),
		BcryptCost: mustInt("BCRYPT_COST"),

		SMTPHost: os.Getenv("SMTP_HOST"),
		SMTPPort: os.Getenv("SMTP_PORT"),
		SMTPUser: os.Getenv("SMTP_USER"),
		SMTPPass: os.Getenv("SMTP_PASS"),
		MailFrom: envStr("MAIL_FROM", "Marketplace <no-reply@meshly.dev>"),
	}
}

// IsProd reports whether the app runs with production error presentation.
func (c Config) IsProd() bool { return c.Env == "prod" }

// must retrieves the value of a required environment variable. If the
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
