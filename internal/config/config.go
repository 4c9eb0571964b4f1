package config // package config loads application configuration from environment variables

import (
    "log"      // log is used to report configuration errors and halt execution
    "os"       // os provides access to environment variables
    "strconv"  // strconv converts strings to other types
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The types reflect how the values are used in
// the application: strings for identifiers, a float for the tax rate.
type Config struct {
    Env     string  // application environment (e.g. "dev", "prod")
    Port    string  // HTTP port to listen on
    DBUser  string  // database username
    DBPass  string  // database password (optional)
    DBHost  string  // database host address
    DBPort  string  // database port number
    DBName  string  // database name
    TaxRate float64 // tax rate applied when issuing invoices (e.g. 0.08)
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
    return Config{
        Env:     must("APP_ENV"),           // environment (dev/test/prod)
        Port:    must("APP_PORT"),          // port to bind the HTTP server
        DBUser:  must("DB_USER"),           // database user
        DBPass:  os.Getenv("DB_PASS"),      // database password (empty allowed)
        DBHost:  must("DB_HOST"),           // database host
        DBPort:  must("DB_PORT"),           // database port
        DBName:  must("DB_NAME"),           // database name
        TaxRate: mustFloat("TAX_RATE"),     // invoice tax rate as a fraction
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

// mustFloat is like must() but converts the retrieved string into a float.
// If conversion fails or the value is negative, the application logs a
// fatal error and exits.
func mustFloat(key string) float64 {
    s := must(key)
    f, err := strconv.ParseFloat(s, 64)
    if err != nil || f < 0 {
        log.Fatalf("invalid tax rate for %s: %q", key, s)
    }
    return f
}
