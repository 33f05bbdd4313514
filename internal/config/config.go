// Package config loads application configuration from environment variables.
// A .env file in the working directory is read first when present.
package config

import (
    "fmt"
    "os"
    "strconv"

    "github.com/joho/godotenv"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.
type Config struct {
    Env            string // application environment (e.g. "dev", "prod")
    Port           string // HTTP port to listen on
    DBUser         string // database username
    DBPass         string // database password (optional)
    DBHost         string // database host address
    DBPort         string // database port number
    DBName         string // database name
    DBWaitSeconds  int    // how long to wait for the database at startup
    JWTSecret      string // secret used to sign JWTs
    AccessTTLMin   int    // access token time-to-live in minutes
    RefreshTTLDays int    // refresh token time-to-live in days
    BcryptCost     int    // bcrypt cost for password hashing
    AdminEmail     string // optional staff account created at startup
    AdminPassword  string
    LogLevel       string // hclog level name (trace, debug, info, warn, error)
    LogJSON        bool   // emit JSON log lines instead of text
}

// Load reads configuration values from the environment and returns a
// Config.  Missing required variables are reported together in the error.
func Load() (Config, error) {
    _ = godotenv.Load()

    var missing []string
    must := func(key string) string {
        v, ok := os.LookupEnv(key)
        if !ok || v == "" {
            missing = append(missing, key)
        }
        return v
    }

    cfg := Config{
        Env:            getenv("APP_ENV", "dev"),
        Port:           getenv("APP_PORT", "8000"),
        DBUser:         must("DB_USER"),
        DBPass:         os.Getenv("DB_PASS"),
        DBHost:         must("DB_HOST"),
        DBPort:         getenv("DB_PORT", "3306"),
        DBName:         must("DB_NAME"),
        DBWaitSeconds:  envInt("DB_WAIT_SECONDS", 30),
        JWTSecret:      must("JWT_SECRET"),
        AccessTTLMin:   envInt("ACCESS_TOKEN_TTL_MIN", 30),
        RefreshTTLDays: envInt("REFRESH_TOKEN_TTL_DAYS", 1),
        BcryptCost:     envInt("BCRYPT_COST", 10),
        AdminEmail:     os.Getenv("ADMIN_EMAIL"),
        AdminPassword:  os.Getenv("ADMIN_PASSWORD"),
        LogLevel:       getenv("LOG_LEVEL", "info"),
        LogJSON:        envBool("LOG_JSON", false),
    }
    if len(missing) > 0 {
        return Config{}, fmt.Errorf("missing required env vars: %v", missing)
    }
    if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
        return Config{}, fmt.Errorf("invalid BCRYPT_COST %d", cfg.BcryptCost)
    }
    return cfg, nil
}

func getenv(key, def string) string {
    if v := os.Getenv(key); v != "" {
        return v
    }
    return def
}

func envBool(k string, d bool) bool {
    v := os.Getenv(k)
    if v == "" {
        return d
    }
    switch v {
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
