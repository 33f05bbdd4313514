package config

// Redis backs the rate limiter and the catalog response cache.  When the
// server cannot be reached at startup NewRedisClient returns nil and both
// middlewares turn into pass-throughs.

import (
    "context"
    "crypto/tls"
    "os"
    "strconv"
    "strings"
    "time"

    "github.com/hashicorp/go-hclog"
    "github.com/redis/go-redis/v9"
)

// NewRedisClient instantiates a Redis client using REDIS_ADDR (or
// REDIS_HOST + REDIS_PORT), REDIS_PASSWORD, REDIS_DB and REDIS_TLS.
func NewRedisClient(logger hclog.Logger) *redis.Client {
    addr := os.Getenv("REDIS_ADDR")
    if host, port := os.Getenv("REDIS_HOST"), os.Getenv("REDIS_PORT"); host != "" && port != "" {
        addr = host + ":" + port
    }
    if addr == "" {
        addr = "localhost:6379"
    }
    dbNum := 0
    if n, err := strconv.Atoi(os.Getenv("REDIS_DB")); err == nil {
        dbNum = n
    }
    var tlsConf *tls.Config
    if v := os.Getenv("REDIS_TLS"); strings.EqualFold(v, "true") || v == "1" {
        tlsConf = &tls.Config{MinVersion: tls.VersionTLS12}
    }
    client := redis.NewClient(&redis.Options{
        Addr:      addr,
        Password:  os.Getenv("REDIS_PASSWORD"),
        DB:        dbNum,
        TLSConfig: tlsConf,
    })
    ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
    defer cancel()
    if err := client.Ping(ctx).Err(); err != nil {
        logger.Warn("redis unavailable; rate limiting and caching disabled", "addr", addr, "error", err)
        _ = client.Close()
        return nil
    }
    return client
}
