package config

import (
    "context"
    "crypto/tls"
    "log"
    "os"
    "time"

    "github.com/redis/go-redis/v9"
)

// RedisOptions builds the client options for the Redis instance that
// holds the seat map cache, the booking rate limit buckets and, with
// STORE=redis, the bookings hash.
//
//	REDIS_ADDR                 host:port, default localhost:6379
//	REDIS_HOST, REDIS_PORT     override REDIS_ADDR when both are set
//	REDIS_PASSWORD             optional
//	REDIS_DB                   database number, default 0
//	REDIS_TLS                  enable TLS
//	REDIS_TLS_SKIP_VERIFY      accept any server certificate (managed Redis
//	                           with self-signed certs)
func RedisOptions() *redis.Options {
    addr := envStr("REDIS_ADDR", "localhost:6379")
    if host, port := os.Getenv("REDIS_HOST"), os.Getenv("REDIS_PORT"); host != "" && port != "" {
        addr = host + ":" + port
    }
    opts := &redis.Options{
        Addr:     addr,
        Password: os.Getenv("REDIS_PASSWORD"),
        DB:       envInt("REDIS_DB", 0),
    }
    if envBool("REDIS_TLS", false) {
        opts.TLSConfig = &tls.Config{
            MinVersion:         tls.VersionTLS12,
            InsecureSkipVerify: envBool("REDIS_TLS_SKIP_VERIFY", false),
        }
    }
    return opts
}

// NewRedisClient connects with RedisOptions and pings the server.  It
// returns nil when Redis is unreachable; the server then runs without the
// seat map cache and the booking rate limit, and refuses STORE=redis.
func NewRedisClient() *redis.Client {
    opts := RedisOptions()
    client := redis.NewClient(opts)
    ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
    defer cancel()
    if err := client.Ping(ctx).Err(); err != nil {
        log.Printf("redis %s unreachable: %v", opts.Addr, err)
        _ = client.Close()
        return nil
    }
    return client
}
