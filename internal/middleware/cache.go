package middleware

import (
    "bytes"
    "context"
    "crypto/sha1"
    "encoding/json"
    "fmt"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/college-bus-booking/internal/config"
)

// defaultSeatMapTTL applies when CACHE_TTL is zero.  Bookings purge the
// cache anyway, so the TTL only bounds staleness across replicas.
const defaultSeatMapTTL = 30 * time.Second

// seatMapRecorder tees the seat map or stats body into buf while it is
// written to the client.  overflow is set once the body passes limit; an
// overflowing response is served but never cached.
type seatMapRecorder struct {
    http.ResponseWriter
    status   int
    buf      bytes.Buffer
    limit    int
    overflow bool
}

func (w *seatMapRecorder) WriteHeader(code int) {
    w.status = code
    w.ResponseWriter.WriteHeader(code)
}

func (w *seatMapRecorder) Write(b []byte) (int, error) {
    if !w.overflow {
        if w.limit > 0 && w.buf.Len()+len(b) > w.limit {
            w.overflow = true
            w.buf.Reset()
        } else {
            w.buf.Write(b)
        }
    }
    return w.ResponseWriter.Write(b)
}

// seatMapKey names the cache entry for a read.  The seat routes carry the
// seat number in the path, so every strategy keys on the request path
// rather than the route pattern; /v1/seats/3 and /v1/seats/4 never share
// an entry.  All keys live under prefix so CacheInvalidator can purge them.
func seatMapKey(cfg config.CacheConfig, c echo.Context) string {
    r := c.Request()
    parts := []string{r.URL.Path}
    switch strings.ToLower(cfg.KeyStrategy) {
    case "route":
    case "method_route":
        parts = append(parts, r.Method)
    case "method_route_query":
        parts = append(parts, r.Method, r.URL.RawQuery)
    default: // route_query
        parts = append(parts, r.URL.RawQuery)
    }
    sum := sha1.Sum([]byte(strings.Join(parts, "\x00")))
    return fmt.Sprintf("%s:%x", cfg.Prefix, sum)
}

// cachedSeatMap is what a cache entry holds: enough to replay the
// original response byte for byte.
type cachedSeatMap struct {
    Status int         `json:"status"`
    Header http.Header `json:"header"`
    Body   []byte      `json:"body"`
}

// NewRedisCache caches successful seat map and stats responses.  Headers
// and body are stored together so a HIT is byte-identical to the MISS that
// filled it.  Entries live for cfg.TTL or until a CacheInvalidator purges
// the prefix after a confirmed booking.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    ttl := cfg.TTL
    if ttl <= 0 {
        ttl = defaultSeatMapTTL
    }

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if !cfg.Methods[strings.ToUpper(c.Request().Method)] {
                return next(c)
            }
            ctx := c.Request().Context()
            key := seatMapKey(cfg, c)

            if raw, err := rdb.Get(ctx, key).Bytes(); err == nil {
                var hit cachedSeatMap
                if json.Unmarshal(raw, &hit) == nil && hit.Status != 0 {
                    return replaySeatMap(c, hit)
                }
            }

            rec := &seatMapRecorder{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: cfg.MaxBodyBytes}
            c.Response().Writer = rec
            c.Response().Header().Set("X-Cache", "MISS")
            if err := next(c); err != nil {
                return err
            }
            if rec.status != http.StatusOK || rec.overflow {
                return nil
            }

            entry := cachedSeatMap{Status: rec.status, Header: c.Response().Header().Clone(), Body: rec.buf.Bytes()}
            entry.Header.Del("X-Cache")
            if raw, err := json.Marshal(entry); err == nil {
                // the request context may already be cancelled once the body is flushed
                _ = rdb.SetEx(context.WithoutCancel(ctx), key, raw, ttl).Err()
            }
            return nil
        }
    }
}

func replaySeatMap(c echo.Context, hit cachedSeatMap) error {
    h := c.Response().Header()
    for k, vals := range hit.Header {
        if strings.EqualFold(k, echo.HeaderContentLength) {
            continue
        }
        for _, v := range vals {
            h.Add(k, v)
        }
    }
    h.Set("X-Cache", "HIT")
    c.Response().WriteHeader(hit.Status)
    _, err := c.Response().Write(hit.Body)
    return err
}

// CacheInvalidator deletes every cached response under a prefix.  A nil
// client makes Invalidate a no-op.
type CacheInvalidator struct {
    rdb    *redis.Client
    prefix string
}

// NewCacheInvalidator returns an invalidator for the cache configured by cfg.
func NewCacheInvalidator(cfg config.CacheConfig, rdb *redis.Client) *CacheInvalidator {
    if !cfg.Enabled {
        rdb = nil
    }
    return &CacheInvalidator{rdb: rdb, prefix: cfg.Prefix}
}

// Invalidate scans prefix:* and deletes the matches in batches.  SCAN
// keeps Redis responsive where KEYS would block on a large keyspace.
func (ci *CacheInvalidator) Invalidate(ctx context.Context) error {
    if ci == nil || ci.rdb == nil {
        return nil
    }
    var cursor uint64
    for {
        keys, next, err := ci.rdb.Scan(ctx, cursor, ci.prefix+":*", 100).Result()
        if err != nil {
            return fmt.Errorf("scan cache keys: %w", err)
        }
        if len(keys) > 0 {
            if err := ci.rdb.Del(ctx, keys...).Err(); err != nil {
                return fmt.Errorf("delete cache keys: %w", err)
            }
        }
        if next == 0 {
            return nil
        }
        cursor = next
    }
}
