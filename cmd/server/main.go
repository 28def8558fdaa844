package main // Entry point package

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"

	"github.com/iliyamo/college-bus-booking/internal/config"
	"github.com/iliyamo/college-bus-booking/internal/database"
	"github.com/iliyamo/college-bus-booking/internal/handler"
	"github.com/iliyamo/college-bus-booking/internal/middleware"
	"github.com/iliyamo/college-bus-booking/internal/repository"
	"github.com/iliyamo/college-bus-booking/internal/router"
	"github.com/iliyamo/college-bus-booking/internal/service"
)

func main() {
	_ = godotenv.Load() // .env is optional

	cfg := config.Load()
	cfg.RegisterFlags(pflag.CommandLine)
	pflag.Parse()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	dep, err := cfg.LoadDeployment()
	if err != nil {
		log.Fatalf("deployment: %v", err)
	}

	rdb := config.NewRedisClient() // nil when Redis is unreachable
	store := openStore(cfg, dep, rdb)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	opts := []service.Option{service.WithMetrics(service.NewMetrics(reg))}
	if cfg.EventsEnabled {
		opts = append(opts, service.WithPublisher(service.NewAMQPPublisher(cfg.AMQPURL)))
	}
	svc := service.NewCoordinator(dep, store, opts...)

	cacheCfg := config.LoadCacheConfig()
	h := handler.NewBookingHandler(svc, middleware.NewCacheInvalidator(cacheCfg, rdb))

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Logger(), echomw.Recover())
	router.RegisterRoutes(e, reg)
	router.RegisterBooking(e, h, cfg.JWTSecret, router.BookingMiddleware{
		Cache:     middleware.NewRedisCache(cacheCfg, rdb),
		RateLimit: middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
	})

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s, bus=%s, seats=%d, store=%s, redis=%t)",
		addr, cfg.Env, dep.Name, dep.Layout.Capacity(), cfg.Store, rdb != nil)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}

// openStore builds the configured booking store.  Every store enforces
// the deployment's team caps at write time.
func openStore(cfg config.Config, dep config.Deployment, rdb *redis.Client) service.BookingStore {
	switch cfg.Store {
	case config.StoreRedis:
		if rdb == nil {
			log.Fatal("store=redis but Redis is unreachable")
		}
		return repository.NewRedisBookingRepo(rdb, cfg.RedisPrefix).WithCapacity(dep.Capacity)
	case config.StoreMemory:
		log.Printf("using in-memory store; bookings are lost on restart")
		return repository.NewMemoryBookingRepo().WithCapacity(dep.Capacity)
	default:
		db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		if err != nil {
			log.Fatalf("db: %v", err)
		}
		if err := database.EnsureSchema(context.Background(), db); err != nil {
			log.Fatalf("db schema: %v", err)
		}
		repo := repository.NewBookingRepo(db).WithCapacity(dep.Capacity)
		if err := repo.SeedBucketCounts(context.Background()); err != nil {
			log.Fatalf("db counters: %v", err)
		}
		return repo
	}
}
