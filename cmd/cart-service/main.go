package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/namamy/cart-service/internal/cart"
	"github.com/namamy/cart-service/internal/catalog"
	"github.com/namamy/cart-service/internal/coupon"
	"github.com/namamy/cart-service/internal/httpapi"
	"github.com/namamy/cart-service/internal/poller"
	"github.com/namamy/cart-service/internal/pricing"
	"github.com/namamy/cart-service/internal/store"
	"github.com/namamy/cart-service/pkg/config"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.Info("Service configuration",
		zap.String("port", cfg.Port),
		zap.String("redis_addr", cfg.RedisAddr),
		zap.String("mongo_uri", cfg.MongoURI),
		zap.String("kafka_brokers", cfg.KafkaBrokers))

	ctx := context.Background()

	// Catalog: MongoDB behind a breaker so a dead catalog degrades to
	// last-known prices instead of failing mutations.
	mongoDB, err := catalog.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer mongoDB.Client().Disconnect(ctx)
	cat := catalog.NewGuard(catalog.NewMongoCatalog(mongoDB))

	// Coupons: Postgres store.
	couponCreds := &coupon.Credentials{
		Host:              cfg.CouponDBHost,
		Port:              cfg.CouponDBPort,
		User:              cfg.CouponDBUser,
		Password:          cfg.CouponDBPassword,
		DBName:            cfg.CouponDBName,
		MigrationsDirPath: cfg.CouponMigrationsDir,
	}
	coupons, err := coupon.NewPostgresStore(couponCreds)
	if err != nil {
		logger.Fatal("Failed to connect to coupon database", zap.Error(err))
	}
	defer coupons.Close()
	if err := coupons.RunMigrations(couponCreds); err != nil {
		logger.Fatal("Failed to run coupon migrations", zap.Error(err))
	}

	// Cart persistence: Redis, keyed per session.
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal("Redis connection failed", zap.Error(err))
	}

	rates := pricing.Config{
		TaxRate:               decimal.NewFromFloat(cfg.TaxRate),
		FreeShippingThreshold: decimal.NewFromFloat(cfg.FreeShippingThreshold),
		FlatShippingRate:      decimal.NewFromFloat(cfg.FlatShippingRate),
	}

	manager := cart.NewManager(cat, coupons, store.NewRedisStore(redisClient), rates, logger)

	// Clear carts when the order service confirms an order.
	pollerCtx, cancelPoller := context.WithCancel(ctx)
	orderPoller := poller.NewPoller(manager, logger, strings.Split(cfg.KafkaBrokers, ",")...)
	go orderPoller.Run(pollerCtx)

	handler := httpapi.NewCartHandler(manager, 5*time.Second, logger)
	router := httpapi.NewRouter(handler)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: otelhttp.NewHandler(router, "cart-service"),
	}

	go func() {
		logger.Info("Cart service listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to serve", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down cart service...")
	cancelPoller()
	orderPoller.Close()

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown error", zap.Error(err))
	}
	logger.Info("Cart service stopped")
}
