package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"

	"github.com/harentsoaR/clinic-api/internal/cache"
	"github.com/harentsoaR/clinic-api/internal/config"
	"github.com/harentsoaR/clinic-api/internal/handlers"
	"github.com/harentsoaR/clinic-api/internal/logger"
	"github.com/harentsoaR/clinic-api/internal/metrics"
	"github.com/harentsoaR/clinic-api/internal/middleware"
	"github.com/harentsoaR/clinic-api/internal/push"
	"github.com/harentsoaR/clinic-api/internal/services"
	"github.com/harentsoaR/clinic-api/internal/store"
	"github.com/harentsoaR/clinic-api/internal/upload"
	"github.com/harentsoaR/clinic-api/internal/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logr, err := logger.New(cfg.Log.Level, cfg.Log.Format, "clinic-api")
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if err := run(cfg, logr); err != nil {
		logr.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logr *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Database ---
	client, err := store.Connect(ctx, cfg.Mongo)
	if err != nil {
		return err
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Disconnect(disconnectCtx)
	}()
	db := client.Database(cfg.Mongo.Database)
	if err := store.EnsureIndexes(ctx, db, logr); err != nil {
		return err
	}
	logr.Info("connected to MongoDB", zap.String("database", cfg.Mongo.Database))

	// --- Cache ---
	m := metrics.New("clinic", prometheus.DefaultRegisterer)
	backend, closeCache, err := newCacheBackend(ctx, cfg.Redis, logr)
	if err != nil {
		return err
	}
	defer closeCache()
	sharedCache := cache.NewInstrumented(backend, m)

	// --- Services ---
	tokens, err := utils.NewTokenIssuer(cfg.JWT.Secret, cfg.JWT.Expiry)
	if err != nil {
		return err
	}
	hasher := utils.NewBcryptHasher(bcrypt.DefaultCost)
	accounts := store.NewAccounts(db, cfg.Mongo.Transactions, logr)
	appointments := store.NewAppointments(db)
	reviews := store.NewReviews(db)
	notifier := services.NewNotificationService(push.NewClient(cfg.Push, logr), logr)
	uploader := upload.NewCloudinary(cfg.Cloudinary, logr)

	h := handlers.NewHandler(
		services.NewAuthService(accounts, hasher, tokens, logr),
		services.NewAdminService(accounts, hasher, tokens, uploader, logr),
		services.NewAppointmentService(appointments, accounts, sharedCache, notifier, cfg.Cache.AppointmentTTL, logr),
		services.NewReviewService(reviews, accounts, sharedCache, cfg.Cache.ReviewTTL, logr),
		logr,
	)

	// --- Router ---
	if err := middleware.RegisterValidators(); err != nil {
		return err
	}
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Recovery(logr),
		middleware.Logger(logr),
		middleware.Metrics(m),
		cors.New(corsConfig(cfg.CORS)),
	)
	if cfg.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:  rate.Limit(cfg.RateLimit.RequestsPerSecond),
			Burst: cfg.RateLimit.Burst,
		})
		r.Use(limiter.RateLimit())
	}
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	h.RegisterRoutes(r, tokens)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("starting server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newCacheBackend returns Redis when a URL is configured and the in-process cache otherwise.
func newCacheBackend(ctx context.Context, cfg config.RedisConfig, logr *zap.Logger) (cache.Backend, func(), error) {
	if cfg.URL == "" {
		logr.Info("no Redis URL configured, using in-process cache")
		return cache.NewMemory(10 * time.Minute), func() {}, nil
	}
	client, err := cache.NewRedisClient(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	logr.Info("connected to Redis")
	return cache.NewRedis(client), func() { _ = client.Close() }, nil
}

func corsConfig(cfg config.CORSConfig) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", middleware.HeaderXRequestID},
		ExposeHeaders: []string{middleware.HeaderXRequestID},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range cfg.AllowedOrigins {
		if o == "*" {
			// Credentials cannot be combined with a wildcard origin.
			c.AllowAllOrigins = true
			return c
		}
	}
	c.AllowOrigins = cfg.AllowedOrigins
	c.AllowCredentials = true
	return c
}
