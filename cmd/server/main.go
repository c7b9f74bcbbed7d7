package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/lunoxdev/mai-store/internal/admin"
	"github.com/lunoxdev/mai-store/internal/auth"
	"github.com/lunoxdev/mai-store/internal/cache"
	"github.com/lunoxdev/mai-store/internal/cart"
	"github.com/lunoxdev/mai-store/internal/checkout"
	h "github.com/lunoxdev/mai-store/internal/http"
	"github.com/lunoxdev/mai-store/internal/publisher"
	"github.com/lunoxdev/mai-store/internal/repository"
	"github.com/lunoxdev/mai-store/internal/storage"
)

type Config struct {
	HTTPPort        string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration

	Postgres  repository.Credentials
	MongoURI  string
	MongoDB   string
	RedisAddr string

	KafkaBrokers []string

	Minio storage.MinioConfig

	Auth auth.Config

	Checkout checkout.Config
}

func loadConfig() *Config {
	pgPort, _ := strconv.Atoi(getEnv("POSTGRES_PORT", "5432"))
	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		RequestTimeout:  30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		Postgres: repository.Credentials{
			Host:              getEnv("POSTGRES_HOST", "localhost"),
			Port:              pgPort,
			User:              getEnv("POSTGRES_USER", "store"),
			Password:          getEnv("POSTGRES_PASSWORD", "store"),
			DBName:            getEnv("POSTGRES_DB", "store"),
			MigrationsDirPath: getEnv("MIGRATIONS_DIR", "migrations"),
		},
		MongoURI:  getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:   getEnv("MONGO_DB", "store"),
		RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),
		KafkaBrokers: []string{
			getEnv("KAFKA_BROKER", "localhost:9092"),
		},
		Minio: storage.MinioConfig{
			Endpoint:      getEnv("MINIO_ENDPOINT", "localhost:9000"),
			AccessKey:     getEnv("MINIO_ACCESS_KEY", "minioadmin"),
			SecretKey:     getEnv("MINIO_SECRET_KEY", "minioadmin"),
			Bucket:        getEnv("MINIO_BUCKET", "product-images"),
			UseSSL:        getEnv("MINIO_USE_SSL", "") == "true",
			PublicBaseURL: getEnv("MINIO_PUBLIC_URL", ""),
		},
		Auth: auth.Config{
			SessionSecret:      getEnv("SESSION_SECRET", "dev-secret-change-me"),
			GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
			GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
			CallbackURL:        getEnv("OAUTH_CALLBACK_URL", "http://localhost:8080/auth/google/callback"),
			SecureCookies:      getEnv("SECURE_COOKIES", "") == "true",
		},
		Checkout: checkout.Config{
			StoreName:      getEnv("STORE_NAME", "M&M Store"),
			StoreTag:       getEnv("STORE_TAG", "M&M"),
			WhatsAppNumber: getEnv("WHATSAPP_NUMBER", "50672829018"),
			CurrencySymbol: getEnv("CURRENCY_SYMBOL", "₡"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	cfg := loadConfig()

	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// Postgres: products, orders, profiles, outbox
	pg, err := repository.NewPostgres(&cfg.Postgres)
	if err != nil {
		log.Fatalf("Failed to connect to postgres: %v", err)
	}
	defer pg.Close()
	if err := pg.RunMigrations(&cfg.Postgres); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Mongo: cart documents
	mongoDB, err := repository.ConnectMongoDB(startupCtx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Fatalf("Failed to connect to mongo: %v", err)
	}
	if err := repository.EnsureCartIndexes(startupCtx, mongoDB); err != nil {
		log.Fatalf("Failed to create cart indexes: %v", err)
	}
	cartRepo := repository.NewMongoCartRepository(mongoDB)

	// Redis: cart cache
	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()
	cartCache := cache.NewRedisCache(redisClient)

	// Object storage: product images
	imageStore, err := storage.NewMinioStorage(cfg.Minio)
	if err != nil {
		log.Fatalf("Failed to create object storage client: %v", err)
	}
	if err := imageStore.EnsureBucket(startupCtx); err != nil {
		log.Fatalf("Failed to ensure image bucket: %v", err)
	}

	// Services
	cartService := cart.NewService(cartRepo, cartCache)
	checkoutService := checkout.NewService(pg, cartService, cfg.Checkout)
	adminService := admin.NewService(pg, pg, imageStore)
	sessions := auth.NewSessions(cfg.Auth)

	// Handlers
	productHandler := h.NewProductHandler(pg, cfg.RequestTimeout)
	cartHandler := h.NewCartHandler(cartService, pg, cfg.RequestTimeout)
	checkoutHandler := h.NewCheckoutHandler(checkoutService, cfg.RequestTimeout)
	ordersHandler := h.NewOrdersHandler(pg, cfg.RequestTimeout)
	adminHandler := h.NewAdminHandler(adminService, cfg.RequestTimeout)
	authHandler := h.NewAuthHandler(sessions, pg)

	// Setup router
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(h.RequestIDMiddleware)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))
	r.Use(h.CartSessionMiddleware)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Auth flow
	r.Route("/auth", func(r chi.Router) {
		r.Get("/{provider}", authHandler.Begin)
		r.Get("/{provider}/callback", authHandler.Callback)
		r.Get("/logout", authHandler.Logout)
		r.Get("/me", authHandler.Me)
	})

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", productHandler.List)
			r.Get("/{handle}", productHandler.Get)
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Post("/items", cartHandler.AddItem)
			r.Put("/items/{product_id}", cartHandler.UpdateQuantity)
			r.Delete("/items/{product_id}", cartHandler.RemoveItem)
			r.Post("/items/{product_id}/finalize-remove", cartHandler.FinalizeRemove)
			r.Post("/items/{product_id}/reset-animation", cartHandler.ResetAnimation)
			r.Post("/clear", cartHandler.ClearCart)
		})

		r.Group(func(r chi.Router) {
			r.Use(sessions.RequireUser)
			r.Post("/checkout", checkoutHandler.Confirm)
			r.Get("/orders", ordersHandler.ListOrders)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(sessions.RequireAdmin(pg))
			r.Post("/products", adminHandler.CreateProduct)
			r.Put("/products/{product_id}", adminHandler.UpdateProduct)
			r.Delete("/products/{product_id}", adminHandler.DeleteProduct)
			r.Get("/orders", adminHandler.ListOrders)
		})
	})

	// Outbox poller ships order events to Kafka until shutdown.
	pollerCtx, pollerCancel := context.WithCancel(context.Background())
	defer pollerCancel()
	poller := publisher.NewOutboxPoller(pg, cfg.KafkaBrokers...)
	go poller.Run(pollerCtx)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(r, "storefront"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Storefront starting on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}
	pollerCancel()

	log.Println("server exited")
}
