/**
 * @description
 * This is the main entry point for the transactor service. It is responsible
 * for initializing all components of the service, including configuration,
 * database connection, the gateway transactor registry, message broker,
 * repositories, the core application service, and the HTTP server. It wires
 * everything together and starts the service.
 *
 * @dependencies
 * - log, net/http: Standard Go libraries for logging and HTTP server functionality.
 * - github.com/jackc/pgx/v5: PostgreSQL driver.
 * - github.com/joho/godotenv: To load .env files for local development.
 * - internal/api, internal/app, internal/config, internal/store: Internal packages for the service.
 * - pkg/transactor (+ nmi, generic): The payment processing core.
 * - pkg/rabbitmq: Client for RabbitMQ.
 */

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	_ "go.uber.org/automaxprocs"

	"github.com/pocomos/transactor/internal/api"
	"github.com/pocomos/transactor/internal/app"
	"github.com/pocomos/transactor/internal/config"
	"github.com/pocomos/transactor/internal/store"
	"github.com/pocomos/transactor/pkg/rabbitmq"
	"github.com/pocomos/transactor/pkg/transactor"
	"github.com/pocomos/transactor/pkg/transactor/generic"
	"github.com/pocomos/transactor/pkg/transactor/nmi"
)

func main() {
	// Load a local .env file if present; environment variables win.
	if err := godotenv.Load(); err != nil {
		log.Println("level=info component=bootstrap msg=\"no .env file found; using environment\"")
	}

	// Load application configuration from environment variables.
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"config load failed\" err=%v", err)
	}
	if strings.TrimSpace(cfg.MerchantJWTSecret) == "" {
		log.Fatalf("level=fatal component=bootstrap msg=\"merchant jwt secret must be configured\" env=MERCHANT_JWT_SECRET")
	}

	log.Printf("level=info component=bootstrap msg=\"starting transactor service\" port=%s", cfg.ServerPort)

	// Establish a connection pool to the PostgreSQL database.
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"database url parse failed\" err=%v", err)
	}
	poolConfig.MaxConns = 100
	poolConfig.MinConns = 20
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute

	// Disable prepared statement caching to prevent conflicts
	poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	dbpool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"database connection failed\" err=%v", err)
	}
	defer dbpool.Close()
	log.Println("level=info component=bootstrap msg=\"database connected\"")

	// Initialize the RabbitMQ producer to publish payment events. This
	// service only publishes, so a producer is enough; a missing broker
	// degrades to the no-op fallback.
	var producer rabbitmq.Publisher
	eventProducer, err := rabbitmq.NewEventProducer(cfg.RabbitMQURL)
	if err != nil {
		log.Printf("level=warn component=bootstrap msg=\"rabbitmq producer unavailable; using fallback\" err=%v", err)
		producer = &rabbitmq.EventProducerFallback{}
	} else {
		defer eventProducer.Close()
		producer = eventProducer
		log.Println("level=info component=bootstrap msg=\"rabbitmq producer connected\"")
	}

	// Build the gateway transactor registry. The NMI gateways share one
	// HTTP client; it is safe for concurrent use.
	httpClient := &http.Client{Timeout: 30 * time.Second}
	registry := map[transactor.NetworkType]*transactor.Transactor{
		transactor.NetworkCard:  transactor.New(nmi.NewCardGateway(httpClient)),
		transactor.NetworkACH:   transactor.New(nmi.NewACHGateway(httpClient)),
		transactor.NetworkToken: transactor.New(nmi.NewTokenGateway(httpClient)),
	}
	manual := transactor.New(generic.New())
	registry[transactor.NetworkCash] = manual
	registry[transactor.NetworkCheck] = manual

	// Initialize the data access layer (repository).
	repository := store.NewPostgresRepository(dbpool)

	// Initialize the core application service with its dependencies.
	chargeService := app.NewService(
		repository,
		registry,
		app.GatewayCredentials{Username: cfg.GatewayUsername, Password: cfg.GatewayPassword},
		producer,
	)
	if strings.TrimSpace(cfg.GatewayPostURL) != "" {
		chargeService.SetGatewayPostURL(cfg.GatewayPostURL)
	}

	// Optional redis-backed idempotency for the charge endpoint.
	if strings.TrimSpace(cfg.RedisURL) == "" {
		log.Println("level=warn component=bootstrap msg=\"redis url missing; charge idempotency disabled\" env=REDIS_URL")
	} else {
		redisOptions, parseErr := redis.ParseURL(cfg.RedisURL)
		if parseErr != nil {
			log.Printf("level=warn component=bootstrap msg=\"redis url parse failed; charge idempotency disabled\" err=%v", parseErr)
		} else {
			redisClient := redis.NewClient(redisOptions)
			pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancelPing()
			if pingErr := redisClient.Ping(pingCtx).Err(); pingErr != nil {
				log.Printf("level=warn component=bootstrap msg=\"redis ping failed; charge idempotency disabled\" err=%v", pingErr)
				redisClient.Close()
			} else {
				defer redisClient.Close()
				chargeService.SetIdempotencyGuard(
					app.NewRedisIdempotencyGuard(redisClient, cfg.RedisIdempotencyPfx),
					time.Duration(cfg.IdempotencyTTLMinutes)*time.Minute,
				)
				log.Println("level=info component=bootstrap msg=\"redis connected\"")
			}
		}
	}

	// Initialize the API handlers and router.
	chargeHandlers := api.NewChargeHandlers(chargeService)
	router := api.Routes(chargeHandlers, cfg.MerchantJWTSecret)

	serverAddr := fmt.Sprintf(":%s", cfg.ServerPort)
	log.Printf("level=info component=http msg=\"server listening\" addr=%s", serverAddr)

	server := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("level=fatal component=http msg=\"server stopped unexpectedly\" err=%v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Println("level=info component=http msg=\"shutdown started\"")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("level=warn component=http msg=\"graceful shutdown failed\" err=%v", err)
	}
	log.Println("level=info component=http msg=\"shutdown complete\"")
}
