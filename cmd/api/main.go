package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"storefront/internal/agents"
	"storefront/internal/cart"
	"storefront/internal/catalog"
	"storefront/internal/config"
	"storefront/internal/events"
	"storefront/internal/httpx"
	"storefront/internal/identity"
	kafkax "storefront/internal/kafka"
	"storefront/internal/llm"
	"storefront/internal/orders"
	"storefront/internal/payments"
	"storefront/internal/postgres"
	"storefront/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producers, one per order topic
	placed := kafkax.NewProducer(cfg.KafkaBrokers, events.TopicOrderPlaced, 1024)
	placed.Start(ctx)
	statusChanged := kafkax.NewProducer(cfg.KafkaBrokers, events.TopicOrderStatusChanged, 1024)
	statusChanged.Start(ctx)
	cancelled := kafkax.NewProducer(cfg.KafkaBrokers, events.TopicOrderCancelled, 1024)
	cancelled.Start(ctx)

	// Services
	authSvc := &identity.Service{
		Store:  &identity.Repo{DB: db},
		Secret: []byte(cfg.JWTSecret),
		Expiry: cfg.JWTExpiry,
	}
	cartRepo := &cart.Repo{DB: db}
	orderSvc := &orders.Service{
		Store:   &orders.PgStore{DB: db},
		Cart:    cartRepo,
		Gateway: payments.NewStripeGateway(cfg.StripeSecretKey),
	}
	agentSvc := agents.NewService(llm.NewOpenAIClient(cfg.OpenAIAPIKey))

	router := httpx.New(httpx.Deps{
		Auth:              authSvc,
		Products:          &catalog.Repo{DB: db},
		Cart:              cartRepo,
		Orders:            orderSvc,
		OrderStore:        orderSvc.Store,
		Agents:            agentSvc,
		Redis:             rdb,
		PlacedProducer:    placed,
		StatusProducer:    statusChanged,
		CancelledProducer: cancelled,
		ServiceName:       cfg.ServiceName,
	})

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.Printf("HTTP listening at %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)

	for _, p := range []*kafkax.Producer{placed, statusChanged, cancelled} {
		p.Close()
	}
	cancel()
	for _, p := range []*kafkax.Producer{placed, statusChanged, cancelled} {
		p.WaitClosed()
	}
}
