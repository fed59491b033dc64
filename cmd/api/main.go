package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/soultouch-za/storefront/internal/catalog"
	"github.com/soultouch-za/storefront/internal/config"
	"github.com/soultouch-za/storefront/internal/httpx"
	"github.com/soultouch-za/storefront/internal/inventory"
	"github.com/soultouch-za/storefront/internal/kafka"
	"github.com/soultouch-za/storefront/internal/lifecycle"
	"github.com/soultouch-za/storefront/internal/notify"
	"github.com/soultouch-za/storefront/internal/orders"
	"github.com/soultouch-za/storefront/internal/payments"
	"github.com/soultouch-za/storefront/internal/postgres"
	"github.com/soultouch-za/storefront/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer db.Close()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// The producer outlives ctx: it is closed only after the HTTP server has
	// drained, so in-flight handlers can still publish.
	producer := kafka.NewProducer(cfg.KafkaBrokers, orders.TopicLifecycle, 1024)
	producer.Start(context.Background())

	var gateway payments.Gateway
	var verifier httpx.WebhookVerifier
	if cfg.StripeSecretKey != "" {
		sg := payments.NewStripe(cfg.StripeSecretKey, cfg.StripeWebhookSecret)
		gateway, verifier = sg, sg
	} else {
		log.Printf("STRIPE_SECRET_KEY not set, checkout disabled")
	}

	var notifier notify.Notifier = notify.Nop{}
	if cfg.SMTPUser != "" {
		n, err := notify.NewSMTP(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.EmailFrom)
		if err != nil {
			log.Fatalf("smtp: %v", err)
		}
		notifier = n
	} else {
		log.Printf("SMTP_USER not set, emails disabled")
	}

	ledger := &inventory.PGLedger{DB: db, Policy: cfg.StockPolicy}
	orderRepo := &orders.Repo{DB: db}
	cache := &lifecycle.RedisCache{RDB: rdb, Service: cfg.ServiceName}

	ctrl := &lifecycle.Controller{
		Ledger:           ledger,
		Orders:           orderRepo,
		Gateway:          gateway,
		Notifier:         notifier,
		Stream:           producer,
		Cache:            cache,
		Service:          cfg.ServiceName,
		DeliveryStandard: cfg.DeliveryStandard,
		DeliveryExpress:  cfg.DeliveryExpress,
	}

	srv := &httpx.Server{
		Controller:        ctrl,
		Catalog:           &catalog.Repo{DB: db},
		Orders:            orderRepo,
		Ledger:            ledger,
		Cache:             cache,
		Verifier:          verifier,
		RDB:               rdb,
		AdminUsername:     cfg.AdminUsername,
		AdminPasswordHash: cfg.AdminPasswordHash,
	}

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("%s listening on %s", cfg.ServiceName, cfg.HTTPAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown: %v", err)
	}
	producer.Close()
	producer.WaitClosed()
}
