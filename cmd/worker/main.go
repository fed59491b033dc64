package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/soultouch-za/storefront/internal/config"
	"github.com/soultouch-za/storefront/internal/inventory"
	"github.com/soultouch-za/storefront/internal/kafka"
	"github.com/soultouch-za/storefront/internal/lifecycle"
	"github.com/soultouch-za/storefront/internal/notify"
	"github.com/soultouch-za/storefront/internal/orders"
	"github.com/soultouch-za/storefront/internal/postgres"
	"github.com/soultouch-za/storefront/internal/redisx"
)

const consumerGroup = "storefront-worker"

// The worker tails the order lifecycle stream into the order_events audit
// table and keeps the tracking status cache warm. It also runs the sweep that
// releases reservations whose payment never arrived.
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

	repo := &orders.Repo{DB: db}
	cache := &lifecycle.RedisCache{RDB: rdb, Service: consumerGroup}

	sweeper := &lifecycle.Controller{
		Ledger:   &inventory.PGLedger{DB: db, Policy: cfg.StockPolicy},
		Orders:   repo,
		Notifier: notify.Nop{},
		Cache:    cache,
		Service:  consumerGroup,
	}
	go runSweeper(ctx, sweeper, cfg.ReservationTTL, cfg.SweepInterval)

	h := &auditHandler{repo: repo, cache: cache}
	c := kafka.NewConsumer(cfg.KafkaBrokers, consumerGroup, orders.TopicLifecycle, 4)
	log.Printf("worker consuming %s as %s", orders.TopicLifecycle, consumerGroup)
	if err := c.Start(ctx, h.handle); err != nil {
		log.Fatalf("consumer: %v", err)
	}
}

func runSweeper(ctx context.Context, ctrl *lifecycle.Controller, ttl, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := ctrl.ReleaseExpired(ctx, time.Now().UTC().Add(-ttl))
			if err != nil {
				log.Printf("sweep: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("sweep released %d expired reservations", n)
			}
		}
	}
}

type auditHandler struct {
	repo  *orders.Repo
	cache lifecycle.Cache
}

func (h *auditHandler) handle(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		// Poison message; log it and move on rather than wedge the partition.
		log.Printf("bad envelope at %s/%d@%d: %v", m.Topic, m.Partition, m.Offset, err)
		return nil
	}

	if seen, err := h.cache.SeenEvent(ctx, env.EventID); err == nil && seen {
		return nil
	}

	if err := h.repo.RecordEvent(ctx, env); err != nil {
		return err
	}

	switch env.EventType {
	case orders.EventPaymentSucceeded:
		if err := h.cache.SetStatus(ctx, env.CorrelationID, orders.StatusPaymentConfirmed, orders.PaymentSucceeded); err != nil {
			log.Printf("status cache order=%s: %v", env.CorrelationID, err)
		}
	case orders.EventPaymentFailed, orders.EventReservationExpired:
		if err := h.cache.SetStatus(ctx, env.CorrelationID, orders.StatusPlaced, orders.PaymentFailed); err != nil {
			log.Printf("status cache order=%s: %v", env.CorrelationID, err)
		}
	case orders.EventOrderStatusChanged:
		p, err := kafka.UnwrapPayload[orders.OrderStatusChangedPayload](env.Payload)
		if err != nil {
			log.Printf("event %s: %v", env.EventID, err)
			break
		}
		o, _, err := h.repo.GetOrder(ctx, p.OrderID)
		if err != nil {
			log.Printf("event %s load order: %v", env.EventID, err)
			break
		}
		if err := h.cache.SetStatus(ctx, p.OrderID, p.To, o.PaymentStatus); err != nil {
			log.Printf("status cache order=%s: %v", p.OrderID, err)
		}
	}

	if err := h.cache.MarkEvent(ctx, env.EventID); err != nil {
		log.Printf("dedup mark event=%s: %v", env.EventID, err)
	}
	return nil
}
