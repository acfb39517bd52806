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

	"github.com/Seba-07/bysimmed-production-console/internal/config"
	"github.com/Seba-07/bysimmed-production-console/internal/erp"
	"github.com/Seba-07/bysimmed-production-console/internal/httpx"
	kafkax "github.com/Seba-07/bysimmed-production-console/internal/kafka"
	"github.com/Seba-07/bysimmed-production-console/internal/production"
	"github.com/Seba-07/bysimmed-production-console/internal/redisx"
	"github.com/Seba-07/bysimmed-production-console/internal/timer"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producers, one per topic
	pTransitions := kafkax.NewProducer(cfg.KafkaBrokers, production.TopicTimerTransitions, 1024)
	pTransitions.Start(ctx)
	pStatuses := kafkax.NewProducer(cfg.KafkaBrokers, production.TopicOrderStatus, 1024)
	pStatuses.Start(ctx)

	// Board & service
	board := timer.NewBoard(time.Now)
	svc := &production.Service{
		API:         erp.NewClient(cfg.ERPBaseURL, nil),
		Board:       board,
		Transitions: pTransitions,
		Statuses:    pStatuses,
		Redis:       rdb,
		ServiceName: cfg.ServiceName,
	}

	// Elapsed-time recompute loop; stops with the root context.
	go func() {
		tick := time.NewTicker(cfg.TickInterval)
		defer tick.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-tick.C:
				board.Tick()
			}
		}
	}()

	// Router & handler
	router := httpx.NewRouter()
	ph := &httpx.ProductionHandler{Service: svc}
	ph.Register(router)

	// HTTP server
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	// graceful shutdown
	go func() {
		log.Printf("HTTP listening at %s (ERP upstream %s)", cfg.HTTPAddr, cfg.ERPBaseURL)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	// wait signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	pTransitions.Close()
	pStatuses.Close()
	cancel() // stops the ticker and producer loops
	pTransitions.WaitClosed()
	pStatuses.WaitClosed()
}
