package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"bookshop/internal/catalog"
	"bookshop/internal/config"
	"bookshop/internal/customers"
	"bookshop/internal/httpx"
	kafkax "bookshop/internal/kafka"
	"bookshop/internal/orders"
	orderpg "bookshop/internal/orders/postgres"
	"bookshop/internal/postgres"
	"bookshop/internal/redisx"
	"bookshop/internal/reports"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	pool, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()
	if err := postgres.Migrate(ctx, pool); err != nil {
		log.Fatal("db migrate", zap.Error(err))
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producers, one per topic
	pCreated := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderCreated, 1024, log)
	pCreated.Start(ctx)
	pDeleted := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderDeleted, 1024, log)
	pDeleted.Start(ctx)
	pPayment := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicPaymentRecorded, 1024, log)
	pPayment.Start(ctx)

	// Core service + handlers
	svc := orders.NewService(orderpg.New(pool), log)
	router := httpx.NewRouter()

	oh := &httpx.OrdersHandler{
		Service:  svc,
		Redis:    rdb,
		Name:     cfg.ServiceName,
		Created:  pCreated,
		Deleted:  pDeleted,
		Payments: pPayment,
	}
	oh.Register(router)
	(&httpx.CatalogHandler{Books: &catalog.Repo{DB: pool}, Log: log}).Register(router)
	(&httpx.CustomersHandler{Repo: &customers.Repo{DB: pool}}).Register(router)
	(&httpx.ReportsHandler{Reader: &reports.Reader{DB: pool}}).Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.Info("http listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("listen", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)

	for _, p := range []*kafkax.Producer{pCreated, pDeleted, pPayment} {
		p.Close()
	}
	cancel()
	for _, p := range []*kafkax.Producer{pCreated, pDeleted, pPayment} {
		p.WaitClosed()
	}
}
