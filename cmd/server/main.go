package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/pflag"

	"github.com/BekhruzCo/soma-selecto/internal/adapter/assets"
	"github.com/BekhruzCo/soma-selecto/internal/adapter/httpapi"
	"github.com/BekhruzCo/soma-selecto/internal/adapter/natsstan"
	"github.com/BekhruzCo/soma-selecto/internal/adapter/repo"
	"github.com/BekhruzCo/soma-selecto/internal/config"
	"github.com/BekhruzCo/soma-selecto/internal/domain"
	"github.com/BekhruzCo/soma-selecto/internal/usecase"
)

func main() {
	configPath := pflag.String("config", "", "path to YAML config file")
	addr := pflag.String("addr", "", "listen address (overrides config)")
	pflag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if *addr != "" {
		cfg.HTTP.Addr = *addr
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var (
		productRepo domain.ProductRepository
		orderRepo   domain.OrderRepository
	)
	switch cfg.Storage.Driver {
	case "postgres":
		pool, err := pgxpool.New(ctx, cfg.Storage.DatabaseURL)
		if err != nil {
			log.Fatalf("db connect: %v", err)
		}
		defer pool.Close()
		if err := repo.EnsureSchema(ctx, pool); err != nil {
			log.Fatalf("init schema: %v", err)
		}
		productRepo = repo.NewPostgresProductRepo(pool)
		orderRepo = repo.NewPostgresOrderRepo(pool)
	case "json":
		if err := os.MkdirAll(cfg.Storage.DataDir, 0o755); err != nil {
			log.Fatalf("create data dir: %v", err)
		}
		products, err := repo.NewJSONProductRepo(cfg.Storage.DataDir)
		if err != nil {
			log.Fatalf("open products store: %v", err)
		}
		orders, err := repo.NewJSONOrderRepo(cfg.Storage.DataDir)
		if err != nil {
			log.Fatalf("open orders store: %v", err)
		}
		productRepo, orderRepo = products, orders
	default:
		log.Fatalf("unknown storage driver %q", cfg.Storage.Driver)
	}

	store, err := assets.NewFileStore(cfg.Uploads.Dir)
	if err != nil {
		log.Fatalf("init uploads: %v", err)
	}

	publisher := &natsstan.Publisher{
		ClusterID: cfg.NATS.ClusterID,
		URL:       cfg.NATS.URL,
		Subject:   cfg.NATS.Subject,
	}
	defer publisher.Close()

	locks := usecase.NewOrderLocker()
	lifecycle := domain.Lifecycle{Strict: cfg.Lifecycle.Strict}
	uc := httpapi.Usecases{
		ListProducts:  usecase.ListProducts{Repo: productRepo},
		GetProduct:    usecase.GetProduct{Repo: productRepo},
		CreateProduct: usecase.CreateProduct{Repo: productRepo, Assets: store},
		UpdateProduct: usecase.UpdateProduct{Repo: productRepo, Assets: store},
		DeleteProduct: usecase.DeleteProduct{Repo: productRepo, Assets: store},
		ListOrders:    usecase.ListOrders{Repo: orderRepo},
		GetOrder:      usecase.GetOrder{Repo: orderRepo},
		PlaceOrder:    usecase.PlaceOrder{Repo: orderRepo, Publisher: publisher},
		SetStatus:     usecase.SetOrderStatus{Repo: orderRepo, Lifecycle: lifecycle, Locks: locks},
		SetRating:     usecase.SetOrderRating{Repo: orderRepo, Locks: locks},
	}
	server := httpapi.NewServer(uc, cfg.Uploads.Dir)

	srv := &http.Server{Addr: cfg.HTTP.Addr, Handler: server.Router}
	go func() {
		log.Printf("http listening on %s (storage: %s, strict lifecycle: %v)",
			srv.Addr, cfg.Storage.Driver, cfg.Lifecycle.Strict)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	_ = srv.Shutdown(shutdownCtx)
}
