package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/pflag"

	"github.com/BekhruzCo/soma-selecto/internal/adapter/assets"
	"github.com/BekhruzCo/soma-selecto/internal/adapter/natsstan"
	"github.com/BekhruzCo/soma-selecto/internal/adapter/repo"
	"github.com/BekhruzCo/soma-selecto/internal/adapter/telegram"
	"github.com/BekhruzCo/soma-selecto/internal/config"
	"github.com/BekhruzCo/soma-selecto/internal/domain"
	"github.com/BekhruzCo/soma-selecto/internal/usecase"
)

func main() {
	configPath := pflag.String("config", "", "path to YAML config file")
	pflag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if cfg.Bot.Token == "" {
		log.Fatal("BOT_TOKEN is required")
	}
	if cfg.Bot.ChannelID == 0 {
		log.Fatal("CHANNEL_ID is required")
	}
	if len(cfg.Bot.Operators) == 0 {
		log.Print("warning: OPERATOR_IDS is empty, all order actions will be rejected")
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

	tg, err := tgbotapi.NewBotAPI(cfg.Bot.Token)
	if err != nil {
		log.Fatalf("telegram connect: %v", err)
	}
	log.Printf("authorized on account %s", tg.Self.UserName)

	uc := telegram.Usecases{
		ListOrders: usecase.ListOrders{Repo: orderRepo},
		GetOrder:   usecase.GetOrder{Repo: orderRepo},
		SetStatus: usecase.SetOrderStatus{
			Repo:      orderRepo,
			Lifecycle: domain.Lifecycle{Strict: cfg.Lifecycle.Strict},
			Locks:     usecase.NewOrderLocker(),
		},
		Stats:         usecase.OrderStats{Repo: orderRepo},
		ListProducts:  usecase.ListProducts{Repo: productRepo},
		CreateProduct: usecase.CreateProduct{Repo: productRepo, Assets: store},
	}
	bot := telegram.NewBot(tg, telegram.Config{
		ChannelID:   cfg.Bot.ChannelID,
		Operators:   cfg.Bot.Operators,
		DeliveryFee: cfg.Delivery.Fee,
	}, uc)

	sub := &natsstan.Subscriber{
		ClusterID: cfg.NATS.ClusterID,
		URL:       cfg.NATS.URL,
		Subject:   cfg.NATS.Subject,
		Durable:   cfg.NATS.Durable,
	}
	go func() {
		if err := sub.Subscribe(ctx, bot.HandleNewOrder); err != nil {
			// бот остаётся полезным и без шины: команды и кнопки работают
			log.Printf("stan subscribe: %v", err)
		}
	}()

	bot.Run(ctx)
}
