package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"farmmarket/internal/config"
	"farmmarket/internal/events"
	"farmmarket/internal/handler"
	"farmmarket/internal/infra/db"
	infraRepo "farmmarket/internal/infra/repository"
	"farmmarket/internal/infra/sqlite"
	repo "farmmarket/internal/repository"
	"farmmarket/internal/server"
	"farmmarket/internal/usecase"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// usecaseに渡すストア一式
type store struct {
	tx       repo.TransactionManager
	products repo.ProductRepository
	bids     repo.BidRepository
	audit    repo.AuditLogRepository
	close    func() error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	//DB接続
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.close() }()

	//イベントの送り先
	publisher, closePublishers, err := newPublisher(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closePublishers()

	//Usecase生成
	biddingUC := usecase.NewBiddingUsecase(st.tx, st.products, st.bids, publisher, logger, usecase.BiddingOptions{
		StrictReopen: cfg.StrictReopen,
		IDs:          usecase.UUIDGenerator{},
		Clock:        usecase.SystemClock{},
	})
	auditUC := usecase.NewAuditLogUsecase(st.audit)

	//Handler生成
	bidH := handler.NewBidHandler(biddingUC)
	auditH := handler.NewAuditLogHandler(auditUC)

	//Server起動
	e := server.New(cfg, logger, bidH, auditH)
	return server.Start(ctx, e, cfg.Addr(), logger)
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	if cfg.IsProd() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func openStore(cfg config.Config) (store, error) {
	switch cfg.StoreDriver {
	case config.StoreDriverSQLite:
		sqlDB, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return store{}, fmt.Errorf("open sqlite: %w", err)
		}
		return store{
			tx:       sqlite.NewTxManager(sqlDB),
			products: sqlite.NewProductRepo(sqlDB),
			bids:     sqlite.NewBidRepo(sqlDB),
			audit:    sqlite.NewAuditLogRepo(sqlDB),
			close:    sqlDB.Close,
		}, nil

	default:
		gormDB, err := db.Connect(cfg)
		if err != nil {
			return store{}, err
		}
		sqlDB, err := gormDB.DB()
		if err != nil {
			return store{}, err
		}
		if cfg.AutoMigrate {
			if err := db.Migrate(gormDB); err != nil {
				_ = sqlDB.Close()
				return store{}, fmt.Errorf("migrate: %w", err)
			}
		}
		return store{
			tx:       infraRepo.NewTxManagerGorm(gormDB),
			products: infraRepo.NewProductGormRepository(gormDB),
			bids:     infraRepo.NewBidGormRepository(gormDB),
			audit:    infraRepo.NewAuditLogGormRepository(gormDB),
			close:    sqlDB.Close,
		}, nil
	}
}

// NATS_URL / REDIS_ADDR があればそれぞれに送る
func newPublisher(ctx context.Context, cfg config.Config, logger *zap.Logger) (events.Publisher, func(), error) {
	var pubs events.MultiPublisher
	var closers []func()
	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}
	// 途中で失敗したら開いた接続をここで閉じる
	fail := func(err error) (events.Publisher, func(), error) {
		closeAll()
		return nil, func() {}, err
	}

	if cfg.NatsURL != "" {
		nc, err := nats.Connect(cfg.NatsURL, nats.Name("farmmarket-bidding"))
		if err != nil {
			return fail(fmt.Errorf("connect nats: %w", err))
		}
		closers = append(closers, nc.Close)

		js, err := jetstream.New(nc)
		if err != nil {
			return fail(fmt.Errorf("jetstream: %w", err))
		}
		if err := events.EnsureStream(ctx, js); err != nil {
			return fail(err)
		}
		pubs = append(pubs, events.NewNATSPublisher(js, logger))
		logger.Info("nats publisher ready", zap.String("stream", events.StreamName))
	}

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		closers = append(closers, func() { _ = rdb.Close() })

		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			return fail(fmt.Errorf("ping redis: %w", err))
		}
		pubs = append(pubs, events.NewRedisPublisher(rdb))
		logger.Info("redis publisher ready", zap.String("addr", cfg.RedisAddr))
	}

	if len(pubs) == 0 {
		return events.NopPublisher{}, closeAll, nil
	}
	return pubs, closeAll, nil
}
