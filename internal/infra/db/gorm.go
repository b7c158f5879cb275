package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"farmmarket/internal/config"
	"farmmarket/internal/domain/model"

	_ "github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect はpgxのコネクションプールを作ってから *gorm.DB を返す。
func Connect(cfg config.Config) (*gorm.DB, error) {
	sqlDB, err := sql.Open("pgx", cfg.PostgresDSN())
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)
	sqlDB.SetConnMaxIdleTime(time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return Open(sqlDB, cfg.IsProd())
}

// Open は既存の *sql.DB をGORMで包む（sqlmockのテストでも使う）
func Open(sqlDB *sql.DB, quiet bool) (*gorm.DB, error) {
	level := logger.Warn
	if quiet {
		level = logger.Error
	}

	return gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(level),
	})
}

// テーブル作成（products / bids / audit_logs）
func Migrate(gormDB *gorm.DB) error {
	return gormDB.AutoMigrate(
		&model.Product{},
		&model.Bid{},
		&model.AuditLog{},
	)
}
