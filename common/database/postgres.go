package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jvlax-y/cekApar/common/config"

	_ "github.com/lib/pq"
)

const (
	defaultMaxIdle     = 5
	connMaxLifetime    = 30 * time.Minute
	defaultPingTimeout = 5 * time.Second
)

// Open 打开 PostgreSQL 连接池并在 ctx 内完成连通性检查
func Open(ctx context.Context, cfg *config.DatabaseConfig) (*sql.DB, error) {
	return open(ctx, "postgres", cfg.GetDSN(), cfg)
}

func open(ctx context.Context, driver, dsn string, cfg *config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if cfg.MaxConns > 0 {
		db.SetMaxOpenConns(cfg.MaxConns)
	}
	maxIdle := cfg.MaxIdle
	if maxIdle <= 0 {
		maxIdle = defaultMaxIdle
	}
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(connMaxLifetime)

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultPingTimeout)
		defer cancel()
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database %s@%s:%d: %w", cfg.Database, cfg.Host, cfg.Port, err)
	}

	return db, nil
}

// Close 关闭连接池；nil 安全
func Close(db *sql.DB) error {
	if db == nil {
		return nil
	}
	return db.Close()
}
