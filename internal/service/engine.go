package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jvlax-y/cekApar/common/database"
	"github.com/jvlax-y/cekApar/internal/aggregator"
	"github.com/jvlax-y/cekApar/internal/config"
	"github.com/jvlax-y/cekApar/internal/identity"
	"github.com/jvlax-y/cekApar/internal/inspection"
	"github.com/jvlax-y/cekApar/internal/opday"
	"github.com/jvlax-y/cekApar/internal/projector"
	"github.com/jvlax-y/cekApar/internal/repository"
	"github.com/jvlax-y/cekApar/internal/resolver"
)

// Engine 投影与巡检记录组件，HTTP 服务与命令行共用
type Engine struct {
	Calculator *opday.Calculator
	Projector  *projector.Projector
	Recorder   *inspection.Recorder

	db     *sql.DB
	logger *zap.Logger
}

// NewEngine 按配置选择存储：DB_ENABLED=false 时使用内存存储
// IDENTITY_BASE_URL 非空时保安资料改由身份服务提供
func NewEngine(ctx context.Context, cfg *config.Config, notifier inspection.Notifier, logger *zap.Logger) (*Engine, error) {
	calc, err := opday.NewCalculator(cfg.Patrol.CutoverHour, cfg.Patrol.UTCOffsetMinutes)
	if err != nil {
		return nil, err
	}

	var (
		db     *sql.DB
		store  repository.Store
		writer repository.EventWriter
	)
	if cfg.DatabaseEnabled {
		db, err = database.Open(ctx, &cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		pg := repository.NewPostgresStore(db, logger)
		store, writer = pg, pg
	} else {
		logger.Warn("Database disabled, using in-memory store")
		mem := repository.NewMemoryStore()
		store, writer = mem, mem
	}

	var profiles repository.ProfileFinder = store
	if cfg.Identity.BaseURL != "" {
		profiles = identity.NewClient(cfg.Identity.BaseURL, time.Duration(cfg.Identity.TimeoutSeconds)*time.Second, logger)
		logger.Info("Guard profiles served by identity service", zap.String("base_url", cfg.Identity.BaseURL))
	}

	proj := projector.NewProjector(
		calc,
		resolver.NewAssignmentResolver(store, logger),
		aggregator.NewEventAggregator(store, logger),
		store,
		profiles,
		logger,
	)

	return &Engine{
		Calculator: calc,
		Projector:  proj,
		Recorder:   inspection.NewRecorder(writer, notifier, logger),
		db:         db,
		logger:     logger,
	}, nil
}

// DB 数据库连接；内存模式下为 nil
func (e *Engine) DB() *sql.DB {
	return e.db
}

func (e *Engine) Close() error {
	if e.db == nil {
		return nil
	}
	return database.Close(e.db)
}
