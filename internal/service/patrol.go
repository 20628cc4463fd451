package service

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	mqttcommon "github.com/jvlax-y/cekApar/common/mqtt"
	rediscommon "github.com/jvlax-y/cekApar/common/redis"
	"github.com/jvlax-y/cekApar/internal/config"
	"github.com/jvlax-y/cekApar/internal/consumer"
	httpapi "github.com/jvlax-y/cekApar/internal/http"
	"github.com/jvlax-y/cekApar/internal/inspection"
)

// PatrolService 巡逻服务：HTTP API + 可选的通知消费者与扫码消费者
type PatrolService struct {
	config *config.Config
	logger *zap.Logger

	engine      *Engine
	redisClient *redis.Client
	mqttClient  *mqttcommon.Client

	notifications *consumer.NotificationConsumer
	scans         *consumer.ScanConsumer
	server        *Server
}

// NewPatrolService 创建巡逻服务
func NewPatrolService(cfg *config.Config, logger *zap.Logger) (*PatrolService, error) {
	s := &PatrolService{config: cfg, logger: logger}

	var notifier inspection.Notifier
	if cfg.Patrol.NotifyEnabled {
		client, err := rediscommon.Connect(context.Background(), &cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		s.redisClient = client
		notifier = inspection.NewStreamNotifier(s.redisClient, cfg.Patrol.EventStream)
	}

	if cfg.Patrol.NotifyEnabled || cfg.Patrol.ScanEnabled {
		mqttClient, err := mqttcommon.NewClient(&cfg.MQTT, logger)
		if err != nil {
			s.closeClients()
			return nil, err
		}
		s.mqttClient = mqttClient
	}

	engine, err := NewEngine(context.Background(), cfg, notifier, logger)
	if err != nil {
		s.closeClients()
		return nil, err
	}
	s.engine = engine

	if cfg.Patrol.NotifyEnabled {
		s.notifications = consumer.NewNotificationConsumer(
			s.redisClient,
			engine.Projector,
			s.mqttClient,
			logger,
			consumer.NotificationConsumerConfig{
				Stream:       cfg.Patrol.EventStream,
				GroupName:    cfg.Patrol.ConsumerGroup,
				ConsumerName: cfg.Patrol.ConsumerName,
				TopicPrefix:  cfg.Patrol.TopicPrefix,
				BatchSize:    int64(cfg.Patrol.BatchSize),
				QoS:          cfg.MQTT.QoS,
			},
		)
	}
	if cfg.Patrol.ScanEnabled {
		s.scans = consumer.NewScanConsumer(s.mqttClient, engine.Recorder, logger, cfg.Patrol.TopicPrefix, cfg.MQTT.QoS)
	}

	s.server = NewServer(cfg.HTTP.Addr, s.Handler(), logger)
	return s, nil
}

// Handler HTTP 路由
func (s *PatrolService) Handler() http.Handler {
	h := httpapi.NewPatrolHandler(s.engine.Calculator, s.engine.Projector, s.engine.Recorder, s.logger)
	return httpapi.NewRouter(h, s.logger)
}

// Start 阻塞运行，直到 ctx 取消或任一组件失败
func (s *PatrolService) Start(ctx context.Context) error {
	s.logger.Info("Starting patrol service",
		zap.Int("cutover_hour", s.config.Patrol.CutoverHour),
		zap.Int("utc_offset_minutes", s.config.Patrol.UTCOffsetMinutes),
		zap.Bool("notify_enabled", s.config.Patrol.NotifyEnabled),
		zap.Bool("scan_enabled", s.config.Patrol.ScanEnabled),
	)

	if s.scans != nil {
		if err := s.scans.Start(); err != nil {
			return fmt.Errorf("failed to start scan consumer: %w", err)
		}
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(s.server.Start)
	if s.notifications != nil {
		eg.Go(func() error { return s.notifications.Start(egCtx) })
	}
	eg.Go(func() error {
		<-egCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.server.Stop(shutdownCtx)
	})
	return eg.Wait()
}

// Stop 释放连接；HTTP 服务随 Start 的 ctx 取消而关闭
func (s *PatrolService) Stop(ctx context.Context) error {
	if s.scans != nil {
		if err := s.scans.Stop(); err != nil {
			s.logger.Warn("Failed to unsubscribe scans", zap.Error(err))
		}
	}
	s.closeClients()
	if s.engine != nil {
		return s.engine.Close()
	}
	return nil
}

func (s *PatrolService) closeClients() {
	if s.mqttClient != nil {
		s.mqttClient.Disconnect()
	}
	if s.redisClient != nil {
		if err := rediscommon.Close(s.redisClient); err != nil {
			s.logger.Warn("Failed to close redis client", zap.Error(err))
		}
	}
}
