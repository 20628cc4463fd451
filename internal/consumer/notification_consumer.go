package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	rediscommon "github.com/jvlax-y/cekApar/common/redis"
	"github.com/jvlax-y/cekApar/internal/inspection"
	"github.com/jvlax-y/cekApar/internal/metrics"
	"github.com/jvlax-y/cekApar/internal/projector"
)

// BoardProjector 重新计算保安看板
type BoardProjector interface {
	ProjectGuardBoard(ctx context.Context, guardID string, ref time.Time) (*projector.GuardBoard, error)
}

// Publisher MQTT 发布（common/mqtt.Client 满足该接口）
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
}

// BoardUpdate 推送给保安终端的看板摘要
type BoardUpdate struct {
	GuardID     string          `json:"guard_id"`
	DayID       string          `json:"day_id"`
	IsScheduled bool            `json:"is_scheduled"`
	Summary     metrics.Summary `json:"summary"`
	EventID     string          `json:"event_id"`
	UpdatedAt   int64           `json:"updated_at"`
}

// BoardTopic 看板推送主题
func BoardTopic(prefix, guardID string) string {
	return prefix + "/board/" + guardID
}

// NotificationConsumer 消费 inspection.recorded 通知，重新投影并推送看板摘要
// 投影结果不缓存，每条通知都重新计算
type NotificationConsumer struct {
	redisClient  *redis.Client
	projector    BoardProjector
	publisher    Publisher
	logger       *zap.Logger
	stream       string
	groupName    string
	consumerName string
	topicPrefix  string
	batchSize    int64
	block        time.Duration
	qos          byte
}

// NotificationConsumerConfig 消费者参数
type NotificationConsumerConfig struct {
	Stream       string
	GroupName    string
	ConsumerName string
	TopicPrefix  string
	BatchSize    int64
	Block        time.Duration
	QoS          byte
}

// NewNotificationConsumer 创建通知消费者
func NewNotificationConsumer(
	redisClient *redis.Client,
	proj BoardProjector,
	publisher Publisher,
	logger *zap.Logger,
	cfg NotificationConsumerConfig,
) *NotificationConsumer {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}
	if cfg.Block <= 0 {
		cfg.Block = 2 * time.Second
	}
	return &NotificationConsumer{
		redisClient:  redisClient,
		projector:    proj,
		publisher:    publisher,
		logger:       logger,
		stream:       cfg.Stream,
		groupName:    cfg.GroupName,
		consumerName: cfg.ConsumerName,
		topicPrefix:  cfg.TopicPrefix,
		batchSize:    cfg.BatchSize,
		block:        cfg.Block,
		qos:          cfg.QoS,
	}
}

// Start 阻塞消费，直到 ctx 取消
func (c *NotificationConsumer) Start(ctx context.Context) error {
	if err := rediscommon.CreateConsumerGroup(ctx, c.redisClient, c.stream, c.groupName); err != nil {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	c.logger.Info("Notification consumer started",
		zap.String("stream", c.stream),
		zap.String("consumer_group", c.groupName),
		zap.String("consumer_name", c.consumerName),
	)

	if err := c.reclaimPending(ctx); err != nil && ctx.Err() == nil {
		c.logger.Warn("Failed to reclaim pending notifications", zap.Error(err))
	}

	backoff := time.Second
	maxBackoff := 30 * time.Second

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if err := c.consumeOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Error("Failed to consume notifications",
				zap.Error(err),
				zap.Duration("backoff", backoff),
			)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(backoff):
				backoff *= 2
				if backoff > maxBackoff {
					backoff = maxBackoff
				}
			}
			continue
		}
		backoff = time.Second
	}
}

// reclaimPending 重新处理本消费者上次运行遗留的未确认消息
// 每批之后从最后一条 ID 继续，仍然失败的消息留待下次启动
func (c *NotificationConsumer) reclaimPending(ctx context.Context) error {
	afterID := "0"
	for {
		messages, err := rediscommon.ReadPendingFromStream(ctx, c.redisClient, c.stream, c.groupName, c.consumerName, afterID, c.batchSize)
		if err != nil {
			return fmt.Errorf("failed to read pending entries: %w", err)
		}
		if len(messages) == 0 {
			return nil
		}
		c.logger.Info("Reclaiming pending notifications", zap.Int("count", len(messages)))
		c.handleBatch(ctx, messages)
		afterID = messages[len(messages)-1].ID
	}
}

func (c *NotificationConsumer) consumeOnce(ctx context.Context) error {
	messages, err := rediscommon.ReadFromStream(ctx, c.redisClient, c.stream, c.groupName, c.consumerName, c.batchSize, c.block)
	if err != nil {
		return fmt.Errorf("failed to read from stream: %w", err)
	}
	c.handleBatch(ctx, messages)
	return nil
}

func (c *NotificationConsumer) handleBatch(ctx context.Context, messages []rediscommon.StreamMessage) {
	for _, msg := range messages {
		if err := c.processMessage(ctx, msg); err != nil {
			// 不确认，保留在 pending 列表中，下次启动时重新处理
			c.logger.Error("Failed to process notification",
				zap.String("message_id", msg.ID),
				zap.Error(err),
			)
			continue
		}
		if err := rediscommon.Ack(ctx, c.redisClient, c.stream, c.groupName, msg.ID); err != nil {
			c.logger.Warn("Failed to ack notification",
				zap.String("message_id", msg.ID),
				zap.Error(err),
			)
		}
	}
}

func (c *NotificationConsumer) processMessage(ctx context.Context, msg rediscommon.StreamMessage) error {
	n, err := parseNotification(msg)
	if err != nil {
		// 格式错误的消息无法重试成功，直接确认丢弃
		c.logger.Warn("Dropping malformed notification",
			zap.String("message_id", msg.ID),
			zap.Error(err),
		)
		return nil
	}
	if n.EventType != inspection.EventTypeRecorded {
		c.logger.Debug("Ignoring notification", zap.String("event_type", n.EventType))
		return nil
	}

	board, err := c.projector.ProjectGuardBoard(ctx, n.GuardID, n.CheckedAt)
	if err != nil {
		return fmt.Errorf("failed to project board for %s: %w", n.GuardID, err)
	}

	payload, err := json.Marshal(BoardUpdate{
		GuardID:     board.GuardID,
		DayID:       board.DayID,
		IsScheduled: board.IsScheduled,
		Summary:     board.Summary,
		EventID:     n.EventID,
		UpdatedAt:   time.Now().Unix(),
	})
	if err != nil {
		return err
	}

	topic := BoardTopic(c.topicPrefix, n.GuardID)
	if err := c.publisher.Publish(topic, c.qos, false, payload); err != nil {
		return err
	}

	c.logger.Debug("Board update published",
		zap.String("topic", topic),
		zap.String("day_id", board.DayID),
		zap.Int("completion_rate", board.Summary.CompletionRatePercent),
	)
	return nil
}

func parseNotification(msg rediscommon.StreamMessage) (*inspection.Notification, error) {
	data, ok := msg.Values["data"].(string)
	if !ok {
		return nil, fmt.Errorf("missing data field")
	}
	var n inspection.Notification
	if err := json.Unmarshal([]byte(data), &n); err != nil {
		return nil, fmt.Errorf("invalid notification json: %w", err)
	}
	if n.GuardID == "" || n.CheckedAt.IsZero() {
		return nil, fmt.Errorf("invalid notification: missing guard_id or checked_at")
	}
	return &n, nil
}
