package inspection

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	rediscommon "github.com/jvlax-y/cekApar/common/redis"
	"github.com/jvlax-y/cekApar/internal/domain"
)

// EventTypeRecorded 巡检记录写入后的通知类型
const EventTypeRecorded = "inspection.recorded"

// Notification 写入 Redis Streams 的通知内容（data 字段为 JSON）
type Notification struct {
	EventType  string           `json:"event_type"`
	EventID    string           `json:"event_id"`
	GuardID    string           `json:"guard_id"`
	LocationID string           `json:"location_id"`
	CheckType  domain.CheckType `json:"check_type"`
	CheckedAt  time.Time        `json:"checked_at"`
}

// NewNotification 由巡检事件构造通知
func NewNotification(ev *domain.InspectionEvent) Notification {
	return Notification{
		EventType:  EventTypeRecorded,
		EventID:    ev.EventID,
		GuardID:    ev.GuardID,
		LocationID: ev.LocationID,
		CheckType:  ev.CheckType,
		CheckedAt:  ev.CheckedAt,
	}
}

// Notifier 巡检记录通知（单元测试中可替换）
type Notifier interface {
	NotifyRecorded(ctx context.Context, ev *domain.InspectionEvent) error
}

// StreamNotifier 基于 Redis Streams 的通知
type StreamNotifier struct {
	client *redis.Client
	stream string
}

func NewStreamNotifier(client *redis.Client, stream string) *StreamNotifier {
	return &StreamNotifier{client: client, stream: stream}
}

func (n *StreamNotifier) NotifyRecorded(ctx context.Context, ev *domain.InspectionEvent) error {
	if _, err := rediscommon.PublishJSONToStream(ctx, n.client, n.stream, NewNotification(ev)); err != nil {
		return fmt.Errorf("failed to publish to stream %s: %w", n.stream, err)
	}
	return nil
}
