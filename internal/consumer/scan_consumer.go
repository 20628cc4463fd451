package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	mqttcommon "github.com/jvlax-y/cekApar/common/mqtt"
	"github.com/jvlax-y/cekApar/internal/domain"
	"github.com/jvlax-y/cekApar/internal/inspection"
)

// Subscriber MQTT 订阅（common/mqtt.Client 满足该接口）
type Subscriber interface {
	Subscribe(topic string, qos byte, handler mqttcommon.MessageHandler) error
	Unsubscribe(topics ...string) error
}

// EventRecorder 巡检记录写入
type EventRecorder interface {
	Record(ctx context.Context, req inspection.RecordRequest) (*domain.InspectionEvent, error)
}

// ScanMessage 手持终端上报的扫码结果；topic 为 <prefix>/scan/<guard_id>
type ScanMessage struct {
	GuardID       string `json:"guard_id"`
	CheckType     string `json:"check_type"`
	QRPayload     string `json:"qr_payload"`
	EvidenceURL   string `json:"evidence_url"`
	AparCode      string `json:"apar_code"`
	AparCondition string `json:"apar_condition"`
	ScannedAt     string `json:"scanned_at"` // RFC3339，可为空
}

// ScanConsumer 订阅扫码主题，把每次扫码转成一条巡检记录
type ScanConsumer struct {
	subscriber  Subscriber
	recorder    EventRecorder
	logger      *zap.Logger
	topicPrefix string
	qos         byte
	timeout     time.Duration
}

// NewScanConsumer 创建扫码消费者
func NewScanConsumer(subscriber Subscriber, recorder EventRecorder, logger *zap.Logger, topicPrefix string, qos byte) *ScanConsumer {
	return &ScanConsumer{
		subscriber:  subscriber,
		recorder:    recorder,
		logger:      logger,
		topicPrefix: topicPrefix,
		qos:         qos,
		timeout:     10 * time.Second,
	}
}

// Topic 订阅的通配主题
func (c *ScanConsumer) Topic() string {
	return c.topicPrefix + "/scan/+"
}

func (c *ScanConsumer) Start() error {
	if err := c.subscriber.Subscribe(c.Topic(), c.qos, c.HandleMessage); err != nil {
		return err
	}
	c.logger.Info("Scan consumer subscribed", zap.String("topic", c.Topic()))
	return nil
}

func (c *ScanConsumer) Stop() error {
	return c.subscriber.Unsubscribe(c.Topic())
}

// HandleMessage 处理单条扫码消息
// 格式错误的消息记录日志后丢弃；写入失败返回错误，由订阅方记录
func (c *ScanConsumer) HandleMessage(topic string, payload []byte) error {
	req, err := c.parseScan(topic, payload)
	if err != nil {
		c.logger.Warn("Dropping malformed scan",
			zap.String("topic", topic),
			zap.Error(err),
		)
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	ev, err := c.recorder.Record(ctx, *req)
	if err != nil {
		return fmt.Errorf("failed to record scan from %s: %w", req.GuardID, err)
	}

	c.logger.Debug("Scan recorded",
		zap.String("event_id", ev.EventID),
		zap.String("guard_id", ev.GuardID),
	)
	return nil
}

func (c *ScanConsumer) parseScan(topic string, payload []byte) (*inspection.RecordRequest, error) {
	var msg ScanMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return nil, fmt.Errorf("invalid scan json: %w", err)
	}

	guardID := msg.GuardID
	if guardID == "" {
		guardID = guardFromTopic(topic)
	}
	if guardID == "" {
		return nil, fmt.Errorf("missing guard_id")
	}

	req := &inspection.RecordRequest{
		GuardID:       guardID,
		CheckType:     msg.CheckType,
		QRPayload:     msg.QRPayload,
		EvidenceURL:   msg.EvidenceURL,
		AparCode:      msg.AparCode,
		AparCondition: msg.AparCondition,
	}
	if msg.ScannedAt != "" {
		at, err := time.Parse(time.RFC3339, msg.ScannedAt)
		if err != nil {
			return nil, fmt.Errorf("invalid scanned_at %q: %w", msg.ScannedAt, err)
		}
		req.At = at
	}
	return req, nil
}

func guardFromTopic(topic string) string {
	idx := strings.LastIndex(topic, "/")
	if idx < 0 || idx == len(topic)-1 {
		return ""
	}
	return topic[idx+1:]
}
