package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jvlax-y/cekApar/common/config"
)

// Config 巡逻服务配置
// 加载顺序：默认值 → CONFIG_FILE（YAML，可选）→ 环境变量；环境变量优先
type Config struct {
	HTTP struct {
		Addr string `yaml:"addr"`
	} `yaml:"http"`

	DatabaseEnabled bool                  `yaml:"database_enabled"`
	Database        config.DatabaseConfig `yaml:"database"`
	Redis           config.RedisConfig    `yaml:"redis"`
	MQTT            config.MQTTConfig     `yaml:"mqtt"`

	Patrol PatrolConfig `yaml:"patrol"`

	Identity struct {
		BaseURL        string `yaml:"base_url"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"identity"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// PatrolConfig 运营日与通知相关配置
type PatrolConfig struct {
	// 运营日从本地时间 CutoverHour:00 开始
	CutoverHour int `yaml:"cutover_hour"`
	// 部署时区相对 UTC 的偏移（分钟），默认 WIB +420
	UTCOffsetMinutes int `yaml:"utc_offset_minutes"`

	EventStream   string `yaml:"event_stream"`
	ConsumerGroup string `yaml:"consumer_group"`
	ConsumerName  string `yaml:"consumer_name"`
	BatchSize     int    `yaml:"batch_size"`

	NotifyEnabled bool   `yaml:"notify_enabled"` // Redis 通知 + MQTT 看板推送
	ScanEnabled   bool   `yaml:"scan_enabled"`   // MQTT 扫码上报
	TopicPrefix   string `yaml:"topic_prefix"`
}

// Default 默认配置
func Default() *Config {
	cfg := &Config{}
	cfg.HTTP.Addr = ":8090"

	cfg.DatabaseEnabled = true
	cfg.Database = config.DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "postgres",
		Database: "satpam",
		SSLMode:  "disable",
		MaxConns: 25,
		MaxIdle:  5,
	}
	cfg.Redis = config.RedisConfig{Addr: "localhost:6379"}
	cfg.MQTT = config.MQTTConfig{Broker: "tcp://localhost:1883", ClientID: "satpam-patrol", QoS: 1}

	cfg.Patrol = PatrolConfig{
		CutoverHour:      6,
		UTCOffsetMinutes: 420,
		EventStream:      "patrol:inspections",
		ConsumerGroup:    "patrol-board-group",
		ConsumerName:     "patrol-board-1",
		BatchSize:        10,
		TopicPrefix:      "satpam",
	}

	cfg.Identity.TimeoutSeconds = 5

	cfg.Log.Level = "info"
	cfg.Log.Format = "json"
	return cfg
}

// Load 加载配置
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.HTTP.Addr = getEnv("HTTP_ADDR", cfg.HTTP.Addr)

	cfg.DatabaseEnabled = getEnvBool("DB_ENABLED", cfg.DatabaseEnabled)
	cfg.Database.LoadFromEnv("DB")
	cfg.Redis.LoadFromEnv("REDIS")
	cfg.MQTT.LoadFromEnv("MQTT")

	cfg.Patrol.CutoverHour = getEnvInt("PATROL_CUTOVER_HOUR", cfg.Patrol.CutoverHour)
	cfg.Patrol.UTCOffsetMinutes = getEnvInt("PATROL_UTC_OFFSET_MINUTES", cfg.Patrol.UTCOffsetMinutes)
	cfg.Patrol.EventStream = getEnv("PATROL_EVENT_STREAM", cfg.Patrol.EventStream)
	cfg.Patrol.ConsumerGroup = getEnv("PATROL_CONSUMER_GROUP", cfg.Patrol.ConsumerGroup)
	cfg.Patrol.ConsumerName = getEnv("PATROL_CONSUMER_NAME", cfg.Patrol.ConsumerName)
	cfg.Patrol.BatchSize = getEnvInt("PATROL_BATCH_SIZE", cfg.Patrol.BatchSize)
	cfg.Patrol.NotifyEnabled = getEnvBool("PATROL_NOTIFY_ENABLED", cfg.Patrol.NotifyEnabled)
	cfg.Patrol.ScanEnabled = getEnvBool("PATROL_SCAN_ENABLED", cfg.Patrol.ScanEnabled)
	cfg.Patrol.TopicPrefix = getEnv("PATROL_MQTT_TOPIC_PREFIX", cfg.Patrol.TopicPrefix)

	cfg.Identity.BaseURL = getEnv("IDENTITY_BASE_URL", cfg.Identity.BaseURL)
	cfg.Identity.TimeoutSeconds = getEnvInt("IDENTITY_TIMEOUT_SECONDS", cfg.Identity.TimeoutSeconds)

	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getEnv("LOG_FORMAT", cfg.Log.Format)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// Validate 校验运营日参数
func (c *Config) Validate() error {
	if c.Patrol.CutoverHour < 0 || c.Patrol.CutoverHour > 23 {
		return fmt.Errorf("PATROL_CUTOVER_HOUR must be within 0..23, got %d", c.Patrol.CutoverHour)
	}
	if c.Patrol.UTCOffsetMinutes < -14*60 || c.Patrol.UTCOffsetMinutes > 14*60 {
		return fmt.Errorf("PATROL_UTC_OFFSET_MINUTES must be within ±840, got %d", c.Patrol.UTCOffsetMinutes)
	}
	if c.Patrol.NotifyEnabled && c.Patrol.EventStream == "" {
		return fmt.Errorf("PATROL_EVENT_STREAM is required when notifications are enabled")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key))); err == nil {
		return v
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key))); err == nil {
		return v
	}
	return defaultValue
}
