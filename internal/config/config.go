package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
)

type Config struct {
	LogLevel   zapcore.Level
	MQTT       MQTTConfig       `mapstructure:"mqtt"`
	Onboarding OnboardingConfig `mapstructure:"onboarding"`
	Dashboard  DashboardConfig  `mapstructure:"dashboard"`
	Demo       DemoConfig       `mapstructure:"demo"`
	Port       uint             `mapstructure:"port"`
	HttpLog    bool             `mapstructure:"http_log"`
}

type MQTTConfig struct {
	Host                 string
	Port                 int
	Path                 string
	Secure               bool
	Username             string
	Password             string
	BaseTopic            string `mapstructure:"base_topic"`
	ClientIdPrefix       string `mapstructure:"client_id_prefix"`
	KeepAliveSeconds     uint32 `mapstructure:"keepalive_seconds"`
	ConnectTimeoutMillis uint32 `mapstructure:"connect_timeout_millis"`
	ProtocolVersion      uint   `mapstructure:"protocol_version"`
}

// BrokerURL is the websocket URL of the broker, e.g. ws://broker:9001/mqtt
func (c MQTTConfig) BrokerURL() string {
	scheme := "ws"
	if c.Secure {
		scheme = "wss"
	}
	path := c.Path
	if path != "" && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return fmt.Sprintf("%s://%s:%d%s", scheme, c.Host, c.Port, path)
}

type OnboardingConfig struct {
	AutoStart               bool   `mapstructure:"auto_start"`
	StartDelayMillis        uint32 `mapstructure:"start_delay_millis"`
	ConnectTimeoutMillis    uint32 `mapstructure:"connect_timeout_millis"`
	SubscribingDelayMillis  uint32 `mapstructure:"subscribing_delay_millis"`
	CompletenessGraceMillis uint32 `mapstructure:"completeness_grace_millis"`
	RetryDelayMillis        uint32 `mapstructure:"retry_delay_millis"`
}

func (c OnboardingConfig) StartDelay() time.Duration {
	return millis(c.StartDelayMillis)
}

func (c OnboardingConfig) ConnectTimeout() time.Duration {
	return millis(c.ConnectTimeoutMillis)
}

func (c OnboardingConfig) SubscribingDelay() time.Duration {
	return millis(c.SubscribingDelayMillis)
}

func (c OnboardingConfig) CompletenessGrace() time.Duration {
	return millis(c.CompletenessGraceMillis)
}

func (c OnboardingConfig) RetryDelay() time.Duration {
	return millis(c.RetryDelayMillis)
}

type DashboardConfig struct {
	PVHistorySize           int    `mapstructure:"pv_history_size"`
	LightningIntervalMillis uint32 `mapstructure:"lightning_interval_millis"`
}

func (c DashboardConfig) LightningInterval() time.Duration {
	return millis(c.LightningIntervalMillis)
}

type DemoConfig struct {
	Enable           bool   `mapstructure:"enable"`
	StartDelayMillis uint32 `mapstructure:"start_delay_millis"`
	IntervalMillis   uint32 `mapstructure:"interval_millis"`
}

func (c DemoConfig) StartDelay() time.Duration {
	return millis(c.StartDelayMillis)
}

func (c DemoConfig) Interval() time.Duration {
	return millis(c.IntervalMillis)
}

func millis(v uint32) time.Duration {
	return time.Duration(v) * time.Millisecond
}

func CheckMQTTTopic(baseTopic string) (string, error) {
	// check and fix base topic
	lowerBaseTopic := strings.ToLower(baseTopic)
	baseTopicRegexp := regexp.MustCompile("^[a-z0-9_]+$")
	matches := baseTopicRegexp.FindAllStringSubmatch(lowerBaseTopic, 1)
	if len(matches) <= 0 {
		return "", errors.New("invalid topic. can only contain letters, numbers and underscores")
	}
	return lowerBaseTopic, nil
}

// Validate checks bounds that would make the onboarding flow misbehave.
func (c Config) Validate() error {
	if c.MQTT.Host == "" {
		return errors.New("config param mqtt.host is required")
	}
	if c.MQTT.Port <= 0 || c.MQTT.Port > 65535 {
		return errors.New("config param mqtt.port should be in 1..65535")
	}
	if c.MQTT.ProtocolVersion != 3 && c.MQTT.ProtocolVersion != 4 {
		return errors.New("config param mqtt.protocol_version should be 3 or 4")
	}
	if c.Onboarding.ConnectTimeoutMillis < 1000 {
		return errors.New("config param onboarding.connect_timeout_millis should be >= 1000")
	}
	if c.Onboarding.CompletenessGraceMillis < 100 {
		return errors.New("config param onboarding.completeness_grace_millis should be >= 100")
	}
	if c.Dashboard.PVHistorySize < 1 {
		return errors.New("config param dashboard.pv_history_size should be > 0")
	}
	if c.Dashboard.LightningIntervalMillis < 1000 {
		return errors.New("config param dashboard.lightning_interval_millis should be >= 1000")
	}
	if c.Demo.Enable && c.Demo.IntervalMillis < 100 {
		return errors.New("config param demo.interval_millis should be >= 100")
	}
	return nil
}
