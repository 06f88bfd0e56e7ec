package util

import (
	"github.com/berfenger/solardash/internal/config"

	"go.uber.org/zap"
)

// LoadTestConfig returns a valid config with short timings for actor tests.
func LoadTestConfig() config.Config {
	return config.Config{
		LogLevel: zap.DebugLevel,
		MQTT: config.MQTTConfig{
			Host:                 "localhost",
			Port:                 9001,
			BaseTopic:            "solar",
			ClientIdPrefix:       "solardash",
			KeepAliveSeconds:     30,
			ConnectTimeoutMillis: 1000,
			ProtocolVersion:      4,
		},
		Onboarding: config.OnboardingConfig{
			AutoStart:               false,
			StartDelayMillis:        10,
			ConnectTimeoutMillis:    1000,
			SubscribingDelayMillis:  20,
			CompletenessGraceMillis: 150,
			RetryDelayMillis:        100,
		},
		Dashboard: config.DashboardConfig{
			PVHistorySize:           5,
			LightningIntervalMillis: 200,
		},
		Demo: config.DemoConfig{
			Enable:           false,
			StartDelayMillis: 50,
			IntervalMillis:   100,
		},
		Port: 8080,
	}
}
