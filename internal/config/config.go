package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration, loaded from environment variables.
type Config struct {
	// HTTP status/monitor server
	Port int

	// LAN sink target selection
	TargetIndex      int // -1 means "no preference"; Discover errors if ambiguous
	DiscoveryRetries int
	DiscoveryTimeout time.Duration

	// Ring buffer / prefill sizing
	RingSecondsPCM float64
	RingSecondsDSD float64

	// Track-transition timing
	FormatChangeSettleDelay time.Duration
	ShutdownSilenceCyclesPCM int
	ShutdownSilenceCyclesDSD int
	ProducerCallbackTimeout  time.Duration

	// Decoder I/O
	HTTPReadTimeout time.Duration

	// Diagnostics
	LogLevel     string
	MonitorEnabled bool
}

// Load reads configuration from environment variables with sane defaults.
func Load() Config {
	return Config{
		Port: envInt("RENDERER_PORT", 8080),

		TargetIndex:      envInt("RENDERER_TARGET_INDEX", -1),
		DiscoveryRetries: envInt("RENDERER_DISCOVERY_RETRIES", 3),
		DiscoveryTimeout: time.Duration(envInt("RENDERER_DISCOVERY_TIMEOUT_MS", 2000)) * time.Millisecond,

		RingSecondsPCM: envFloat("RENDERER_RING_SECONDS_PCM", 1.0),
		RingSecondsDSD: envFloat("RENDERER_RING_SECONDS_DSD", 0.8),

		FormatChangeSettleDelay:  time.Duration(envInt("RENDERER_FORMAT_SETTLE_MS", 600)) * time.Millisecond,
		ShutdownSilenceCyclesPCM: envInt("RENDERER_SHUTDOWN_SILENCE_CYCLES_PCM", 30),
		ShutdownSilenceCyclesDSD: envInt("RENDERER_SHUTDOWN_SILENCE_CYCLES_DSD", 100),
		ProducerCallbackTimeout:  time.Duration(envInt("RENDERER_PRODUCER_TIMEOUT_MS", 5000)) * time.Millisecond,

		HTTPReadTimeout: time.Duration(envInt("RENDERER_HTTP_READ_TIMEOUT_S", 10)) * time.Second,

		LogLevel:       envStr("RENDERER_LOG_LEVEL", "info"),
		MonitorEnabled: envBool("RENDERER_MONITOR_ENABLED", false),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
