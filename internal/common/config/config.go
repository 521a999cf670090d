package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/quickchat/server/internal/common/constants"
	commonerrors "github.com/quickchat/server/internal/common/errors"
)

type Config struct {
	HTTPPort    string
	DatabaseURL string
	JWTSecret   string

	AccessTokenTTL time.Duration
	RequestTimeout time.Duration

	MediaDir     string
	MediaBaseURL string
	MaxImageSize int64

	WebSocketWriteWait   time.Duration
	WebSocketPongWait    time.Duration
	WebSocketPingPeriod  time.Duration
	WebSocketMaxMsgSize  int64
	WebSocketSendBufSize int

	LastSeenFlushEvery time.Duration

	RateLimitPerSecond float64
	RateLimitBurst     int
}

func Load() (Config, error) {
	jwtSecret, err := mustEnv("JWT_SECRET")
	if err != nil {
		return Config{}, err
	}
	if len(jwtSecret) < constants.JWTSecretMinLength {
		return Config{}, commonerrors.ErrInvalidJWTSecret.WithCause(
			fmt.Errorf("got %d bytes", len(jwtSecret)))
	}

	databaseURL, err := mustEnv("DATABASE_URL")
	if err != nil {
		return Config{}, err
	}

	return Config{
		HTTPPort:    getEnv("HTTP_PORT", constants.DefaultHTTPPort),
		DatabaseURL: databaseURL,
		JWTSecret:   jwtSecret,

		AccessTokenTTL: getDurationEnv("ACCESS_TOKEN_TTL", constants.DefaultAccessTokenTTL),
		RequestTimeout: getDurationEnv("REQUEST_TIMEOUT", constants.DefaultRequestTimeout),

		MediaDir:     getEnv("MEDIA_DIR", "media"),
		MediaBaseURL: getEnv("MEDIA_BASE_URL", "/media"),
		MaxImageSize: getInt64Env("MAX_IMAGE_SIZE", constants.MaxImageSizeBytes),

		WebSocketWriteWait:   getDurationEnv("WS_WRITE_WAIT", constants.DefaultWebSocketWriteWait),
		WebSocketPongWait:    getDurationEnv("WS_PONG_WAIT", constants.DefaultWebSocketPongWait),
		WebSocketPingPeriod:  getDurationEnv("WS_PING_PERIOD", constants.DefaultWebSocketPingPeriod),
		WebSocketMaxMsgSize:  getInt64Env("WS_MAX_MSG_SIZE", constants.DefaultWebSocketMaxMsgSize),
		WebSocketSendBufSize: getIntEnv("WS_SEND_BUF_SIZE", constants.DefaultWebSocketSendBufSize),

		LastSeenFlushEvery: getDurationEnv("LAST_SEEN_FLUSH_EVERY", constants.LastSeenFlushEvery),

		RateLimitPerSecond: getFloatEnv("RATE_LIMIT_RPS", constants.RateLimitRequestsPerSecond),
		RateLimitBurst:     getIntEnv("RATE_LIMIT_BURST", constants.RateLimitBurst),
	}, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func mustEnv(key string) (string, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return "", commonerrors.ErrMissingRequiredEnv.WithCause(fmt.Errorf("%s", key))
	}
	return v, nil
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func getIntEnv(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}

func getInt64Env(key string, fallback int64) int64 {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return i
}

func getFloatEnv(key string, fallback float64) float64 {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}
