package constants

import "time"

type ContextKey string

// TraceIDKey is the context key the trace middleware stores request ids under.
const TraceIDKey ContextKey = "trace_id"

const (
	PasswordMinLength  = 6
	PasswordMaxLength  = 72
	FullNameMinLength  = 2
	FullNameMaxLength  = 64
	BioMaxLength       = 300
	JWTSecretMinLength = 32

	MaxMessageLength  = 4000
	MaxImageSizeBytes = 10 * 1024 * 1024

	DefaultMaxRequestSize = 15 << 20

	DBPoolMaxConns        = 25
	DBPoolMinConns        = 5
	DBPoolConnMaxLifetime = time.Hour
	DBPoolConnMaxIdleTime = 30 * time.Minute
	DBPoolHealthCheck     = time.Minute
	DBPoolConnectTimeout  = 5 * time.Second
	DBPoolMaxAttempts     = 10
	DBPoolRetryDelay      = time.Second
	DBPoolMetricsInterval = 30 * time.Second
	DBQueryTimeout        = 30 * time.Second

	ServerReadHeaderTimeout = 5 * time.Second
	ServerReadTimeout       = 30 * time.Second
	ServerWriteTimeout      = 30 * time.Second
	ServerIdleTimeout       = 120 * time.Second
	ShutdownTimeout         = 30 * time.Second
	DrainTimeout            = 10 * time.Second

	DefaultHTTPPort       = "5000"
	DefaultAccessTokenTTL = 7 * 24 * time.Hour

	DefaultWebSocketWriteWait   = 10 * time.Second
	DefaultWebSocketPongWait    = 60 * time.Second
	DefaultWebSocketPingPeriod  = 54 * time.Second
	DefaultWebSocketMaxMsgSize  = 4096
	DefaultWebSocketSendBufSize = 256

	LastSeenQueueSize  = 100
	LastSeenBatchSize  = 100
	LastSeenFlushEvery = 500 * time.Millisecond

	RateLimitRequestsPerSecond = 20.0
	RateLimitBurst             = 40
	RateLimitCleanupInterval   = 5 * time.Minute

	DefaultRequestTimeout = 5 * time.Second
)
