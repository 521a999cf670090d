package main

import (
	"net/http"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	authhttp "github.com/quickchat/server/internal/auth/http"
	authservice "github.com/quickchat/server/internal/auth/service"
	"github.com/quickchat/server/internal/blob"
	chathttp "github.com/quickchat/server/internal/chat/http"
	"github.com/quickchat/server/internal/chat/presence"
	chatservice "github.com/quickchat/server/internal/chat/service"
	chatws "github.com/quickchat/server/internal/chat/websocket"
	"github.com/quickchat/server/internal/common/clock"
	"github.com/quickchat/server/internal/common/config"
	"github.com/quickchat/server/internal/common/constants"
	"github.com/quickchat/server/internal/common/crypto"
	"github.com/quickchat/server/internal/common/db"
	commonhttp "github.com/quickchat/server/internal/common/http"
	"github.com/quickchat/server/internal/common/httpmetrics"
	"github.com/quickchat/server/internal/common/jwtverify"
	"github.com/quickchat/server/internal/common/logger"
	"github.com/quickchat/server/internal/common/server"
	messagerepo "github.com/quickchat/server/internal/message/repository"
	userrepo "github.com/quickchat/server/internal/user/repository"
)

const serviceName = "quickchat"

func main() {
	log, err := logger.New(os.Getenv("LOG_DIR"), serviceName, os.Getenv("LOG_LEVEL"))
	if err != nil {
		panic(err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	pool := db.NewPool(log, cfg.DatabaseURL)
	defer pool.Close()

	clk := clock.NewRealClock()
	idGen := crypto.NewUUIDGenerator()
	hasher := crypto.NewBcryptHasher()

	users := userrepo.NewPgRepository(pool)
	messages := messagerepo.NewPgRepository(pool)

	blobs, err := blob.NewDiskStore(cfg.MediaDir, cfg.MediaBaseURL, cfg.MaxImageSize, idGen, log)
	if err != nil {
		log.Fatalf("failed to init media store: %v", err)
	}

	registry := presence.NewRegistry()
	lastSeen := chatws.NewLastSeenUpdater(users, clk, log, cfg.LastSeenFlushEvery)
	gateway := chatws.NewGateway(registry, lastSeen, log, chatws.Tunables{
		WriteWait:      cfg.WebSocketWriteWait,
		PongWait:       cfg.WebSocketPongWait,
		PingPeriod:     cfg.WebSocketPingPeriod,
		MaxMessageSize: cfg.WebSocketMaxMsgSize,
		SendBufferSize: cfg.WebSocketSendBufSize,
	})
	go gateway.Run()
	go lastSeen.Run()

	tokens := authservice.NewTokenIssuer(cfg.JWTSecret, cfg.AccessTokenTTL, clk)
	auth := authservice.NewAuthService(users, hasher, idGen, clk, tokens, blobs, log)
	chat := chatservice.NewChatService(messages, users, blobs, gateway, idGen, clk, log)

	authed := jwtverify.Middleware(cfg.JWTSecret, log)

	mux := http.NewServeMux()
	authhttp.NewHandler(auth, cfg.RequestTimeout, log).Register(mux, authed)
	chathttp.NewHandler(chat, gateway, []byte(cfg.JWTSecret), cfg.RequestTimeout, log).Register(mux, authed)

	mediaPrefix := strings.TrimSuffix(cfg.MediaBaseURL, "/") + "/"
	mux.Handle(mediaPrefix, http.StripPrefix(mediaPrefix, http.FileServer(http.Dir(cfg.MediaDir))))

	mux.HandleFunc("/health", commonhttp.HealthHandler(log))
	mux.Handle("/metrics", promhttp.Handler())

	rateLimiter := commonhttp.NewRateLimiter(cfg.RateLimitPerSecond, cfg.RateLimitBurst)

	var handler http.Handler = mux
	handler = httpmetrics.New(serviceName).Wrap(handler)
	handler = rateLimiter.Middleware()(handler)
	handler = commonhttp.MaxRequestSizeMiddleware(constants.DefaultMaxRequestSize)(handler)
	handler = commonhttp.TraceIDMiddleware(handler)
	handler = commonhttp.RecoveryMiddleware(log)(handler)

	srv := &http.Server{
		Addr:        ":" + cfg.HTTPPort,
		Handler:     handler,
		ReadTimeout: constants.ServerReadTimeout,
		IdleTimeout: constants.ServerIdleTimeout,
		// No WriteTimeout: websocket connections stay open indefinitely.
	}

	server.StartWithGracefulShutdown(srv, log, serviceName,
		gateway.Shutdown,
		lastSeen.Shutdown,
	)
}
