package http

import (
	stdhttp "net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/mahmud-r-farhan/Realtime-Location-Tracker/internal/auth"
	"github.com/mahmud-r-farhan/Realtime-Location-Tracker/internal/config"
	"github.com/mahmud-r-farhan/Realtime-Location-Tracker/internal/core"
	"github.com/mahmud-r-farhan/Realtime-Location-Tracker/internal/store"
)

// Server wraps the HTTP server and the background work its middleware needs.
type Server struct {
	*stdhttp.Server
	limiter  *ipLimiter
	stop     chan struct{}
	stopOnce sync.Once
}

// NewServer builds an HTTP server with the websocket endpoint and the REST API.
// alerts may be nil when the SOS journal is disabled.
func NewServer(hub *core.Hub, alerts store.AlertStore, cfg *config.Config, logger *zerolog.Logger) *Server {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	limiter := newIPLimiter(cfg.HTTPRatePerMinute)
	jwtCfg := &auth.JWTConfig{
		Secret: []byte(cfg.OperatorSecret),
		Issuer: cfg.OperatorIssuer,
		TTL:    cfg.OperatorTTL,
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))
	router.Use(RateLimitMiddleware(limiter, logger))

	api := NewAPIHandlers(hub, alerts, cfg.ICEServers, logger)

	router.GET("/health", api.Health)

	public := router.Group("/api")
	public.GET("/ice-servers", api.ICEServers)

	operator := router.Group("/api")
	operator.Use(OperatorMiddleware(jwtCfg, logger))
	operator.GET("/rooms", api.ListRooms)
	operator.GET("/rooms/:room/alerts", api.ListAlerts)

	// gin's writer refuses Hijack once it has touched the response, so the
	// websocket upgrade is served by the mux directly.
	mux := stdhttp.NewServeMux()
	mux.Handle("/ws", RateLimitHandler(limiter, logger, NewWSHandler(hub, cfg, logger)))
	mux.Handle("/", router)

	srv := &Server{
		Server: &stdhttp.Server{
			Addr:              cfg.Addr,
			Handler:           mux,
			ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		},
		limiter: limiter,
		stop:    make(chan struct{}),
	}
	srv.limiter.startSweep(srv.stop)
	srv.RegisterOnShutdown(srv.StopBackground)
	return srv
}

// StopBackground stops the limiter sweep. Shutdown calls it too.
func (s *Server) StopBackground() {
	s.stopOnce.Do(func() { close(s.stop) })
}
