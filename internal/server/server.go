package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/vesaa/netspeed/internal/agent"
)

// Options configures a Server.
type Options struct {
	Monitor *agent.Monitor
	Config  ConfigView
	// Token, when set, is required on every /api route.
	Token  string
	Logger *zap.SugaredLogger
}

// Server is the HTTP driver: it runs the monitor loop and publishes readings.
type Server struct {
	monitor *agent.Monitor
	config  ConfigView
	token   string
	hub     *Hub
	metrics *Metrics
	engine  *gin.Engine
	log     *zap.SugaredLogger
}

// New builds the gin engine with every route registered.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}
	log := opts.Logger.Named("server")
	s := &Server{
		monitor: opts.Monitor,
		config:  opts.Config,
		token:   opts.Token,
		hub:     newHub(log),
		metrics: NewMetrics(),
		log:     log,
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), corsMiddleware)
	s.RegisterRoutes(engine)
	RegisterStaticFiles(engine)
	s.engine = engine
	return s
}

// corsMiddleware lets panel widgets loaded from other origins call the API.
func corsMiddleware(c *gin.Context) {
	c.Header("Access-Control-Allow-Origin", "*")
	c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
	c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	if c.Request.Method == http.MethodOptions {
		c.AbortWithStatus(http.StatusNoContent)
		return
	}
	c.Next()
}

// Handler returns the HTTP handler, for tests and custom listeners.
func (s *Server) Handler() http.Handler { return s.engine }

// Publish records a tick's reading and pushes it to stream clients.
func (s *Server) Publish(r agent.Reading) {
	s.metrics.Observe(r)
	s.hub.Broadcast(r)
}

// Run serves on addr and ticks the monitor every interval until ctx is done,
// then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string, interval time.Duration) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go s.hub.run(ctx)

	loopErr := make(chan error, 1)
	go func() { loopErr <- s.monitor.Run(ctx, interval, s.Publish) }()

	srv := &http.Server{Addr: addr, Handler: s.engine, ReadHeaderTimeout: 10 * time.Second}
	srvErr := make(chan error, 1)
	go func() { srvErr <- srv.ListenAndServe() }()
	s.log.Infow("listening", "addr", addr, "auth", s.token != "")

	var err error
	select {
	case err = <-srvErr:
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
	case err = <-loopErr:
	case <-ctx.Done():
	}
	cancel()

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	if shutErr := srv.Shutdown(shutdownCtx); shutErr != nil && !errors.Is(shutErr, http.ErrServerClosed) {
		err = multierr.Append(err, shutErr)
	}
	return err
}
