// Package web assembles the taskwire server: HTTP routes, sessions, the
// websocket hub and scheduled jobs.
package web

import (
	"context"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"

	"github.com/taskwire/taskwire/config"
	"github.com/taskwire/taskwire/logger"
	"github.com/taskwire/taskwire/util/random"
	"github.com/taskwire/taskwire/web/cache"
	"github.com/taskwire/taskwire/web/controller"
	"github.com/taskwire/taskwire/web/job"
	"github.com/taskwire/taskwire/web/middleware"
	"github.com/taskwire/taskwire/web/service"
	"github.com/taskwire/taskwire/web/session"
	"github.com/taskwire/taskwire/web/websocket"
)

// Server is the taskwire web server.
type Server struct {
	httpServer *http.Server
	listener   net.Listener

	index *controller.IndexController
	board *controller.BoardController
	ws    *controller.WebSocketController

	hub        *websocket.Hub
	dispatcher *websocket.Dispatcher

	cron *cron.Cron

	ctx    context.Context
	cancel context.CancelFunc
}

// NewServer creates a server with a cancellable context.
func NewServer() *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{ctx: ctx, cancel: cancel}
}

// initRouter initializes gin, sessions, middleware and controllers.
func (s *Server) initRouter() (*gin.Engine, error) {
	if config.IsDebug() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.DefaultWriter = io.Discard
		gin.DefaultErrorWriter = io.Discard
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.Default()

	secret := config.GetSessionSecret()
	if secret == "" {
		// Sessions won't survive a restart without a configured secret.
		secret = random.Seq(32)
		logger.Warning("TW_SESSION_SECRET not set, using a per-process random secret")
	}

	store, err := s.sessionStore(secret)
	if err != nil {
		return nil, err
	}
	engine.Use(sessions.Sessions(session.CookieName, store))
	engine.Use(gzip.Gzip(gzip.DefaultCompression))

	basePath := config.GetBasePath()

	// Credential endpoints are the brute-forceable surface.
	loginLimiter := middleware.RateLimitMiddleware(middleware.DefaultRateLimitConfig())
	engine.Use(func(c *gin.Context) {
		path := c.Request.URL.Path
		if c.Request.Method == http.MethodPost &&
			(path == basePath+"login" || path == basePath+"register") {
			loginLimiter(c)
			return
		}
		c.Next()
	})

	g := engine.Group(basePath)
	s.index = controller.NewIndexController(g)

	api := engine.Group(basePath + "api")
	s.board = controller.NewBoardController(api)

	s.ws = controller.NewWebSocketController(g, s.hub, s.dispatcher)

	engine.NoRoute(func(c *gin.Context) {
		c.AbortWithStatus(http.StatusNotFound)
	})

	return engine, nil
}

// sessionStore returns the Redis-backed store when Redis is configured,
// otherwise a signed cookie store.
func (s *Server) sessionStore(secret string) (sessions.Store, error) {
	redisAddr := config.GetRedisAddr()
	if redisAddr == "" {
		return cookie.NewStore([]byte(secret)), nil
	}

	if err := cache.InitRedis(redisAddr, config.GetRedisPassword()); err != nil {
		return nil, err
	}
	return cache.NewRedisStore(cache.GetClient(), []byte(secret)), nil
}

// startTask schedules the background jobs.
func (s *Server) startTask() {
	s.cron.AddJob("@every 1h", job.NewDeadlineReminderJob(s.hub))
}

// Start wires the hub, dispatcher, router and cron, then begins serving.
func (s *Server) Start() (err error) {
	defer func() {
		if err != nil {
			_ = s.Stop()
		}
	}()

	s.hub = websocket.NewHub()
	go s.hub.Run()

	s.dispatcher = websocket.NewDispatcher()
	service.NewBoardService(s.hub).RegisterHandlers(s.dispatcher)

	s.cron = cron.New()
	s.cron.Start()
	s.startTask()

	engine, err := s.initRouter()
	if err != nil {
		return err
	}

	listenAddr := net.JoinHostPort(config.GetListen(), strconv.Itoa(config.GetPort()))
	listener, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return err
	}
	s.listener = listener

	s.httpServer = &http.Server{Handler: engine}
	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			logger.Error("web server error:", err)
		}
	}()

	logger.Infof("web server listening on %s", listenAddr)
	return nil
}

// Stop shuts down the server, hub and scheduled jobs.
func (s *Server) Stop() error {
	s.cancel()

	if s.hub != nil {
		s.hub.Stop()
	}
	if s.cron != nil {
		s.cron.Stop()
	}

	var err error
	if s.httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err = s.httpServer.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
	}
	if cacheErr := cache.Close(); cacheErr != nil && err == nil {
		err = cacheErr
	}
	return err
}
