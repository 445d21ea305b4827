// main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/cloudwatch"
	"github.com/aws/aws-xray-sdk-go/xray"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/juju/clock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"go-event-checkin/config"
	"go-event-checkin/controllers"
	"go-event-checkin/i18n"
	"go-event-checkin/logger"
	"go-event-checkin/notify"
	"go-event-checkin/services"
	"go-event-checkin/store"
	"go-event-checkin/store/memory"
	"go-event-checkin/store/postgres"
	"go-event-checkin/websocket"
	"go-event-checkin/worker"
)

const heartbeatInterval = time.Minute

// app is the fully wired process.
type app struct {
	cfg       *config.Config
	store     store.Store
	queue     *worker.Queue
	liveQueue *worker.Queue
	hub       *websocket.Hub
	heartbeat *Heartbeat
	handler   http.Handler
	detach    func()
}

// openStore picks postgres when DATABASE_URL is set, memory otherwise.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	if !cfg.UsesDatabase() {
		logger.Warn.Println("[main] DATABASE_URL not set, using the in-memory store")
		return memory.New(), nil
	}
	if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
		return nil, err
	}
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	return postgres.New(pool), nil
}

// buildMetrics always exposes prometheus and adds CloudWatch when enabled.
func buildMetrics(cfg *config.Config, queue *worker.Queue) (websocket.Metrics, *prometheus.Registry) {
	collector := websocket.NewCollector()
	registry := prometheus.NewRegistry()
	registry.MustRegister(collector)

	metrics := websocket.MultiMetrics{collector}
	if cfg.CloudWatchEnabled {
		sess := session.Must(session.NewSession())
		metrics = append(metrics, websocket.NewCloudWatchMetrics(cloudwatch.New(sess), "EventCheckin", queue))
		logger.Info.Println("[main] CloudWatch metrics enabled")
	}
	return metrics, registry
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	st, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	queue := worker.New(cfg.WorkerCount, cfg.WorkerQueueSize)
	// dashboard refreshes get their own lane so notifications and metric
	// flushes cannot starve them
	liveQueue := worker.New(cfg.WorkerCount, cfg.WorkerQueueSize)
	metrics, registry := buildMetrics(cfg, queue)
	hub := websocket.NewHub(websocket.HubOptions{
		Buffer:         cfg.WorkerQueueSize,
		AllowedOrigins: cfg.AllowedOrigins,
		Metrics:        metrics,
	})
	tr := i18n.NewTranslator(cfg.DefaultLocale)

	agg := services.NewAggregator(st, hub, metrics, liveQueue, cfg.RecentScansLimit)
	checkpoints := services.NewCheckpointService(st, hub, agg)
	svc := controllers.Services{
		Accounts:     services.NewAccountService(st),
		Checkpoints:  checkpoints,
		Scans:        services.NewScanService(st, agg, metrics, tr, clock.WallClock),
		Participants: services.NewParticipantService(st, checkpoints, agg),
		Tickets:      services.NewTicketService(st),
		Aggregator:   agg,
		Translator:   tr,
	}

	a := &app{
		cfg:       cfg,
		store:     st,
		queue:     queue,
		liveQueue: liveQueue,
		hub:       hub,
		heartbeat: NewHeartbeat(clock.WallClock, heartbeatInterval, queue, hub),
		detach:    func() {},
	}

	if cfg.DiscordEnabled() {
		dg, err := notify.NewSession(cfg.DiscordToken)
		if err != nil {
			return nil, err
		}
		announcer := notify.NewAnnouncer(dg, cfg.DiscordChannelID, tr, cfg.DefaultLocale, queue)
		a.detach = announcer.Attach(hub)
		logger.Info.Printf("[main] Discord announcements enabled for channel %s", cfg.DiscordChannelID)
	}

	a.handler = newRouter(cfg, svc, hub, registry)
	return a, nil
}

func newRouter(cfg *config.Config, svc controllers.Services, hub *websocket.Hub, registry *prometheus.Registry) http.Handler {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	cookieStore := cookie.NewStore([]byte(cfg.SessionSecret))
	cookieStore.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
	router.Use(sessions.Sessions("checkin_session", cookieStore))

	controllers.RegisterRoutes(router, controllers.NewHandlers(svc))
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	router.GET("/ws", gin.WrapF(hub.ServeWs))

	if cfg.XRayEnabled {
		logger.Info.Println("[main] X-Ray tracing enabled")
		return xray.Handler(xray.NewFixedSegmentNamer("event-checkin"), router)
	}
	return router
}

// start launches the hub and the heartbeat.
func (a *app) start(ctx context.Context) {
	go a.hub.Run()
	go a.heartbeat.Run(ctx)
}

// shutdown drains background work and releases the store.
func (a *app) shutdown(ctx context.Context) {
	a.detach()
	if err := a.liveQueue.Close(ctx); err != nil {
		logger.Warn.Printf("[main] live queue did not drain: %v", err)
	}
	if err := a.queue.Close(ctx); err != nil {
		logger.Warn.Printf("[main] worker queue did not drain: %v", err)
	}
	a.hub.Stop()
	a.store.Close()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Error.Fatalf("[main] configuration: %v", err)
	}
	if err := logger.InitLogger(cfg.LogDir); err != nil {
		logger.Error.Fatalf("[main] logger: %v", err)
	}
	logger.SetLogLevel(cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		logger.Error.Fatalf("[main] startup: %v", err)
	}
	a.start(ctx)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info.Printf("[main] listening on :%s (env=%s)", cfg.Port, cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error.Fatalf("[main] server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info.Println("[main] shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error.Printf("[main] server shutdown: %v", err)
	}
	a.shutdown(shutdownCtx)
}
