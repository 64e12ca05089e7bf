package main

import (
	"context"
	"database/sql"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"

	"admin-dashboard/internal/adminapi"
	analyticsapp "admin-dashboard/internal/analytics/application"
	"admin-dashboard/internal/analytics/domain/statistic"
	analyticsmemory "admin-dashboard/internal/analytics/infrastructure/memory"
	analyticsinterfaces "admin-dashboard/internal/analytics/interfaces"
	apihttp "admin-dashboard/internal/api/http"
	"admin-dashboard/internal/audit"
	"admin-dashboard/internal/auth"
	"admin-dashboard/internal/config"
	notificationsapp "admin-dashboard/internal/notifications/application"
	notificationshttp "admin-dashboard/internal/notifications/interfaces/http"
	"admin-dashboard/internal/notifications/notify"
	"admin-dashboard/internal/observability/metrics"
	"admin-dashboard/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log := logger.New(logger.Config{})
		log.Fatal().Err(err).Msg("load config")
	}
	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loc, err := cfg.Location()
	if err != nil {
		log.Fatal().Err(err).Msg("resolve timezone")
	}

	db, auditLog, auditReader := openAudit(ctx, cfg, log)
	if db != nil {
		defer db.Close()
	}
	metrics.Init(db, log)

	session := auth.NewSession(nil)
	client, err := adminapi.NewClient(cfg.AdminAPI.BaseURL, session,
		adminapi.WithTimeout(cfg.AdminAPI.Timeout),
		adminapi.WithBreaker(adminapi.BreakerConfig{
			Name:          "adminapi",
			MaxFailures:   uint32(cfg.AdminAPI.BreakerMaxFailures),
			OpenTimeout:   cfg.AdminAPI.BreakerOpenTimeout,
			OnStateChange: func(name, _, to string) { metrics.SetBreakerState(name, to) },
		}),
		adminapi.WithLogger(logger.Component(log, "adminapi")),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("admin api client")
	}
	openSession(ctx, cfg, session, client, log)

	broker := notify.NewSSEBroker()
	sinks, webhook := buildSinks(cfg, broker, log)
	notifier, err := notify.NewNotifier(sinks,
		notify.WithDedupeWindow(cfg.Notices.DedupeWindow),
		notify.WithSendTimeout(cfg.Notices.SendTimeout),
		notify.WithLogger(logger.Component(log, "notices")),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("notifier")
	}

	store, err := notificationsapp.NewStore(client, session,
		notificationsapp.WithNoticeChannel(notifier),
		notificationsapp.WithLogger(logger.Component(log, "notifications")),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("notification store")
	}
	store.Init(ctx)
	poller, err := notificationsapp.StartPolling(store, session, cfg.PollInterval,
		notificationsapp.WithPollLogger(logger.Component(log, "poller")),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("notification poller")
	}

	dashboard, err := analyticsapp.NewDashboardService(client,
		analyticsapp.WithLocation(loc),
		analyticsapp.WithCurrency(cfg.Currency),
		analyticsapp.WithTopProducts(cfg.TopProducts),
		analyticsapp.WithCache(analyticsmemory.NewReportCache(statistic.SystemClock{}, 0), cfg.CacheTTL),
		analyticsapp.WithLogger(logger.Component(log, "dashboard")),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("dashboard service")
	}
	dashboardHandler, err := analyticsinterfaces.NewDashboardHandler(dashboard,
		analyticsinterfaces.WithAudit(auditLog),
		analyticsinterfaces.WithHandlerLogger(logger.Component(log, "dashboard")),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("dashboard handler")
	}
	notificationHandler, err := notificationshttp.NewHandler(store,
		notificationshttp.WithPublisher(client),
		notificationshttp.WithAudit(auditLog),
		notificationshttp.WithLogger(logger.Component(log, "notifications")),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("notification handler")
	}
	orderHandler, err := apihttp.NewOrderHandler(client, logger.Component(log, "orders"))
	if err != nil {
		log.Fatal().Err(err).Msg("order handler")
	}
	sessionOpts := []apihttp.SessionOption{
		apihttp.WithNotificationInit(store),
		apihttp.WithSessionAudit(auditLog),
		apihttp.WithSessionLogger(logger.Component(log, "session")),
	}
	if cfg.AuthEnabled() {
		sessionOpts = append(sessionOpts, apihttp.WithDashboardToken([]byte(cfg.JWTSecret), cfg.SessionTTL))
	}
	sessionHandler, err := apihttp.NewSessionHandler(client, session, sessionOpts...)
	if err != nil {
		log.Fatal().Err(err).Msg("session handler")
	}

	serverCfg := apihttp.Config{
		Addr:          cfg.HTTPAddr,
		Log:           log,
		CORSOrigins:   cfg.CORSOrigins,
		Session:       sessionHandler,
		Status:        apihttp.NewStatusHandler(client, session, store),
		Dashboard:     dashboardHandler,
		Orders:        orderHandler,
		Notifications: notificationHandler,
		NoticeStream:  notify.NewStreamHandler(broker),
	}
	if auditReader != nil {
		serverCfg.Audit = apihttp.NewAuditHandler(auditReader)
	}
	if cfg.AuthEnabled() {
		policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics"}, nil)
		serverCfg.Auth = auth.NewMiddleware([]byte(cfg.JWTSecret), policy)
	} else {
		log.Warn().Msg("AUTH_JWT_SECRET not set; dashboard api is unauthenticated")
	}
	server := apihttp.New(serverCfg)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("http server stopped")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := poller.Stop(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("stop poller")
	}
	store.Close()
	broker.Close()
	if webhook != nil {
		if err := webhook.Close(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("drain notice webhook")
		}
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("http shutdown")
	}
	log.Info().Msg("stopped")
}

// openAudit connects the audit database when configured. Without one, audit
// entries are discarded and the audit listing is not served.
func openAudit(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*sql.DB, audit.Logger, *audit.Repository) {
	if cfg.DatabaseURL == "" {
		log.Info().Msg("DATABASE_URL not set; audit log disabled")
		return nil, audit.NopLogger{}, nil
	}
	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("db open")
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		log.Fatal().Err(err).Msg("db ping")
	}
	repo := audit.NewRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		log.Fatal().Err(err).Msg("audit schema")
	}
	return db, repo, repo
}

// openSession seeds the admin session from a static token or configured credentials.
func openSession(ctx context.Context, cfg *config.Config, session *auth.Session, client *adminapi.Client, log zerolog.Logger) {
	switch {
	case cfg.AdminAPI.Token != "":
		if err := session.Set(cfg.AdminAPI.Token); err != nil {
			log.Warn().Err(err).Msg("ADMIN_API_TOKEN rejected")
		}
	case cfg.Admin.Email != "":
		loginCtx, cancel := context.WithTimeout(ctx, cfg.AdminAPI.Timeout)
		defer cancel()
		result, err := client.Login(loginCtx, cfg.Admin.Email, cfg.Admin.Password)
		if err == nil {
			err = session.Set(result.Token)
		}
		if err != nil {
			log.Warn().Err(err).Str("email", cfg.Admin.Email).Msg("startup login failed")
			return
		}
		log.Info().Str("email", cfg.Admin.Email).Msg("admin session opened")
	default:
		log.Info().Msg("no admin credentials configured; waiting for login")
	}
}

// buildSinks returns the notice fan-out and, when configured, the queued
// webhook that must be drained on shutdown.
func buildSinks(cfg *config.Config, broker *notify.SSEBroker, log zerolog.Logger) (notify.Sink, *notify.AsyncSink) {
	sinks := []notify.Sink{notify.NewLogSink(logger.Component(log, "notices")), broker}
	if cfg.Notices.WebhookURL == "" {
		return notify.NewMultiSink(sinks...), nil
	}
	opts := []notify.WebhookOption{}
	if cfg.Notices.Template != "" {
		tpl, err := notify.NewTemplate(cfg.Notices.Template)
		if err != nil {
			log.Fatal().Err(err).Msg("notice template")
		}
		opts = append(opts, notify.WithWebhookTemplate(tpl))
	}
	if len(cfg.Notices.WebhookLevels) > 0 {
		levels := make([]notify.Level, 0, len(cfg.Notices.WebhookLevels))
		for _, l := range cfg.Notices.WebhookLevels {
			levels = append(levels, notify.Level(l))
		}
		opts = append(opts, notify.WithWebhookLevels(levels...))
	}
	webhook, err := notify.NewWebhookSink(cfg.Notices.WebhookURL, opts...)
	if err != nil {
		log.Fatal().Err(err).Msg("notice webhook")
	}
	queued, err := notify.NewAsyncSink(webhook, 64, cfg.Notices.SendTimeout, logger.Component(log, "notices"))
	if err != nil {
		log.Fatal().Err(err).Msg("notice webhook queue")
	}
	return notify.NewMultiSink(append(sinks, queued)...), queued
}
