package application

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/psds-microservice/helpy/paths"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/sst-resolve/resolve-bot/internal/catalog"
	"github.com/sst-resolve/resolve-bot/internal/config"
	"github.com/sst-resolve/resolve-bot/internal/conversation"
	"github.com/sst-resolve/resolve-bot/internal/database"
	"github.com/sst-resolve/resolve-bot/internal/finalize"
	"github.com/sst-resolve/resolve-bot/internal/handler"
	"github.com/sst-resolve/resolve-bot/internal/kafka"
	"github.com/sst-resolve/resolve-bot/internal/messaging"
	"github.com/sst-resolve/resolve-bot/internal/metrics"
	"github.com/sst-resolve/resolve-bot/internal/notify"
	"github.com/sst-resolve/resolve-bot/internal/router"
	"github.com/sst-resolve/resolve-bot/internal/service"
	"github.com/sst-resolve/resolve-bot/internal/session"
)

const (
	sessionKeyPrefix      = "resolve:session:"
	registrationKeyPrefix = "resolve:registration:"
)

// API приложение: HTTP сервер с вебхуком бота и админским API (режим api).
type API struct {
	cfg      *config.Config
	log      *zap.Logger
	httpSrv  *http.Server
	producer *kafka.Producer
	redis    *redis.Client
}

// NewAPI применяет миграции, подключает зависимости и собирает роутер.
func NewAPI(cfg *config.Config, log *zap.Logger) (*API, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := database.MigrateUp(cfg.DatabaseURL(), log); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	db, err := database.Open(cfg.DSN(), log)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	a := &API{cfg: cfg, log: log}
	checks := map[string]handler.Pinger{"database": dbPinger(db)}

	sessions, progress, err := a.stores()
	if err != nil {
		return nil, err
	}
	if a.redis != nil {
		checks["redis"] = func(ctx context.Context) error { return a.redis.Ping(ctx).Err() }
	}

	m := metrics.Global()
	tickets := service.NewTicketService(db)
	students := service.NewStudentService(db)
	a.producer = kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopicTicket, log.Named("kafka"))

	poster := notify.NewSlackPoster(cfg.Slack.BotToken, cfg.Slack.APIURL)
	if !poster.Enabled() {
		log.Warn("SLACK_BOT_TOKEN not set; channel notifications are skipped")
	}
	var mailer finalize.Mailer
	if cfg.SMTPEnabled() {
		mailer = notify.NewSMTPMailer(notify.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Secure:   cfg.SMTP.Secure,
			User:     cfg.SMTP.User,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		})
	} else {
		log.Warn("SMTP credentials not set; ticket emails are skipped")
	}

	finalizer := finalize.New(finalize.Deps{
		Tickets:  tickets,
		Students: students,
		Channels: catalog.Channels{
			catalog.Hostel:  cfg.Slack.HostelChannel,
			catalog.College: cfg.Slack.CollegeChannel,
		},
		Poster:  poster,
		Mailer:  mailer,
		Events:  a.producer,
		Metrics: m,
		Log:     log.Named("finalize"),
	})

	sender := messaging.NewTwilioSender(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.From, log.Named("twilio"))
	if !sender.Enabled() {
		log.Warn("Twilio credentials not set; replies are only logged")
	}
	bot := conversation.NewBot(conversation.Deps{
		Students:     students,
		Sessions:     sessions,
		Registration: progress,
		Finalizer:    finalizer,
		Sender:       sender,
		Metrics:      m,
		Log:          log.Named("bot"),
	})

	h := router.New(router.Handlers{
		Health:       handler.NewHealthHandler(checks),
		Webhook:      handler.NewWebhookHandler(bot, log.Named("webhook")),
		Tickets:      handler.NewTicketHandler(tickets, a.producer),
		Students:     handler.NewStudentHandler(students),
		SlackActions: handler.NewSlackActionsHandler(tickets, a.producer, cfg.Slack.SigningSecret, log.Named("slack")),
	}, log.Named("http"))

	a.httpSrv = &http.Server{
		Addr:              cfg.Addr(),
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return a, nil
}

// stores выбирает хранилище сессий: память процесса или redis (переживает рестарт, общий для реплик).
func (a *API) stores() (session.Store[session.Session], session.Store[session.RegistrationField], error) {
	if a.cfg.Session.Backend != "redis" {
		a.log.Info("sessions: in-memory store")
		return session.NewMemoryStore[session.Session](), session.NewMemoryStore[session.RegistrationField](), nil
	}
	a.redis = redis.NewClient(&redis.Options{
		Addr:     a.cfg.Session.RedisAddr,
		Password: a.cfg.Session.RedisPassword,
		DB:       a.cfg.Session.RedisDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.redis.Ping(ctx).Err(); err != nil {
		_ = a.redis.Close()
		return nil, nil, fmt.Errorf("redis %s: %w", a.cfg.Session.RedisAddr, err)
	}
	a.log.Info("sessions: redis store", zap.String("addr", a.cfg.Session.RedisAddr), zap.Duration("ttl", a.cfg.Session.TTL))
	return session.NewRedisStore[session.Session](a.redis, sessionKeyPrefix, a.cfg.Session.TTL),
		session.NewRedisStore[session.RegistrationField](a.redis, registrationKeyPrefix, a.cfg.Session.TTL),
		nil
}

func dbPinger(db *gorm.DB) handler.Pinger {
	return func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}

// Run запускает HTTP сервер, блокируется до отмены ctx.
func (a *API) Run(ctx context.Context) error {
	host := a.cfg.AppHost
	if host == "0.0.0.0" {
		host = "localhost"
	}
	base := "http://" + host + ":" + a.cfg.HTTPPort
	a.log.Info("HTTP server listening",
		zap.String("addr", a.httpSrv.Addr),
		zap.String("webhook", base+router.PathWebhook),
		zap.String("slack_actions", base+router.PathSlackActions),
		zap.String("swagger", base+paths.PathSwagger),
		zap.String("health", base+paths.PathHealth),
		zap.String("metrics", base+router.PathMetrics),
	)

	errCh := make(chan error, 1)
	go func() {
		if err := a.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			runErr = fmt.Errorf("http: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.httpSrv.Shutdown(shutdownCtx); err != nil && runErr == nil {
		runErr = fmt.Errorf("http shutdown: %w", err)
	}
	if err := a.producer.Close(); err != nil {
		a.log.Warn("kafka close", zap.Error(err))
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	return runErr
}
