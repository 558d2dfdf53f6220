package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/alumni-connect-api/internal/dto"
	"github.com/noah-isme/alumni-connect-api/internal/handler"
	"github.com/noah-isme/alumni-connect-api/internal/repository"
	"github.com/noah-isme/alumni-connect-api/internal/service"
	"github.com/noah-isme/alumni-connect-api/pkg/cache"
	"github.com/noah-isme/alumni-connect-api/pkg/config"
	"github.com/noah-isme/alumni-connect-api/pkg/database"
	"github.com/noah-isme/alumni-connect-api/pkg/export"
	"github.com/noah-isme/alumni-connect-api/pkg/jobs"
	"github.com/noah-isme/alumni-connect-api/pkg/logger"
	"github.com/noah-isme/alumni-connect-api/pkg/mailer"
)

// @title Alumni Connect API
// @version 1.0.0
// @description Session requests, eligibility-gated sessions, attendance and notifications for an alumni engagement platform
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Fatal("failed to connect redis", zap.Error(err), zap.String("addr", cache.Addr(cfg.Redis)))
	}
	defer redisClient.Close() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := build(ctx, cfg, logr, db, redisClient)
	defer app.stopQueues()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           newRouter(cfg, logr, app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "prefix", cfg.APIPrefix)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

// application holds the wired collaborators shared by the router.
type application struct {
	metrics       *service.MetricsService
	audit         *repository.AuditRepository
	auth          *service.AuthService
	sessions      *service.SessionService
	attendance    *service.AttendanceService
	notifications *service.NotificationService
	health        map[string]handler.Pinger
	queues        []*jobs.Queue
}

func (a *application) stopQueues() {
	for _, q := range a.queues {
		q.Stop()
	}
}

func build(ctx context.Context, cfg *config.Config, logr *zap.Logger, db *sqlx.DB, redisClient *redis.Client) *application {
	validate := dto.NewValidator()
	metrics := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	rateLimits := repository.NewRateLimitRepository(redisClient)

	// Queue handlers close over services that need the queue at construction.
	var (
		notifications *service.NotificationService
		refresher     *service.StatusRefresher
		emails        *service.EmailService
	)

	notifyQueue := jobs.NewQueue("notifications", func(ctx context.Context, job jobs.Job) error {
		return notifications.Handle(ctx, job)
	}, jobs.QueueConfig{
		Workers:    cfg.Notifications.Workers,
		BufferSize: cfg.Notifications.BufferSize,
		MaxRetries: cfg.Notifications.Retries,
		RetryDelay: cfg.Notifications.RetryDelay,
		Logger:     logr,
		OnExhausted: func(job jobs.Job, err error) {
			notifications.OnExhausted(job, err)
		},
	})
	statusQueue := jobs.NewQueue("session-status", func(ctx context.Context, job jobs.Job) error {
		return refresher.Handle(ctx, job)
	}, jobs.QueueConfig{
		Workers:    cfg.Sessions.StatusRefreshWorkers,
		MaxRetries: cfg.Sessions.StatusRefreshRetries,
		Logger:     logr,
	})
	emailQueue := jobs.NewQueue("email", func(ctx context.Context, job jobs.Job) error {
		return emails.Handle(ctx, job)
	}, jobs.QueueConfig{
		Workers:    cfg.Email.Workers,
		MaxRetries: cfg.Email.SendRetries,
		Logger:     logr,
		OnExhausted: func(job jobs.Job, err error) {
			logr.Warn("email dropped after retries", zap.String("job_id", job.ID), zap.Error(err))
		},
	})

	notifications = service.NewNotificationService(notificationRepo, notifyQueue, logr,
		service.WithNotificationMetrics(metrics))
	refresher = service.NewStatusRefresher(sessionRepo, statusQueue, cfg.Sessions.Location(), logr,
		service.WithStatusMetrics(metrics))

	var outbound mailer.Mailer = mailer.Nop{}
	if cfg.Email.Enabled {
		outbound = mailer.NewRateLimited(
			mailer.NewLogMailer(cfg.Email.From, logr),
			rateLimits, cfg.Email.RateLimit, cfg.Email.RateWindow, logr,
			mailer.WithDropHook(metrics.RecordEmailDropped),
		)
	}
	emails = service.NewEmailService(outbound, emailQueue, logr)

	sessions := service.NewSessionService(sessionRepo, userRepo, refresher, validate, logr,
		service.WithSessionNotifier(notifications),
		service.WithSessionEmail(emails),
		service.WithSessionAudit(auditRepo),
		service.WithSessionLinkBase(cfg.Sessions.FrontendBaseURL),
	)
	attendance := service.NewAttendanceService(attendanceRepo, sessionRepo, userRepo, refresher,
		export.DefaultRegistry(), validate, logr)
	auth := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
		LoginAttempts:     cfg.Auth.LoginAttempts,
		LoginWindow:       cfg.Auth.LoginWindow,
	}, service.WithAuthAudit(auditRepo), service.WithLoginLimiter(rateLimits))

	queues := []*jobs.Queue{notifyQueue, statusQueue, emailQueue}
	for _, q := range queues {
		q.Start(ctx)
	}

	return &application{
		metrics:       metrics,
		audit:         auditRepo,
		auth:          auth,
		sessions:      sessions,
		attendance:    attendance,
		notifications: notifications,
		health: map[string]handler.Pinger{
			"database": db,
			"redis": handler.PingFunc(func(ctx context.Context) error {
				return redisClient.Ping(ctx).Err()
			}),
		},
		queues: queues,
	}
}
