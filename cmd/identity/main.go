package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/tendant/chi-demo/app"
	dbutils "github.com/tendant/db-utils/db"

	"github.com/hirewire/identity/migrations"
	"github.com/hirewire/identity/pkg/account"
	"github.com/hirewire/identity/pkg/auth"
	"github.com/hirewire/identity/pkg/config"
	"github.com/hirewire/identity/pkg/interests"
	"github.com/hirewire/identity/pkg/notice"
	"github.com/hirewire/identity/pkg/notification"
	"github.com/hirewire/identity/pkg/otp"
	"github.com/hirewire/identity/pkg/password"
	"github.com/hirewire/identity/pkg/ratelimit"
	"github.com/hirewire/identity/pkg/token"
)

type Config struct {
	DbConfig      config.DbConfig
	JwtConfig     config.JwtConfig
	EmailConfig   config.EmailConfig
	ServiceConfig config.ServiceConfig
	AppConfig     app.AppConfig
}

func main() {

	cfg := Config{}
	cleanenv.ReadEnv(&cfg)

	server := app.DefaultApp()

	app.RoutesHealthz(server.R)
	app.RoutesHealthzReady(server.R)

	dbConfig := cfg.DbConfig.ToDbConfig()
	pool, err := dbutils.NewDbPool(context.Background(), dbConfig)
	if err != nil {
		slog.Error("Failed creating dbpool", "db", dbConfig.Database, "host", dbConfig.Host, "port", dbConfig.Port, "user", dbConfig.User)
		os.Exit(-1)
	}

	if cfg.ServiceConfig.RunMigration {
		db := stdlib.OpenDBFromPool(pool)
		if err := migrations.Run(context.Background(), db); err != nil {
			slog.Error("Failed running migrations", "err", err)
			os.Exit(-1)
		}
		if err := db.Close(); err != nil {
			slog.Error("Failed closing migration connection", "err", err)
		}
	}

	notificationManager, err := notice.NewNotificationManager(notification.SMTPConfig{
		Host:     cfg.EmailConfig.Host,
		Port:     cfg.EmailConfig.Port,
		TLS:      cfg.EmailConfig.TLS,
		Username: cfg.EmailConfig.Username,
		Password: cfg.EmailConfig.Password,
		From:     cfg.EmailConfig.From,
	})
	if err != nil {
		slog.Error("Failed creating notification manager", "err", err)
		os.Exit(-1)
	}

	tokenService := token.NewService(cfg.JwtConfig.Secret, cfg.JwtConfig.Issuer, cfg.JwtConfig.Audience)
	accountRepo := account.NewPostgresRepository(pool)
	otpService := otp.NewService(otp.NewPostgresRepository(pool))
	interestsService := interests.NewService(interests.NewPostgresRepository(pool))

	authService := auth.NewService(
		accountRepo,
		otpService,
		tokenService,
		auth.NewPostgresResetTokenRepository(pool),
		password.NewBcryptHasher(cfg.ServiceConfig.BcryptCost),
		notificationManager,
		auth.WithInterests(interestsService),
		auth.WithBaseURL(cfg.ServiceConfig.BaseURL),
	)

	middleware := auth.NewMiddleware(tokenService, accountRepo)
	limiter := ratelimit.NewLimiter(cfg.ServiceConfig.RateLimitBurst, cfg.ServiceConfig.RateLimitPerSecond, time.Hour)
	handleOpts := []auth.HandleOption{auth.WithRateLimiter(limiter)}
	if cfg.ServiceConfig.TrustProxyHeaders {
		handleOpts = append(handleOpts, auth.WithTrustedProxy())
	}
	handle := auth.NewHandle(authService, interestsService, middleware, handleOpts...)

	server.R.Mount("/api/v1", handle.Routes())

	server.Run()

}
