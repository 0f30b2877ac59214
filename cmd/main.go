package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"parsfix/api/handler"
	apiMiddleware "parsfix/api/middleware"
	"parsfix/api/routes"
	"parsfix/config"
	"parsfix/internal/dto"
	"parsfix/internal/repository"
	"parsfix/internal/service"
	"parsfix/internal/utils"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		accountRepo  repository.AccountRepository
		securityRepo repository.SecurityLogRepository
		revocations  service.RevocationStore
	)
	if cfg.DatabaseURL != "" {
		db, err := config.ConnectDatabase(cfg, logger)
		if err != nil {
			logger.WithError(err).Fatal("database unavailable")
		}
		accountRepo = repository.NewAccountRepository(db)
		securityRepo = repository.NewSecurityLogRepository(db)
	} else {
		logger.Warn("DATABASE_URL not set, accounts are kept in memory")
		accountRepo = repository.NewMemoryAccountRepository()
		securityRepo = repository.NewMemorySecurityLogRepository()
	}
	if cfg.RedisURL != "" {
		client, err := config.ConnectRedis(ctx, cfg, logger)
		if err != nil {
			logger.WithError(err).Fatal("redis unavailable")
		}
		defer client.Close()
		revocations = repository.NewRedisRevocationStore(client)
	} else {
		revocations = repository.NewMemoryRevocationStore()
	}

	codec := &utils.TokenCodec{
		Secret: []byte(cfg.JWTSecret),
		Issuer: cfg.JWTIssuer,
		TTL:    cfg.SessionTTL(),
	}
	sessions := service.JWTSessionIssuer{Codec: codec}

	var emailSender service.EmailSender
	if cfg.ResendAPIKey != "" {
		emailSender = service.NewResendEmailSender(cfg.ResendAPIKey, cfg.MailFrom, cfg.AppBaseURL)
	} else {
		logger.Warn("RESEND_API_KEY not set, activation emails are not delivered")
	}

	var verifier service.IdentityVerifier
	if cfg.GoogleClientID != "" {
		jwks, err := service.LoadGoogleKeys(ctx, cfg.GoogleJWKSURL, logger)
		if err != nil {
			logger.WithError(err).Fatal("google sign-in unavailable")
		}
		verifier = service.NewGoogleIdentityVerifier(cfg.GoogleClientID, jwks.Keyfunc)
	}

	accountService := service.NewAccountService(
		accountRepo,
		securityRepo,
		revocations,
		emailSender,
		service.BcryptPasswordHasher{Cost: service.DefaultBcryptCost},
		sessions,
		service.NewHOTPCodeGenerator(),
		service.RealClock{},
		logger,
		service.AuthConfig{
			ActivationCodeTTL:     cfg.ActivationCodeTTL(),
			ActivationMaxAttempts: cfg.ActivationMaxAttempts,
		},
	)
	identityService := service.NewIdentityService(accountRepo, securityRepo, verifier, sessions, logger)
	adminService := service.NewAdminService(accountRepo, securityRepo, logger)
	authenticator := service.NewSessionAuthenticator(codec, accountRepo, revocations, logger)

	validate := dto.NewValidator()
	cookie := apiMiddleware.NewSessionCookie(cfg.CookieDomain, !cfg.IsDevelopment())

	app := echo.New()
	app.HideBanner = true
	app.HidePort = true
	app.HTTPErrorHandler = handler.ErrorResponder{Logger: logger, Development: cfg.IsDevelopment()}.Handle
	app.Use(echoMiddleware.Recover())
	app.Use(echoMiddleware.RequestLoggerWithConfig(echoMiddleware.RequestLoggerConfig{
		LogStatus:   true,
		LogMethod:   true,
		LogURI:      true,
		LogRemoteIP: true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v echoMiddleware.RequestLoggerValues) error {
			entry := logger.WithFields(logrus.Fields{
				"status":  v.Status,
				"method":  v.Method,
				"uri":     v.URI,
				"ip":      v.RemoteIP,
				"latency": v.Latency.String(),
			})
			if v.Error != nil && v.Status >= http.StatusInternalServerError {
				entry.WithError(v.Error).Error("request")
				return nil
			}
			entry.Info("request")
			return nil
		},
	}))

	router := routes.NewRouter(
		app,
		handler.NewAuthHandler(accountService, identityService, codec, validate, cookie),
		handler.NewAdminHandler(adminService, validate),
		apiMiddleware.AuthMiddleware{Authenticator: authenticator, Cookie: cookie},
	)
	router.RegisterRoutes()

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.WithField("addr", cfg.HTTPAddr).Info("server started")
		if err := app.StartServer(server); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("server stopped")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("graceful shutdown failed")
	}
	logger.Info("server stopped")
}
