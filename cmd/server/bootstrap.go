package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/gin-gonic/gin"

	"github.com/bcastudynepal/portal/internal/api"
	"github.com/bcastudynepal/portal/internal/app"
	"github.com/bcastudynepal/portal/internal/app/maintenance"
	iauth "github.com/bcastudynepal/portal/internal/auth"
	"github.com/bcastudynepal/portal/internal/cache"
	"github.com/bcastudynepal/portal/internal/database"
	imail "github.com/bcastudynepal/portal/internal/mail"
	"github.com/bcastudynepal/portal/internal/middleware"
	"github.com/bcastudynepal/portal/pkg/logger"
	"github.com/bcastudynepal/portal/pkg/mail"
)

// runtimeStack bundles long-lived services used by the HTTP server.
type runtimeStack struct {
	DB         *gorm.DB
	Cache      *cache.MemoryStore
	SessionSvc *iauth.SessionService
	RegSvc     *iauth.RegistrationService
	ResetSvc   *iauth.PasswordResetService
	GmailStore *imail.CredentialStore
	GmailFlow  *imail.ConsentFlow
	Cleaner    *maintenance.Cleaner
	RateStore  middleware.RateStore
	Router     *gin.Engine
}

// bootstrapRuntime initialises the database, cache, services, and the HTTP router.
func bootstrapRuntime(_ context.Context, cfg *app.Config, log *zap.Logger) (*runtimeStack, error) {
	stack := &runtimeStack{}
	var err error
	success := false

	defer func() {
		if !success {
			stack.Shutdown(context.Background(), log)
		}
	}()

	if debug, _ := os.LookupEnv("GIN_DEBUG"); debug != "true" {
		gin.SetMode(gin.ReleaseMode)
	}

	stack.DB, err = initialiseDatabase(cfg)
	if err != nil {
		return nil, err
	}

	stack.Cache = cache.NewMemoryStore()

	jwtSvc, err := iauth.NewJWTService(cfg.Auth.JWTServiceConfig())
	if err != nil {
		return nil, fmt.Errorf("initialise jwt service: %w", err)
	}

	sessionCfg := cfg.Auth.SessionServiceConfig()
	sessionCfg.Cache = iauth.NewStoreSessionCache(stack.Cache)

	stack.SessionSvc, err = iauth.NewSessionService(stack.DB, jwtSvc, sessionCfg)
	if err != nil {
		return nil, fmt.Errorf("initialise session service: %w", err)
	}

	mailer, err := buildMailer(cfg, stack, log)
	if err != nil {
		return nil, err
	}

	regStore := iauth.NewRegistrationStore(cfg.Registration.StoreConfig())
	stack.RegSvc, err = iauth.NewRegistrationService(stack.DB, regStore, mailer, stack.SessionSvc, cfg.RegistrationServiceConfig())
	if err != nil {
		return nil, fmt.Errorf("initialise registration service: %w", err)
	}

	resetStore := iauth.NewPasswordResetStore(cfg.Registration.ResetStoreConfig())
	stack.ResetSvc, err = iauth.NewPasswordResetService(stack.DB, resetStore, mailer, cfg.PasswordResetServiceConfig())
	if err != nil {
		return nil, fmt.Errorf("initialise password reset service: %w", err)
	}

	stack.Cleaner = maintenance.NewCleaner(stack.SessionSvc, stack.RegSvc, stack.ResetSvc, stack.Cache,
		maintenance.WithSchedule(cfg.Maintenance.Schedule))
	if err := stack.Cleaner.Start(); err != nil {
		return nil, fmt.Errorf("start maintenance jobs: %w", err)
	}

	stack.RateStore = middleware.NewStoreRateStore(stack.Cache)

	stack.Router, err = api.NewRouter(api.Deps{
		DB:            stack.DB,
		Config:        cfg,
		JWT:           jwtSvc,
		Sessions:      stack.SessionSvc,
		Registrations: stack.RegSvc,
		Resets:        stack.ResetSvc,
		GmailFlow:     stack.GmailFlow,
		GmailStore:    stack.GmailStore,
		RateStore:     stack.RateStore,
	})
	if err != nil {
		return nil, fmt.Errorf("build api router: %w", err)
	}

	success = true
	return stack, nil
}

// buildMailer selects the outbound mail backend. The gmail provider also
// populates the credential store and consent flow on the stack so the admin
// consent endpoints can be mounted.
func buildMailer(cfg *app.Config, stack *runtimeStack, log *zap.Logger) (mail.Mailer, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Email.Provider)) {
	case "gmail":
		store, err := imail.NewCredentialStore(cfg.Email.GmailStoreConfig())
		if err != nil {
			return nil, fmt.Errorf("initialise gmail credential store: %w", err)
		}
		stack.GmailStore = store

		if cfg.Email.Gmail.ClientID != "" && cfg.Email.Gmail.ClientSecret != "" {
			flow, err := imail.NewConsentFlow(store, cfg.Email.GmailConsentConfig())
			if err != nil {
				return nil, fmt.Errorf("initialise gmail consent flow: %w", err)
			}
			stack.GmailFlow = flow
		} else {
			log.Warn("gmail provider selected without oauth client credentials; consent endpoints disabled")
		}

		mailer, err := imail.NewGmailMailer(store, cfg.Email.GmailMailerConfig())
		if err != nil {
			return nil, fmt.Errorf("initialise gmail mailer: %w", err)
		}
		return mailer, nil
	default:
		mailer, err := mail.NewSMTPMailer(cfg.Email.SMTPSettings())
		if err != nil {
			return nil, fmt.Errorf("initialise smtp mailer: %w", err)
		}
		if !cfg.Email.SMTP.Enabled {
			log.Warn("smtp delivery disabled; verification mails will not be sent")
		}
		return mailer, nil
	}
}

// Shutdown gracefully stops background jobs and releases resources.
func (s *runtimeStack) Shutdown(ctx context.Context, log *zap.Logger) {
	if s == nil {
		return
	}

	if s.Cleaner != nil {
		stopCtx := s.Cleaner.Stop()
		if stopCtx != nil {
			ctx = stopCtx
		}
		if err := s.Cleaner.RunOnce(ctx); err != nil {
			log.Warn("maintenance shutdown cleanup failed", zap.Error(err))
		}
	}

	if s.DB != nil {
		closeDatabase(s.DB, log)
	}
}

func initialiseDatabase(cfg *app.Config) (*gorm.DB, error) {
	dbCfg := cfg.Database.ServiceConfig()
	db, err := database.Open(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := database.AutoMigrateAndSeed(db); err != nil {
		return nil, fmt.Errorf("auto-migrate database: %w", err)
	}

	log := logger.WithModule("database")
	log.Info("database connected", zap.String("driver", strings.ToLower(strings.TrimSpace(dbCfg.Driver))))

	return db, nil
}

func closeDatabase(db *gorm.DB, log *zap.Logger) {
	if db == nil {
		return
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Warn("failed to obtain underlying sql DB for closing", zap.Error(err))
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.Warn("failed to close database", zap.Error(err))
	}
}
