package main

import (
	"context"
	"fmt"

	"github.com/google/logger"

	"github.com/atmosgear/skate-league/internal/catalog"
	"github.com/atmosgear/skate-league/internal/config"
	"github.com/atmosgear/skate-league/internal/database"
	"github.com/atmosgear/skate-league/internal/email"
	"github.com/atmosgear/skate-league/internal/payment"
	"github.com/atmosgear/skate-league/internal/repository"
	"github.com/atmosgear/skate-league/internal/service"
)

// openStore connects the configured participant store. With migrate set, the
// schema is brought up to date first. The returned func releases the store.
func openStore(ctx context.Context, cfg *config.Config, migrate bool) (service.ParticipantStore, func(), error) {
	switch cfg.Database.Driver {
	case database.DriverSQLite:
		gdb, err := database.OpenSQLite(cfg.Database.SQLitePath, verbose)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if sqlDB, err := gdb.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}
		repo := repository.NewGormParticipantRepository(gdb)
		if migrate {
			if err := repo.AutoMigrate(); err != nil {
				closeFn()
				return nil, nil, err
			}
		}
		logger.Infof("using sqlite store at %s", cfg.Database.SQLitePath)
		return repo, closeFn, nil

	default:
		pool, err := database.NewPool(ctx, cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		if migrate {
			if err := database.Migrate(ctx, pool); err != nil {
				pool.Close()
				return nil, nil, err
			}
		}
		logger.Info("connected to PostgreSQL")
		return repository.NewPostgresParticipantRepository(pool), pool.Close, nil
	}
}

// newService wires the registration service from cfg and an open store.
func newService(cfg *config.Config, store service.ParticipantStore) (*service.RegistrationService, error) {
	events, err := catalog.Load(cfg.EventsFile)
	if err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}

	payments := payment.NewStripeProcessor(cfg.StripeSecretKey, cfg.Currency, cfg.PaymentProduct, nil)

	var mailer email.Sender
	if cfg.EmailEnabled() {
		mailer = email.NewBrevoClient(cfg.BrevoAPIKey, cfg.BrevoAPIURL, cfg.BrevoTemplateID)
	} else {
		logger.Warning("BREVO_API_KEY not set, confirmation emails are disabled")
	}

	return service.NewRegistrationService(store, payments, mailer, events, service.Options{
		EventFee:     cfg.EventFee,
		Currency:     cfg.Currency,
		EmailTimeout: cfg.EmailTimeout,
	}), nil
}
