package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-guias-backend/internal/carrier"
	"github.com/tbourn/go-guias-backend/internal/config"
	"github.com/tbourn/go-guias-backend/internal/manifest"
	"github.com/tbourn/go-guias-backend/internal/repo"
	"github.com/tbourn/go-guias-backend/internal/services"
)

// backend is the store and service a command works against.
type backend struct {
	db      *gorm.DB
	svc     *services.ScanService
	closers []func() error
}

// openBackend opens the record store and builds the scan service from
// configuration: carrier rules, manifest logo and footer, and the optional
// Cloud Storage archive.
func (a *app) openBackend(ctx context.Context) (*backend, error) {
	cl, err := newClassifier(a.cfg.Carrier)
	if err != nil {
		return nil, err
	}
	logo, err := manifest.LoadLogo(a.cfg.Manifest.LogoPath)
	if err != nil {
		return nil, fmt.Errorf("manifest logo: %w", err)
	}

	db, err := repo.OpenDB(a.cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	b := &backend{db: db}
	if sqlDB, err := db.DB(); err == nil {
		b.closers = append(b.closers, sqlDB.Close)
	}
	purged, err := repo.PurgeIdempotency(ctx, db, time.Now().UTC())
	if err != nil {
		a.log.Warn().Err(err).Msg("purge expired idempotency records")
	}

	svc := services.NewScanService(repo.NewScanStore(db), cl)
	svc.Location = a.cfg.Location
	svc.StoreTimeout = a.cfg.DB.Timeout
	svc.MaxBatch = a.cfg.MaxBatch
	svc.Generator = &manifest.Generator{
		Logo: logo,
		Footer: manifest.Footer{
			Collector: a.cfg.Manifest.Collector,
			Plate:     a.cfg.Manifest.Plate,
		},
	}

	if bucket := a.cfg.Manifest.Bucket; bucket != "" {
		arch, err := manifest.NewGCSArchive(ctx, bucket, a.cfg.Manifest.BucketPrefix)
		if err != nil {
			_ = b.Close()
			return nil, fmt.Errorf("manifest archive: %w", err)
		}
		svc.Archive = arch
		b.closers = append(b.closers, arch.Close)
	}

	b.svc = svc
	a.log.Info().
		Str("db_driver", a.cfg.DB.Driver).
		Str("timezone", a.cfg.Timezone).
		Int("carrier_rules", len(cl.Rules())).
		Bool("logo", logo != nil).
		Bool("archive", svc.Archive != nil).
		Int64("idempotency_purged", purged).
		Msg("backend ready")
	return b, nil
}

// Close releases the archive client and the database handle.
func (b *backend) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// newClassifier builds the carrier classifier: the rules file replaces the
// built-in prefixes, and 99MINUTOS is appended last when enabled.
func newClassifier(cfg config.CarrierConfig) (*carrier.Classifier, error) {
	var opts []carrier.Option
	if cfg.RulesPath != "" {
		rules, err := carrier.LoadRules(cfg.RulesPath)
		if err != nil {
			return nil, fmt.Errorf("carrier rules: %w", err)
		}
		opts = append(opts, carrier.WithRules(rules))
	}
	if cfg.EnableMinutos {
		opts = append(opts, carrier.WithMinutos())
	}
	return carrier.NewClassifier(opts...), nil
}
