package cli

import (
	"fmt"

	"github.com/ppiankov/reporter/internal/archive"
	"github.com/ppiankov/reporter/internal/cache"
	"github.com/ppiankov/reporter/internal/logger"
	"github.com/ppiankov/reporter/internal/model"
	"github.com/ppiankov/reporter/internal/pipeline"
)

// app holds what the commands share: config, logger and the service
type app struct {
	cfg     *model.Config
	log     *logger.Logger
	service *pipeline.Service
	archive *archive.Store
}

// newApp loads the configuration and builds the generation service
func newApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return nil, err
	}

	reg, err := pipeline.LoadRegistry(cfg.Templates)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, log: log}
	opts := []pipeline.Option{
		pipeline.WithLogger(log),
		pipeline.WithCache(cache.FromConfig(cfg.Cache)),
	}
	if cfg.Archive.Enabled {
		store, err := archive.Open(cfg.Archive.Path, cfg.Archive.MaxPayloads)
		if err != nil {
			return nil, fmt.Errorf("open archive: %w", err)
		}
		a.archive = store
		opts = append(opts, pipeline.WithArchive(store))
	}

	a.service = pipeline.NewService(cfg, reg, opts...)
	return a, nil
}

// Close releases the archive and flushes the logger
func (a *app) Close() {
	if a.archive != nil {
		if err := a.archive.Close(); err != nil {
			a.log.Warn("failed to close archive", "error", err)
		}
	}
	a.log.Sync()
}
