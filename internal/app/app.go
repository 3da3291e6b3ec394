package app

import (
	"context"
	"fmt"

	"github.com/semmidev/argus/internal/adapter/database"
	"github.com/semmidev/argus/internal/adapter/storage"
	"github.com/semmidev/argus/internal/archive"
	"github.com/semmidev/argus/internal/config"
	"github.com/semmidev/argus/internal/domain"
	"github.com/semmidev/argus/internal/infrastructure/logger"
	"github.com/semmidev/argus/internal/infrastructure/scheduler"
	"github.com/semmidev/argus/internal/usecase"
)

const cleanupSchedule = "0 0 3 * * *"

type App struct {
	Config  *config.Config
	Logger  *logger.Logger
	Manager *usecase.Manager
	Local   *storage.Local
}

func New(cfg *config.Config) (*App, error) {
	log, err := logger.New(cfg.App.LogLevel, cfg.App.LogFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	local, err := storage.NewLocal(cfg.Backup.LocalPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize local storage: %w", err)
	}

	sources, err := buildSources(cfg)
	if err != nil {
		return nil, err
	}
	log.Infof("Found %d enabled source(s)", len(sources))

	targets, notifier, err := buildTargets(cfg, log)
	if err != nil {
		return nil, err
	}

	manager := usecase.NewManager(
		sources,
		local,
		targets,
		archive.NewBuilder(),
		notifier,
		log,
		cfg.Backup,
		cfg.LocalRetention(),
	)

	return &App{
		Config:  cfg,
		Logger:  log,
		Manager: manager,
		Local:   local,
	}, nil
}

func buildSources(cfg *config.Config) ([]domain.Source, error) {
	var sources []domain.Source
	for i := range cfg.Sources {
		if !cfg.Sources[i].Enabled {
			continue
		}
		src, err := buildSource(&cfg.Sources[i])
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	return sources, nil
}

func buildSource(spec *config.SourceSpec) (domain.Source, error) {
	switch spec.Kind {
	case "postgresql":
		return database.NewPostgreSQL(spec), nil
	case "mysql":
		return database.NewMySQL(spec), nil
	case "mongodb":
		return database.NewMongoDB(spec), nil
	default:
		return nil, fmt.Errorf("unsupported source kind: %s", spec.Kind)
	}
}

// buildTargets wires delivery targets and the notifier. Adapters are only
// constructed for enabled targets; disabled ones stay in the binding list
// so their deliveries are reported as skipped. A telegram target becomes
// the notifier and joins the delivery set only when send_file is on.
func buildTargets(cfg *config.Config, log *logger.Logger) ([]usecase.TargetBinding, domain.Notifier, error) {
	var bindings []usecase.TargetBinding
	var notifier domain.Notifier

	for i := range cfg.Targets {
		spec := &cfg.Targets[i]

		if spec.Kind == "local" {
			// The backup directory is always an enabled target.
			continue
		}

		if spec.Kind == "telegram" {
			if !spec.Enabled {
				continue
			}
			tg, err := storage.NewTelegram(spec)
			if err != nil {
				return nil, nil, fmt.Errorf("failed to initialize telegram target %s: %w", spec.ID, err)
			}
			notifier = tg
			log.Infof("Telegram notifications enabled (target: %s)", spec.ID)
			if spec.SendFile {
				bindings = append(bindings, usecase.TargetBinding{ID: spec.ID, Target: tg, Enabled: true})
			}
			continue
		}

		if !spec.Enabled {
			bindings = append(bindings, usecase.TargetBinding{ID: spec.ID})
			continue
		}

		var target domain.Target
		var err error
		switch spec.Kind {
		case "ftp":
			target = storage.NewFTP(spec)
		case "s3":
			target, err = storage.NewS3(spec)
		case "gdrive":
			target, err = storage.NewGDrive(spec)
		default:
			err = fmt.Errorf("unsupported kind %q", spec.Kind)
		}
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize target %s: %w", spec.ID, err)
		}

		log.Infof("Target enabled: %s (%s)", spec.ID, spec.Kind)
		bindings = append(bindings, usecase.TargetBinding{ID: spec.ID, Target: target, Enabled: true})
	}

	return bindings, notifier, nil
}

// Restore rebuilds one database from an artifact. The database name can be
// overridden to restore into a different database than the one backed up.
func (a *App) Restore(ctx context.Context, artifactPath, sourceID, databaseOverride string) error {
	spec, ok := a.Config.FindSource(sourceID)
	if !ok {
		return fmt.Errorf("unknown source: %s", sourceID)
	}

	resolved := *spec
	if databaseOverride != "" {
		resolved.Database = databaseOverride
		a.Logger.Infof("[%s] Restoring into database %s", sourceID, databaseOverride)
	}

	src, err := buildSource(&resolved)
	if err != nil {
		return err
	}

	return a.Manager.Restore(ctx, src, artifactPath)
}

// RunDaemon schedules per-source backups plus a daily retention pass and
// blocks until the context is cancelled.
func (a *App) RunDaemon(ctx context.Context) error {
	sched := scheduler.New(a.Logger)

	scheduled := 0
	for _, spec := range a.Config.EnabledSources() {
		if spec.Schedule == "" {
			a.Logger.Warnf("Source %s has no schedule, skipping in daemon mode", spec.ID)
			continue
		}

		id := spec.ID
		err := sched.AddJob("backup "+id, spec.Schedule, func(ctx context.Context) error {
			results, err := a.Manager.Run(ctx, id)
			if err != nil {
				return err
			}
			if code := usecase.ExitCode(results); code != usecase.ExitOK {
				return fmt.Errorf("backup of %s finished with status code %d", id, code)
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to schedule backup for %s: %w", id, err)
		}
		scheduled++
		a.Logger.Infof("Scheduled backup for %s: %s", id, spec.Schedule)
	}

	if scheduled == 0 {
		return fmt.Errorf("no sources with a schedule configured")
	}

	if err := sched.AddJob("retention", cleanupSchedule, func(ctx context.Context) error {
		a.Manager.PruneAll(ctx)
		return nil
	}); err != nil {
		return fmt.Errorf("failed to schedule retention: %w", err)
	}

	sched.Start()
	a.Logger.Infof("Scheduler started with %d backup job(s)", scheduled)

	<-ctx.Done()
	sched.Stop()
	return nil
}

func (a *App) Shutdown() {
	a.Logger.Close()
}
