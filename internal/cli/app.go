package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"registrar/internal/config"
	"registrar/internal/core"
	"registrar/internal/logging"
	"registrar/internal/seed"
	"registrar/pkg/domain"
)

// app bundles what every command needs.
type app struct {
	cfg     *config.Config
	zap     *zap.Logger
	logger  logging.Adapter
	store   core.PersistentStore
	svc     *core.Service
	metrics *core.PrometheusMetricsRecorder
	audit   *core.MemoryAuditLog
	out     *renderer
}

func newApp(ctx context.Context, cmd *cobra.Command, cfgFile string) (*app, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, err
	}
	zl, err := logging.New(cmd.ErrOrStderr(), logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		return nil, err
	}
	logger := logging.NewAdapter(zl)

	policy, err := domain.ParseDeletePolicy(cfg.DeletePolicy)
	if err != nil {
		return nil, err
	}
	var extra []domain.Rule
	if cfg.UniqueNames {
		extra = append(extra, core.UniqueNamesRule())
	}
	store, err := core.OpenPersistentStore(ctx, core.StorageConfig{
		Driver:       core.StorageDriver(cfg.Storage.Driver),
		SQLitePath:   cfg.Storage.SQLitePath,
		PostgresDSN:  cfg.Storage.PostgresDSN,
		DeletePolicy: policy,
	}, core.NewDefaultRulesEngine(extra...))
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Storage.Driver, err)
	}

	metrics := core.NewPrometheusMetricsRecorder("")
	expvars := core.NewExpvarMetricsRecorder("")
	audit := core.NewMemoryAuditLog(256)
	opts := []core.ServiceOption{
		core.WithLogger(logger),
		core.WithMetricsRecorder(core.MultiMetricsRecorder{metrics, expvars}),
		core.WithAuditRecorder(audit),
	}
	if trace, _ := cmd.Flags().GetBool("trace"); trace {
		opts = append(opts, core.WithTracer(core.NewJSONTracer(cmd.ErrOrStderr())))
	}
	svc := core.NewService(store, opts...)
	a := &app{
		cfg:     cfg,
		zap:     zl,
		logger:  logger,
		store:   store,
		svc:     svc,
		metrics: metrics,
		audit:   audit,
		out:     newRenderer(cmd.OutOrStdout(), cfg.Output),
	}

	if cfg.Seed.Auto && cmd.Annotations[manualSeed] == "" {
		if err := a.seed(ctx, cfg.Seed.File); err != nil {
			return nil, errors.Join(err, a.Close())
		}
	}
	logger.Debug("registrar ready", "storage", cfg.Storage.Driver, "delete_policy", string(policy))
	return a, nil
}

// seed loads the fixture at path, or the built-in one, into an empty store.
func (a *app) seed(ctx context.Context, path string) error {
	fx := seed.Default()
	if path != "" {
		var err error
		if fx, err = seed.LoadFile(path); err != nil {
			return err
		}
	}
	sum, err := seed.Apply(ctx, a.store, fx)
	if err != nil {
		return err
	}
	if sum.Applied {
		a.logger.Info("seeded store", "students", sum.Students, "courses", sum.Courses, "enrollments", sum.Enrollments)
	}
	return nil
}

// Close releases the store and flushes the logger.
func (a *app) Close() error {
	err := core.CloseStore(a.store)
	_ = a.zap.Sync()
	return err
}
