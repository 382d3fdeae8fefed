package migrate

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/posfront/pkg/config"
	"github.com/angelmondragon/posfront/pkg/db"
	"github.com/angelmondragon/posfront/pkg/logger"
)

// MaybeRunDev applies pending migrations at startup. It only acts in the dev
// environment with the auto-migrate flag on; everywhere else it is a no-op and
// migrations go through cmd/migrate.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if cfg == nil || !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}
	if client == nil {
		return fmt.Errorf("auto-migrate: database client is nil")
	}
	if logg == nil {
		logg = logger.Nop()
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}

	dialect := DialectFor(cfg)
	ctx = logg.WithFields(ctx, map[string]any{"dir": DefaultDir, "dialect": dialect})
	started := time.Now()
	if err := Run(ctx, sqlDB, dialect, DefaultDir, "up", nil); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	ctx = logg.WithField(ctx, "duration_ms", time.Since(started).Milliseconds())
	logg.Info(ctx, "migrate.autorun.done")
	return nil
}
