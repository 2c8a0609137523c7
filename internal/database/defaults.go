package database

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/jask/planwizard/internal/database/repository"
)

// SeedDefaults ensures baseline local_state rows exist for new databases.
// It is idempotent and safe to run on every startup.
func SeedDefaults(ctx context.Context, db *sql.DB) error {
	state := repository.NewStateRepo(db)
	defaults := map[string]string{
		repository.KeyDebugMode:    "false",
		repository.KeyForcedLocale: "",
		repository.KeyInstallID:    uuid.NewString(),
	}
	for k, v := range defaults {
		if _, err := state.SetIfAbsent(ctx, k, v); err != nil {
			return err
		}
	}
	return nil
}
