package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jask/planwizard/internal/database"
	"github.com/jask/planwizard/internal/database/repository"
)

// MaintenanceService houses destructive/ops actions surfaced through the TUI and CLI.
type MaintenanceService struct {
	DB     *sql.DB
	Caches *repository.CacheRepo
}

// ClearCaches drops cached backend responses through the same path the
// version monitor purges with.
func (s *MaintenanceService) ClearCaches(ctx context.Context) (int64, error) {
	if s.Caches == nil {
		return 0, fmt.Errorf("maintenance: cache repo not configured")
	}
	n, err := s.Caches.Purge(ctx)
	if err != nil {
		return 0, fmt.Errorf("clear caches: %w", err)
	}
	return n, nil
}

// Reset wipes submissions and caches. Local preferences and the applied
// version are kept so the staleness check keeps working.
func (s *MaintenanceService) Reset(ctx context.Context) error {
	if s.DB == nil {
		return fmt.Errorf("maintenance: db not configured")
	}
	if err := database.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		for _, t := range []string{"submissions", "response_cache"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+t); err != nil {
				return fmt.Errorf("reset table %s: %w", t, err)
			}
		}
		return nil
	}); err != nil {
		return err
	}
	_, _ = s.DB.ExecContext(ctx, "VACUUM")
	return nil
}
