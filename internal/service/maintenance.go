package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jask/otpfield/internal/database"
	"github.com/jask/otpfield/internal/database/repository"
)

// MaintenanceService houses destructive/ops actions surfaced through the TUI.
type MaintenanceService struct {
	DB       *sql.DB
	Attempts *repository.AttemptRepo
}

// Reset wipes the attempt history. It keeps the schema intact so the app can continue running.
func (s *MaintenanceService) Reset(ctx context.Context) error {
	if s.DB == nil {
		return fmt.Errorf("maintenance: db not configured")
	}
	if err := database.WithTx(s.DB, func(tx *sql.Tx) error {
		for _, t := range []string{"attempts"} {
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

// Prune deletes attempts older than retention and reports how many went.
func (s *MaintenanceService) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	if s.Attempts == nil {
		return 0, fmt.Errorf("maintenance: attempts not configured")
	}
	if retention <= 0 {
		return 0, nil
	}
	n, err := s.Attempts.DeleteBefore(ctx, database.Now().Add(-retention))
	if err != nil {
		return 0, fmt.Errorf("prune attempts: %w", err)
	}
	return n, nil
}
