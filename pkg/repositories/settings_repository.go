package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/yuantang/AppReviewMontior/pkg/database"
	"github.com/yuantang/AppReviewMontior/pkg/models"
)

// SettingsRepository defines the interface for global settings access.
type SettingsRepository interface {
	// Get retrieves the settings row. Returns nil when none exists yet;
	// callers apply their configured fallbacks.
	Get(ctx context.Context) (*models.Settings, error)
}

// settingsRepository implements SettingsRepository using PostgreSQL.
type settingsRepository struct {
	db *database.DB
}

// NewSettingsRepository creates a new settings repository.
func NewSettingsRepository(db *database.DB) SettingsRepository {
	return &settingsRepository{db: db}
}

// Get retrieves the single settings row.
func (r *settingsRepository) Get(ctx context.Context) (*models.Settings, error) {
	query := `SELECT id, webhook_url, notify_threshold, sync_interval FROM settings LIMIT 1`

	var settings models.Settings
	err := r.db.QueryRow(ctx, query).Scan(
		&settings.ID,
		&settings.WebhookURL,
		&settings.NotifyThreshold,
		&settings.SyncInterval,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}

	return &settings, nil
}

// Ensure settingsRepository implements SettingsRepository at compile time.
var _ SettingsRepository = (*settingsRepository)(nil)
