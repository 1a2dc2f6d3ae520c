package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/yuantang/AppReviewMontior/pkg/apperrors"
	"github.com/yuantang/AppReviewMontior/pkg/database"
	"github.com/yuantang/AppReviewMontior/pkg/models"
)

// AppRepository defines the interface for monitored app data access.
type AppRepository interface {
	List(ctx context.Context) ([]*models.App, error)
	ListByAccount(ctx context.Context, accountID int64) ([]*models.App, error)
	GetByID(ctx context.Context, id int64) (*models.App, error)
}

// appRepository implements AppRepository using PostgreSQL.
type appRepository struct {
	db *database.DB
}

// NewAppRepository creates a new app repository.
func NewAppRepository(db *database.DB) AppRepository {
	return &appRepository{db: db}
}

const appColumns = `id, account_id, app_store_id, name, bundle_id, platform, icon_url, created_at`

// List retrieves all monitored apps.
func (r *appRepository) List(ctx context.Context) ([]*models.App, error) {
	return r.list(ctx, `SELECT `+appColumns+` FROM apps ORDER BY id`)
}

// ListByAccount retrieves the apps owned by one developer account.
func (r *appRepository) ListByAccount(ctx context.Context, accountID int64) ([]*models.App, error) {
	return r.list(ctx, `SELECT `+appColumns+` FROM apps WHERE account_id = $1 ORDER BY id`, accountID)
}

// GetByID retrieves one monitored app.
func (r *appRepository) GetByID(ctx context.Context, id int64) (*models.App, error) {
	query := `SELECT ` + appColumns + ` FROM apps WHERE id = $1`

	app, err := scanApp(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("app %d: %w", id, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get app: %w", err)
	}

	return app, nil
}

func (r *appRepository) list(ctx context.Context, query string, args ...any) ([]*models.App, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list apps: %w", err)
	}
	defer rows.Close()

	var apps []*models.App
	for rows.Next() {
		app, err := scanApp(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan app: %w", err)
		}
		apps = append(apps, app)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating apps: %w", err)
	}

	return apps, nil
}

func scanApp(row pgx.Row) (*models.App, error) {
	var app models.App
	err := row.Scan(
		&app.ID,
		&app.AccountID,
		&app.AppStoreID,
		&app.Name,
		&app.BundleID,
		&app.Platform,
		&app.IconURL,
		&app.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &app, nil
}

// Ensure appRepository implements AppRepository at compile time.
var _ AppRepository = (*appRepository)(nil)
