package repositories

import (
	"context"
	"fmt"

	"github.com/yuantang/AppReviewMontior/pkg/database"
	"github.com/yuantang/AppReviewMontior/pkg/models"
)

// SyncLogRepository defines the interface for sync audit log access.
// Log rows are append-only and never mutated.
type SyncLogRepository interface {
	Insert(ctx context.Context, entry *models.SyncLog) error
	ListRecent(ctx context.Context, limit int) ([]*models.SyncLog, error)
}

// syncLogRepository implements SyncLogRepository using PostgreSQL.
type syncLogRepository struct {
	db *database.DB
}

// NewSyncLogRepository creates a new sync log repository.
func NewSyncLogRepository(db *database.DB) SyncLogRepository {
	return &syncLogRepository{db: db}
}

// Insert appends one audit row.
func (r *syncLogRepository) Insert(ctx context.Context, entry *models.SyncLog) error {
	query := `
		INSERT INTO sync_logs (account_id, status, message, new_reviews_count)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := r.db.QueryRow(ctx, query,
		entry.AccountID,
		entry.Status,
		entry.Message,
		entry.NewReviewsCount,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert sync log: %w", err)
	}

	return nil
}

// ListRecent retrieves the most recent audit rows, newest first.
func (r *syncLogRepository) ListRecent(ctx context.Context, limit int) ([]*models.SyncLog, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, account_id, status, message, new_reviews_count, created_at
		FROM sync_logs
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sync logs: %w", err)
	}
	defer rows.Close()

	var entries []*models.SyncLog
	for rows.Next() {
		var entry models.SyncLog
		err := rows.Scan(
			&entry.ID,
			&entry.AccountID,
			&entry.Status,
			&entry.Message,
			&entry.NewReviewsCount,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sync log: %w", err)
		}
		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sync logs: %w", err)
	}

	return entries, nil
}

// Ensure syncLogRepository implements SyncLogRepository at compile time.
var _ SyncLogRepository = (*syncLogRepository)(nil)
