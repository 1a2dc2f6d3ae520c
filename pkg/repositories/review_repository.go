package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/yuantang/AppReviewMontior/pkg/database"
	"github.com/yuantang/AppReviewMontior/pkg/models"
)

// ReviewLookup is the slice of stored state reconciliation needs to decide
// whether a fetched item is new, edited, or an idempotent no-op.
type ReviewLookup struct {
	ID       int64
	IsEdited bool
}

// ReviewRepository defines the interface for review data access.
// Upsert keyed on the vendor review id is the only mutation path the sync
// pipeline uses; reviews are never deleted or re-created.
type ReviewRepository interface {
	// FindByReviewID looks up stored state by vendor review id.
	// Returns nil (not an error) when no review is stored.
	FindByReviewID(ctx context.Context, reviewID string) (*ReviewLookup, error)

	// Upsert inserts the review or, on conflict by vendor review id,
	// replaces its mutable attributes.
	Upsert(ctx context.Context, review *models.Review) error

	// GetByReviewID retrieves a full stored review by vendor review id.
	GetByReviewID(ctx context.Context, reviewID string) (*models.Review, error)
}

// reviewRepository implements ReviewRepository using PostgreSQL.
type reviewRepository struct {
	db *database.DB
}

// NewReviewRepository creates a new review repository.
func NewReviewRepository(db *database.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

// FindByReviewID looks up stored state by vendor review id.
func (r *reviewRepository) FindByReviewID(ctx context.Context, reviewID string) (*ReviewLookup, error) {
	query := `SELECT id, is_edited FROM reviews WHERE review_id = $1`

	var lookup ReviewLookup
	err := r.db.QueryRow(ctx, query, reviewID).Scan(&lookup.ID, &lookup.IsEdited)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find review: %w", err)
	}

	return &lookup, nil
}

// Upsert inserts or replaces the review keyed by vendor review id.
func (r *reviewRepository) Upsert(ctx context.Context, review *models.Review) error {
	review.UpdatedAt = time.Now()

	query := `
		INSERT INTO reviews (
			app_id, review_id, user_name, title, body, rating, territory,
			is_edited, created_at_store, sentiment, topics, need_reply, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (review_id) DO UPDATE
		SET user_name = EXCLUDED.user_name,
		    title = EXCLUDED.title,
		    body = EXCLUDED.body,
		    rating = EXCLUDED.rating,
		    territory = EXCLUDED.territory,
		    is_edited = EXCLUDED.is_edited,
		    sentiment = EXCLUDED.sentiment,
		    topics = EXCLUDED.topics,
		    need_reply = EXCLUDED.need_reply,
		    updated_at = EXCLUDED.updated_at`

	_, err := r.db.Exec(ctx, query,
		review.AppID,
		review.ReviewID,
		review.UserName,
		review.Title,
		review.Body,
		review.Rating,
		review.Territory,
		review.IsEdited,
		review.CreatedAtStore,
		review.Sentiment,
		review.Topics,
		review.NeedReply,
		review.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert review: %w", err)
	}

	return nil
}

// GetByReviewID retrieves a full stored review by vendor review id.
func (r *reviewRepository) GetByReviewID(ctx context.Context, reviewID string) (*models.Review, error) {
	query := `
		SELECT id, app_id, review_id, user_name, title, body, rating, territory,
		       is_edited, created_at_store, sentiment, topics, need_reply,
		       reply_content, replied_at, updated_at
		FROM reviews
		WHERE review_id = $1`

	var review models.Review
	err := r.db.QueryRow(ctx, query, reviewID).Scan(
		&review.ID,
		&review.AppID,
		&review.ReviewID,
		&review.UserName,
		&review.Title,
		&review.Body,
		&review.Rating,
		&review.Territory,
		&review.IsEdited,
		&review.CreatedAtStore,
		&review.Sentiment,
		&review.Topics,
		&review.NeedReply,
		&review.ReplyContent,
		&review.RepliedAt,
		&review.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get review: %w", err)
	}

	return &review, nil
}

// Ensure reviewRepository implements ReviewRepository at compile time.
var _ ReviewRepository = (*reviewRepository)(nil)
