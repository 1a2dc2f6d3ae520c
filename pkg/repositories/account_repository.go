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

// AccountRepository defines the interface for developer account data access.
type AccountRepository interface {
	List(ctx context.Context) ([]*models.Account, error)
	GetByID(ctx context.Context, id int64) (*models.Account, error)
	Create(ctx context.Context, account *models.Account) error
}

// accountRepository implements AccountRepository using PostgreSQL.
type accountRepository struct {
	db *database.DB
}

// NewAccountRepository creates a new account repository.
func NewAccountRepository(db *database.DB) AccountRepository {
	return &accountRepository{db: db}
}

const accountColumns = `id, name, issuer_id, key_id, private_key, vendor_number, created_at`

// List retrieves all developer accounts, including signing credentials.
func (r *accountRepository) List(ctx context.Context) ([]*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM apple_accounts ORDER BY id`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*models.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, account)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating accounts: %w", err)
	}

	return accounts, nil
}

// GetByID retrieves one developer account.
func (r *accountRepository) GetByID(ctx context.Context, id int64) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM apple_accounts WHERE id = $1`

	account, err := scanAccount(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("account %d: %w", id, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return account, nil
}

// Create inserts a new developer account.
func (r *accountRepository) Create(ctx context.Context, account *models.Account) error {
	query := `
		INSERT INTO apple_accounts (name, issuer_id, key_id, private_key, vendor_number)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''))
		RETURNING id, created_at`

	err := r.db.QueryRow(ctx, query,
		account.Name,
		account.IssuerID,
		account.KeyID,
		account.PrivateKey,
		account.VendorNumber,
	).Scan(&account.ID, &account.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}

	return nil
}

func scanAccount(row pgx.Row) (*models.Account, error) {
	var account models.Account
	var vendorNumber *string
	err := row.Scan(
		&account.ID,
		&account.Name,
		&account.IssuerID,
		&account.KeyID,
		&account.PrivateKey,
		&vendorNumber,
		&account.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if vendorNumber != nil {
		account.VendorNumber = *vendorNumber
	}
	return &account, nil
}

// Ensure accountRepository implements AccountRepository at compile time.
var _ AccountRepository = (*accountRepository)(nil)
