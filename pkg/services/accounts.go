package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/yuantang/AppReviewMontior/pkg/appstore"
	"github.com/yuantang/AppReviewMontior/pkg/models"
	"github.com/yuantang/AppReviewMontior/pkg/repositories"
)

// AppLister retrieves the apps visible to a developer account token.
type AppLister interface {
	ListApps(ctx context.Context, token string) ([]appstore.AppListing, error)
}

// AccountService handles the admin operations on developer accounts:
// credential validation, vendor app listing for smart import, and creation.
type AccountService interface {
	// TestConnection mints a token for the account and performs one real
	// API call to prove the credentials work.
	TestConnection(ctx context.Context, accountID int64) error

	// ListVendorApps returns the apps the account's credentials can see.
	ListVendorApps(ctx context.Context, accountID int64) ([]appstore.AppListing, error)

	// Create validates and stores a new developer account.
	Create(ctx context.Context, account *models.Account) error
}

type accountService struct {
	accountRepo repositories.AccountRepository
	lister      AppLister
	newTokens   func() TokenSource
	logger      *zap.Logger
}

// NewAccountService creates the account admin service.
func NewAccountService(
	accountRepo repositories.AccountRepository,
	lister AppLister,
	newTokens func() TokenSource,
	logger *zap.Logger,
) AccountService {
	return &accountService{
		accountRepo: accountRepo,
		lister:      lister,
		newTokens:   newTokens,
		logger:      logger.Named("accounts"),
	}
}

var _ AccountService = (*accountService)(nil)

// TestConnection proves the account's credentials by listing its apps.
func (s *accountService) TestConnection(ctx context.Context, accountID int64) error {
	if _, err := s.listVendorApps(ctx, accountID); err != nil {
		return err
	}
	s.logger.Info("Credential test succeeded", zap.Int64("account_id", accountID))
	return nil
}

// ListVendorApps returns the apps visible to the account for smart import.
func (s *accountService) ListVendorApps(ctx context.Context, accountID int64) ([]appstore.AppListing, error) {
	return s.listVendorApps(ctx, accountID)
}

func (s *accountService) listVendorApps(ctx context.Context, accountID int64) ([]appstore.AppListing, error) {
	account, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	token, err := s.newTokens().Token(account)
	if err != nil {
		return nil, err
	}

	apps, err := s.lister.ListApps(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("account %d: %w", accountID, err)
	}

	return apps, nil
}

// Create validates and stores a new developer account.
func (s *accountService) Create(ctx context.Context, account *models.Account) error {
	if account.Name == "" || !account.HasCredentials() {
		return fmt.Errorf("account requires name, issuer id, key id and private key")
	}

	if err := s.accountRepo.Create(ctx, account); err != nil {
		return err
	}

	s.logger.Info("Created developer account",
		zap.Int64("account_id", account.ID),
		zap.String("name", account.Name))
	return nil
}
