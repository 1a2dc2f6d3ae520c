package services

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/yuantang/AppReviewMontior/pkg/appstore"
	"github.com/yuantang/AppReviewMontior/pkg/models"
)

type mockAppLister struct {
	apps      []appstore.AppListing
	err       error
	lastToken string
}

func (m *mockAppLister) ListApps(ctx context.Context, token string) ([]appstore.AppListing, error) {
	m.lastToken = token
	return m.apps, m.err
}

func newAccountFixture() (*mockAccountRepo, *mockAppLister, *mockTokens, AccountService) {
	repo := &mockAccountRepo{accounts: []*models.Account{
		{ID: 1, Name: "Acme", IssuerID: "iss", KeyID: "key", PrivateKey: "pem"},
	}}
	lister := &mockAppLister{}
	tokens := &mockTokens{}
	svc := NewAccountService(repo, lister, func() TokenSource { return tokens }, zap.NewNop())
	return repo, lister, tokens, svc
}

func TestTestConnectionSucceeds(t *testing.T) {
	_, lister, _, svc := newAccountFixture()
	lister.apps = []appstore.AppListing{{ID: "100001", Name: "Acme Notes"}}

	if err := svc.TestConnection(context.Background(), 1); err != nil {
		t.Fatalf("TestConnection: %v", err)
	}
	if lister.lastToken != "token-1" {
		t.Errorf("lister saw token %q", lister.lastToken)
	}
}

func TestTestConnectionUnknownAccount(t *testing.T) {
	_, _, _, svc := newAccountFixture()

	if err := svc.TestConnection(context.Background(), 99); err == nil {
		t.Fatalf("expected error for unknown account")
	}
}

func TestTestConnectionBadCredentials(t *testing.T) {
	_, _, tokens, svc := newAccountFixture()
	tokens.failFor = map[int64]error{1: errors.New("parse private key")}

	if err := svc.TestConnection(context.Background(), 1); err == nil {
		t.Fatalf("expected error when token minting fails")
	}
}

func TestListVendorApps(t *testing.T) {
	_, lister, _, svc := newAccountFixture()
	lister.apps = []appstore.AppListing{
		{ID: "100001", Name: "Acme Notes", BundleID: "com.acme.notes"},
		{ID: "100002", Name: "Acme Mail", BundleID: "com.acme.mail"},
	}

	apps, err := svc.ListVendorApps(context.Background(), 1)
	if err != nil {
		t.Fatalf("ListVendorApps: %v", err)
	}
	if len(apps) != 2 || apps[0].Name != "Acme Notes" {
		t.Errorf("apps = %+v", apps)
	}
}

func TestCreateValidatesCredentials(t *testing.T) {
	repo, _, _, svc := newAccountFixture()

	err := svc.Create(context.Background(), &models.Account{Name: "Incomplete", IssuerID: "iss"})
	if err == nil {
		t.Fatalf("expected validation error for missing credentials")
	}

	account := &models.Account{Name: "Complete", IssuerID: "iss", KeyID: "key", PrivateKey: "pem"}
	if err := svc.Create(context.Background(), account); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if account.ID == 0 {
		t.Errorf("Create did not assign an id")
	}
	if len(repo.accounts) != 2 {
		t.Errorf("accounts = %d, want 2", len(repo.accounts))
	}
}
