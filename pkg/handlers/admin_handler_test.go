package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/yuantang/AppReviewMontior/pkg/appstore"
	"github.com/yuantang/AppReviewMontior/pkg/config"
	"github.com/yuantang/AppReviewMontior/pkg/models"
)

type mockAccountService struct {
	testErr    error
	listErr    error
	apps       []appstore.AppListing
	created    *models.Account
	lastTested int64
}

func (m *mockAccountService) TestConnection(ctx context.Context, accountID int64) error {
	m.lastTested = accountID
	return m.testErr
}

func (m *mockAccountService) ListVendorApps(ctx context.Context, accountID int64) ([]appstore.AppListing, error) {
	return m.apps, m.listErr
}

func (m *mockAccountService) Create(ctx context.Context, account *models.Account) error {
	account.ID = 42
	m.created = account
	return nil
}

func newAdminTestServer(svc *mockAccountService) *httptest.Server {
	cfg := &config.Config{AdminAPIKey: "admin-key"}
	mux := http.NewServeMux()
	NewAdminHandler(cfg, svc, zap.NewNop()).RegisterRoutes(mux)
	return httptest.NewServer(mux)
}

func postAdmin(t *testing.T, url, token, body string) *http.Response {
	t.Helper()
	req, _ := http.NewRequest(http.MethodPost, url+"/api/admin", strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	return resp
}

func TestAdminRequiresKey(t *testing.T) {
	server := newAdminTestServer(&mockAccountService{})
	defer server.Close()

	resp := postAdmin(t, server.URL, "", `{"action":"test_connection","accountId":1}`)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}

	resp2 := postAdmin(t, server.URL, "wrong-key", `{"action":"test_connection","accountId":1}`)
	defer resp2.Body.Close()
	if resp2.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp2.StatusCode)
	}
}

func TestAdminTestConnection(t *testing.T) {
	svc := &mockAccountService{}
	server := newAdminTestServer(svc)
	defer server.Close()

	resp := postAdmin(t, server.URL, "admin-key", `{"action":"test_connection","accountId":7}`)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if svc.lastTested != 7 {
		t.Errorf("tested account = %d, want 7", svc.lastTested)
	}
}

func TestAdminListVendorApps(t *testing.T) {
	svc := &mockAccountService{apps: []appstore.AppListing{
		{ID: "100001", Name: "Acme Notes", BundleID: "com.acme.notes"},
	}}
	server := newAdminTestServer(svc)
	defer server.Close()

	resp := postAdmin(t, server.URL, "admin-key", `{"action":"list_apps_from_apple","accountId":1}`)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body struct {
		Success bool                  `json:"success"`
		Apps    []appstore.AppListing `json:"apps"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Success || len(body.Apps) != 1 || body.Apps[0].Name != "Acme Notes" {
		t.Errorf("body = %+v", body)
	}
}

func TestAdminAddAccount(t *testing.T) {
	svc := &mockAccountService{}
	server := newAdminTestServer(svc)
	defer server.Close()

	resp := postAdmin(t, server.URL, "admin-key",
		`{"action":"add_account","account":{"name":"Acme","issuer_id":"iss","key_id":"key","private_key":"pem"}}`)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if svc.created == nil || svc.created.Name != "Acme" || svc.created.IssuerID != "iss" {
		t.Errorf("created = %+v", svc.created)
	}

	var body struct {
		Success bool  `json:"success"`
		ID      int64 `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Success || body.ID != 42 {
		t.Errorf("body = %+v", body)
	}
}

func TestAdminInvalidAction(t *testing.T) {
	server := newAdminTestServer(&mockAccountService{})
	defer server.Close()

	resp := postAdmin(t, server.URL, "admin-key", `{"action":"drop_tables"}`)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}
