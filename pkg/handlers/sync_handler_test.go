package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/yuantang/AppReviewMontior/pkg/config"
	"github.com/yuantang/AppReviewMontior/pkg/models"
	"github.com/yuantang/AppReviewMontior/pkg/services"
)

type mockSyncService struct {
	lastOpts services.SyncOptions
	stats    services.RunStats
	err      error
	calls    int
}

func (m *mockSyncService) Run(ctx context.Context, opts services.SyncOptions) (*services.RunStats, error) {
	m.calls++
	m.lastOpts = opts
	if m.err != nil {
		return nil, m.err
	}
	return &m.stats, nil
}

type mockSyncLogRepo struct {
	entries   []*models.SyncLog
	lastLimit int
}

func (m *mockSyncLogRepo) Insert(ctx context.Context, entry *models.SyncLog) error {
	m.entries = append(m.entries, entry)
	return nil
}

func (m *mockSyncLogRepo) ListRecent(ctx context.Context, limit int) ([]*models.SyncLog, error) {
	m.lastLimit = limit
	return m.entries, nil
}

func newSyncTestServer(svc *mockSyncService, logs *mockSyncLogRepo) *httptest.Server {
	if logs == nil {
		logs = &mockSyncLogRepo{}
	}
	cfg := &config.Config{CronSecret: "cron-secret", AdminAPIKey: "admin-key"}
	mux := http.NewServeMux()
	NewSyncHandler(cfg, svc, logs, zap.NewNop()).RegisterRoutes(mux)
	return httptest.NewServer(mux)
}

func TestTriggerRequiresAuth(t *testing.T) {
	svc := &mockSyncService{}
	server := newSyncTestServer(svc, nil)
	defer server.Close()

	resp, err := http.Post(server.URL+"/api/cron/sync", "application/json", nil)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
	if svc.calls != 0 {
		t.Errorf("unauthenticated request must not trigger a run")
	}
}

func TestTriggerAcceptsCronSecretAndAdminKey(t *testing.T) {
	svc := &mockSyncService{stats: services.RunStats{Processed: 5, New: 2}}
	server := newSyncTestServer(svc, nil)
	defer server.Close()

	cases := []struct {
		name  string
		url   string
		token string
	}{
		{"bearer cron secret", server.URL + "/api/cron/sync", "cron-secret"},
		{"query key", server.URL + "/api/cron/sync?key=cron-secret", ""},
		{"admin key", server.URL + "/api/cron/sync", "admin-key"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodPost, tc.url, nil)
			if tc.token != "" {
				req.Header.Set("Authorization", "Bearer "+tc.token)
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatalf("request: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status = %d, want 200", resp.StatusCode)
			}
			var body SyncResponse
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if !body.Success || body.Stats.Processed != 5 || body.Stats.New != 2 {
				t.Errorf("body = %+v", body)
			}
		})
	}
}

func TestTriggerParsesWindowOptions(t *testing.T) {
	svc := &mockSyncService{}
	server := newSyncTestServer(svc, nil)
	defer server.Close()

	do := func(query string) {
		t.Helper()
		req, _ := http.NewRequest(http.MethodPost, server.URL+"/api/cron/sync?"+query, nil)
		req.Header.Set("Authorization", "Bearer cron-secret")
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("request: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d for query %q", resp.StatusCode, query)
		}
	}

	do("start_date=2026-08-01&end_date=2026-08-31&account_id=3&app_id=7")
	opts := svc.lastOpts
	if opts.StartDate == nil || !opts.StartDate.Equal(time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("start date = %v", opts.StartDate)
	}
	if opts.EndDate == nil || !opts.EndDate.Equal(time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("end date = %v", opts.EndDate)
	}
	if opts.AccountID != 3 || opts.AppID != 7 {
		t.Errorf("ids = %d/%d", opts.AccountID, opts.AppID)
	}
	if opts.Unbounded {
		t.Errorf("explicit dates must not be unbounded")
	}

	do("start_date=all")
	if !svc.lastOpts.Unbounded {
		t.Errorf("start_date=all should disable the window")
	}
	if svc.lastOpts.StartDate != nil || svc.lastOpts.EndDate != nil {
		t.Errorf("unbounded run should carry no explicit bounds")
	}

	do("start_date=2026-08-01T12:30:00Z")
	if got := svc.lastOpts.StartDate; got == nil || !got.Equal(time.Date(2026, 8, 1, 12, 30, 0, 0, time.UTC)) {
		t.Errorf("RFC 3339 start date = %v", got)
	}
}

func TestTriggerRejectsBadOptions(t *testing.T) {
	svc := &mockSyncService{}
	server := newSyncTestServer(svc, nil)
	defer server.Close()

	for _, query := range []string{"start_date=yesterday", "account_id=abc"} {
		req, _ := http.NewRequest(http.MethodPost, server.URL+"/api/cron/sync?"+query, nil)
		req.Header.Set("Authorization", "Bearer cron-secret")
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("request: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("status = %d for query %q, want 400", resp.StatusCode, query)
		}
	}
	if svc.calls != 0 {
		t.Errorf("invalid options must not trigger a run")
	}
}

func TestLogsEndpoint(t *testing.T) {
	logs := &mockSyncLogRepo{entries: []*models.SyncLog{
		{ID: 2, AccountID: 1, Status: models.SyncStatusSuccess, Message: "Synced 2 apps successfully.", NewReviewsCount: 3},
		{ID: 1, AccountID: 1, Status: models.SyncStatusFailed, Message: "parse private key"},
	}}
	server := newSyncTestServer(&mockSyncService{}, logs)
	defer server.Close()

	req, _ := http.NewRequest(http.MethodGet, server.URL+"/api/sync/logs?limit=10", nil)
	req.Header.Set("Authorization", "Bearer admin-key")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if logs.lastLimit != 10 {
		t.Errorf("limit = %d, want 10", logs.lastLimit)
	}

	var body struct {
		Logs []models.SyncLog `json:"logs"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Logs) != 2 || body.Logs[0].Status != models.SyncStatusSuccess {
		t.Errorf("logs = %+v", body.Logs)
	}
}

func TestLogsRequiresAuth(t *testing.T) {
	server := newSyncTestServer(&mockSyncService{}, nil)
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/sync/logs")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
}
