package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/yuantang/AppReviewMontior/pkg/config"
	"github.com/yuantang/AppReviewMontior/pkg/repositories"
	"github.com/yuantang/AppReviewMontior/pkg/services"
)

// windowAll is the literal date value that disables window filtering.
const windowAll = "all"

// SyncResponse is the trigger surface's result payload.
type SyncResponse struct {
	Success bool              `json:"success"`
	Stats   services.RunStats `json:"stats"`
}

// SyncHandler exposes the sync trigger for the cron scheduler and for
// authenticated manual runs. The handler validates the caller and the
// options; the pipeline itself never authenticates.
type SyncHandler struct {
	cfg         *config.Config
	syncSvc     services.SyncService
	syncLogRepo repositories.SyncLogRepository
	logger      *zap.Logger
}

// NewSyncHandler creates a new sync trigger handler.
func NewSyncHandler(cfg *config.Config, syncSvc services.SyncService, syncLogRepo repositories.SyncLogRepository, logger *zap.Logger) *SyncHandler {
	return &SyncHandler{cfg: cfg, syncSvc: syncSvc, syncLogRepo: syncLogRepo, logger: logger}
}

// RegisterRoutes registers the sync handler's routes on the given mux.
func (h *SyncHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/cron/sync", h.Trigger)
	mux.HandleFunc("GET /api/sync/logs", h.Logs)
}

// Trigger handles POST /api/cron/sync.
// Accepts either the cron shared secret or the admin API key. Query
// parameters: start_date/end_date (RFC 3339 or "all"), account_id, app_id.
func (h *SyncHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		_ = ErrorResponse(w, http.StatusUnauthorized, "unauthorized", "missing or invalid credentials")
		return
	}

	opts, err := parseSyncOptions(r)
	if err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	stats, err := h.syncSvc.Run(r.Context(), opts)
	if err != nil {
		// Only configuration-level failures reach here; everything else
		// is absorbed into stats and the audit log.
		h.logger.Error("Sync run failed", zap.Error(err))
		_ = ErrorResponse(w, http.StatusInternalServerError, "sync_failed", err.Error())
		return
	}

	if err := WriteJSON(w, http.StatusOK, SyncResponse{Success: true, Stats: *stats}); err != nil {
		h.logger.Error("Failed to encode sync response", zap.Error(err))
	}
}

// Logs handles GET /api/sync/logs.
// Returns the most recent audit rows, newest first.
func (h *SyncHandler) Logs(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		_ = ErrorResponse(w, http.StatusUnauthorized, "unauthorized", "missing or invalid credentials")
		return
	}

	limit, err := parseID(r.URL.Query().Get("limit"))
	if err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	entries, err := h.syncLogRepo.ListRecent(r.Context(), int(limit))
	if err != nil {
		h.logger.Error("Failed to list sync logs", zap.Error(err))
		_ = ErrorResponse(w, http.StatusInternalServerError, "list_failed", err.Error())
		return
	}

	if err := WriteJSON(w, http.StatusOK, map[string]any{"logs": entries}); err != nil {
		h.logger.Error("Failed to encode sync logs response", zap.Error(err))
	}
}

// authorized accepts the cron secret (header or ?key=) or the admin API key.
func (h *SyncHandler) authorized(r *http.Request) bool {
	bearer := bearerToken(r)

	if h.cfg.CronSecret != "" {
		if bearer == h.cfg.CronSecret || r.URL.Query().Get("key") == h.cfg.CronSecret {
			return true
		}
	}
	if h.cfg.AdminAPIKey != "" && bearer == h.cfg.AdminAPIKey {
		return true
	}
	return false
}

// bearerToken extracts the token from an Authorization: Bearer header.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(header, "Bearer ")
}

// parseSyncOptions reads SyncOptions off the request query.
func parseSyncOptions(r *http.Request) (services.SyncOptions, error) {
	var opts services.SyncOptions
	q := r.URL.Query()

	startStr := q.Get("start_date")
	endStr := q.Get("end_date")
	if startStr == windowAll || endStr == windowAll {
		opts.Unbounded = true
	} else {
		start, err := parseDate(startStr)
		if err != nil {
			return opts, err
		}
		end, err := parseDate(endStr)
		if err != nil {
			return opts, err
		}
		opts.StartDate = start
		opts.EndDate = end
	}

	accountID, err := parseID(q.Get("account_id"))
	if err != nil {
		return opts, err
	}
	appID, err := parseID(q.Get("app_id"))
	if err != nil {
		return opts, err
	}
	opts.AccountID = accountID
	opts.AppID = appID

	return opts, nil
}

func parseDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		// Bare dates are accepted for operator convenience.
		t, err = time.Parse("2006-01-02", value)
		if err != nil {
			return nil, err
		}
	}
	return &t, nil
}

func parseID(value string) (int64, error) {
	if value == "" {
		return 0, nil
	}
	return strconv.ParseInt(value, 10, 64)
}
