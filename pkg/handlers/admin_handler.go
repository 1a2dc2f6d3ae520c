package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/yuantang/AppReviewMontior/pkg/apperrors"
	"github.com/yuantang/AppReviewMontior/pkg/config"
	"github.com/yuantang/AppReviewMontior/pkg/models"
	"github.com/yuantang/AppReviewMontior/pkg/services"
)

// Admin RPC actions.
const (
	actionTestConnection = "test_connection"
	actionListVendorApps = "list_apps_from_apple"
	actionAddAccount     = "add_account"
)

// adminRequest is the admin RPC envelope.
type adminRequest struct {
	Action    string `json:"action"`
	AccountID int64  `json:"accountId,omitempty"`
	Account   *struct {
		Name         string `json:"name"`
		IssuerID     string `json:"issuer_id"`
		KeyID        string `json:"key_id"`
		PrivateKey   string `json:"private_key"`
		VendorNumber string `json:"vendor_number"`
	} `json:"account,omitempty"`
}

// AdminHandler dispatches the admin RPC actions for developer accounts.
type AdminHandler struct {
	cfg        *config.Config
	accountSvc services.AccountService
	logger     *zap.Logger
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(cfg *config.Config, accountSvc services.AccountService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{cfg: cfg, accountSvc: accountSvc, logger: logger}
}

// RegisterRoutes registers the admin handler's routes on the given mux.
func (h *AdminHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/admin", h.Dispatch)
}

// Dispatch handles POST /api/admin.
func (h *AdminHandler) Dispatch(w http.ResponseWriter, r *http.Request) {
	if h.cfg.AdminAPIKey == "" || bearerToken(r) != h.cfg.AdminAPIKey {
		_ = ErrorResponse(w, http.StatusUnauthorized, "unauthorized", "admin key required")
		return
	}

	var req adminRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}

	switch req.Action {
	case actionTestConnection:
		h.testConnection(w, r, &req)
	case actionListVendorApps:
		h.listVendorApps(w, r, &req)
	case actionAddAccount:
		h.addAccount(w, r, &req)
	default:
		_ = ErrorResponse(w, http.StatusBadRequest, "bad_request", "invalid action")
	}
}

func (h *AdminHandler) testConnection(w http.ResponseWriter, r *http.Request, req *adminRequest) {
	if err := h.accountSvc.TestConnection(r.Context(), req.AccountID); err != nil {
		h.logger.Warn("Credential test failed",
			zap.Int64("account_id", req.AccountID),
			zap.Error(err))
		status := http.StatusBadRequest
		if errors.Is(err, apperrors.ErrNotFound) {
			status = http.StatusNotFound
		}
		_ = ErrorResponse(w, status, "connection_failed", err.Error())
		return
	}

	_ = WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Connection successful",
	})
}

func (h *AdminHandler) listVendorApps(w http.ResponseWriter, r *http.Request, req *adminRequest) {
	apps, err := h.accountSvc.ListVendorApps(r.Context(), req.AccountID)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, apperrors.ErrNotFound) {
			status = http.StatusNotFound
		}
		_ = ErrorResponse(w, status, "list_failed", err.Error())
		return
	}

	_ = WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"apps":    apps,
	})
}

func (h *AdminHandler) addAccount(w http.ResponseWriter, r *http.Request, req *adminRequest) {
	if req.Account == nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "bad_request", "missing account fields")
		return
	}

	account := &models.Account{
		Name:         req.Account.Name,
		IssuerID:     req.Account.IssuerID,
		KeyID:        req.Account.KeyID,
		PrivateKey:   req.Account.PrivateKey,
		VendorNumber: req.Account.VendorNumber,
	}

	if err := h.accountSvc.Create(r.Context(), account); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "create_failed", err.Error())
		return
	}

	_ = WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"id":      account.ID,
	})
}
