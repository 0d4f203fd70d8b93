package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prudhvinik1/displayhub/internal/repositories"
	"github.com/prudhvinik1/displayhub/internal/services"
	"go.uber.org/zap"
)

const sessionCookieName = "sess"

type Handler struct {
	pairing    *services.PairingService
	auth       *services.AuthService
	render     *services.RenderService
	store      repositories.Store
	logger     *zap.Logger
	sessionTTL time.Duration
}

func NewHandler(
	pairing *services.PairingService,
	auth *services.AuthService,
	render *services.RenderService,
	store repositories.Store,
	logger *zap.Logger,
	sessionTTL time.Duration,
) *Handler {
	return &Handler{
		pairing:    pairing,
		auth:       auth,
		render:     render,
		store:      store,
		logger:     logger,
		sessionTTL: sessionTTL,
	}
}

func (h *Handler) PairStart(w http.ResponseWriter, r *http.Request) {
	var body struct {
		HardwareUID string `json:"hardware_uid"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.pairing.Start(r.Context(), body.HardwareUID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrHardwareUIDRequired):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, repositories.ErrCodeSpaceExhausted):
			writeError(w, http.StatusInternalServerError, "Failed to allocate pair code")
		default:
			h.serverError(w, "pair start failed", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) PairClaim(w http.ResponseWriter, r *http.Request) {
	var body struct {
		PairCode string `json:"pair_code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.pairing.Claim(r.Context(), body.PairCode)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrCodeInvalid):
			writeError(w, http.StatusBadRequest, "Invalid code")
		case errors.Is(err, repositories.ErrCodeClaimed):
			writeError(w, http.StatusBadRequest, "Code already claimed")
		case errors.Is(err, repositories.ErrCodeExpired):
			writeError(w, http.StatusBadRequest, "Code expired")
		default:
			h.serverError(w, "pair claim failed", err)
		}
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    result.SessionToken,
		Path:     "/",
		MaxAge:   int(h.sessionTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]string{"device_id": result.DeviceID})
}

func (h *Handler) SetModule(w http.ResponseWriter, r *http.Request) {
	deviceID := chi.URLParam(r, "deviceID")

	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "No session")
		return
	}
	if err := h.auth.AuthorizeDeviceWrite(r.Context(), cookie.Value, deviceID); err != nil {
		if errors.Is(err, services.ErrForbidden) {
			writeError(w, http.StatusForbidden, "Session not authorized for this device")
			return
		}
		writeError(w, http.StatusUnauthorized, "Invalid session")
		return
	}

	var body struct {
		Type   string          `json:"type"`
		Params json.RawMessage `json:"params"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.render.SetModule(r.Context(), deviceID, body.Type, body.Params); err != nil {
		if errors.Is(err, services.ErrUnsupportedModule) {
			writeError(w, http.StatusBadRequest, "Unsupported module type")
			return
		}
		h.serverError(w, "set module failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handler) DeviceConfig(w http.ResponseWriter, r *http.Request) {
	device, err := h.auth.ResolveDevice(r.Context(), r.URL.Query().Get("device_token"))
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid device token")
		return
	}
	writeJSON(w, http.StatusOK, h.render.ResolveConfig(r.Context(), device.ID))
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		h.logger.Error("health check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]bool{"ok": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handler) serverError(w http.ResponseWriter, msg string, err error) {
	// Detail stays server-side.
	h.logger.Error(msg, zap.Error(err))
	writeError(w, http.StatusInternalServerError, "Internal server error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
