package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/MKhiriev/go-auth-keeper/internal/logger"
	"github.com/MKhiriev/go-auth-keeper/internal/service"
	"github.com/MKhiriev/go-auth-keeper/internal/utils"
	"github.com/MKhiriev/go-auth-keeper/models"
)

type tokensRequest struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type loginRequest struct {
	tokensRequest
	User models.User `json:"user"`
}

func newFlushResponse(result models.SyncResult) flushResponse {
	resp := flushResponse{
		Success:       result.Success,
		Warnings:      result.Warnings,
		FallbacksUsed: result.FallbacksUsed,
		DurationMS:    result.Duration.Milliseconds(),
	}
	for _, e := range result.Errors {
		resp.Errors = append(resp.Errors, e.Error())
	}
	return resp
}

// login persists a freshly issued token pair and the user profile. The
// response is written only after the forced flush finished.
func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Err(err).Msg("Invalid JSON was passed")
		utils.WriteError(w, r, "invalid JSON was passed", http.StatusBadRequest)
		return
	}

	result, err := h.services.SessionService.Login(ctx, req.AccessToken, req.RefreshToken, req.User)
	if err != nil {
		log.Err(err).Int64("user_id", req.User.UserID).Msg("login state was not saved")
		if errors.Is(err, service.ErrStateNotPersisted) {
			utils.WriteJSON(w, newFlushResponse(result), http.StatusServiceUnavailable)
			return
		}
		utils.WriteError(w, r, err.Error(), statusFromError(err))
		return
	}

	utils.WriteJSON(w, newFlushResponse(result), http.StatusOK)
}

func (h *Handler) refreshTokens(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	var req tokensRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Err(err).Msg("Invalid JSON was passed")
		utils.WriteError(w, r, "invalid JSON was passed", http.StatusBadRequest)
		return
	}

	if err := h.services.SessionService.RefreshTokens(r.Context(), req.AccessToken, req.RefreshToken); err != nil {
		log.Err(err).Msg("token refresh rejected")
		utils.WriteError(w, r, err.Error(), statusFromError(err))
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	var user models.User
	if err := json.NewDecoder(r.Body).Decode(&user); err != nil {
		log.Err(err).Msg("Invalid JSON was passed")
		utils.WriteError(w, r, "invalid JSON was passed", http.StatusBadRequest)
		return
	}

	if err := h.services.SessionService.UpdateProfile(r.Context(), user); err != nil {
		log.Err(err).Msg("profile update rejected")
		utils.WriteError(w, r, err.Error(), statusFromError(err))
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

func (h *Handler) touch(w http.ResponseWriter, r *http.Request) {
	h.services.SessionService.Touch(r.Context())

	w.WriteHeader(http.StatusAccepted)
}

func (h *Handler) restore(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	state, err := h.services.SessionService.Restore(r.Context())
	if err != nil {
		log.Err(err).Msg("auth state could not be restored")
		utils.WriteError(w, r, err.Error(), statusFromError(err))
		return
	}

	utils.WriteJSON(w, state, http.StatusOK)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	if err := h.services.SessionService.Logout(r.Context()); err != nil {
		log.Err(err).Msg("logout failed")
		utils.WriteError(w, r, err.Error(), statusFromError(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
