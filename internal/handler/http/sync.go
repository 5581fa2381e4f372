// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"net/http"

	"github.com/MKhiriev/go-auth-keeper/internal/logger"
	"github.com/MKhiriev/go-auth-keeper/internal/utils"
)

type flushResponse struct {
	Success       bool     `json:"success"`
	Errors        []string `json:"errors,omitempty"`
	Warnings      []string `json:"warnings,omitempty"`
	FallbacksUsed []string `json:"fallbacks_used,omitempty"`
	DurationMS    int64    `json:"duration_ms"`
}

func (h *Handler) getStats(w http.ResponseWriter, r *http.Request) {
	stats := h.services.SessionService.Stats(r.Context())

	utils.WriteJSON(w, stats, http.StatusOK)
}

// flush writes every pending operation now. A failed flush still carries
// the per-backend errors in the body.
func (h *Handler) flush(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	result, err := h.services.SessionService.Flush(r.Context())

	resp := newFlushResponse(result)

	status := http.StatusOK
	if err != nil {
		log.Err(err).Msg("manual flush failed")
		status = statusFromError(err)
	}

	utils.WriteJSON(w, resp, status)
}

func (h *Handler) discardPending(w http.ResponseWriter, r *http.Request) {
	h.services.SessionService.DiscardPending(r.Context())

	w.WriteHeader(http.StatusNoContent)
}
