package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"challenge-hub/internal/middleware"
	"challenge-hub/internal/model"
	"challenge-hub/internal/service"
	"challenge-hub/pkg/apierror"
)

type ChallengeHandler struct {
	service *service.ChallengeService
}

func NewChallengeHandler(service *service.ChallengeService) *ChallengeHandler {
	return &ChallengeHandler{service: service}
}

func (h *ChallengeHandler) List(w http.ResponseWriter, r *http.Request) {
	challenges, err := h.service.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, challenges, &model.Meta{Total: len(challenges)})
}

func (h *ChallengeHandler) Get(w http.ResponseWriter, r *http.Request) {
	challenge, err := h.service.Find(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, challenge, nil)
}

func (h *ChallengeHandler) Create(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.CreateChallengeRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.BadRequest("invalid JSON body", ""))
		return
	}

	problems, deadline := payload.Validate(time.Now())
	if len(problems) > 0 {
		writeValidationError(w, problems)
		return
	}

	challenge, err := h.service.Create(r.Context(), payload, deadline)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, challenge, nil)
}

func (h *ChallengeHandler) Edit(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.EditChallengeRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.BadRequest("invalid JSON body", ""))
		return
	}

	problems, deadline := payload.Validate(time.Now())
	if len(problems) > 0 {
		writeValidationError(w, problems)
		return
	}

	challenge, err := h.service.Edit(r.Context(), chi.URLParam(r, "id"), payload, deadline)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, challenge, nil)
}

func (h *ChallengeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"deleted": true}, nil)
}

func (h *ChallengeHandler) Join(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, model.ErrUnauthorized)
		return
	}

	challenge, err := h.service.Join(r.Context(), claims.UserID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, challenge, nil)
}

func (h *ChallengeHandler) Leave(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, model.ErrUnauthorized)
		return
	}

	if err := h.service.Leave(r.Context(), claims.UserID, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"left": true}, nil)
}
