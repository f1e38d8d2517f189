package handler

import (
	"net/http"

	"github.com/mtlprog/taskflow/internal/accounts"
	"github.com/mtlprog/taskflow/internal/handler/dto"
)

// handleRegister creates an account.
func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.accounts.Register(r.Context(), accounts.RegisterParams{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, dto.ToUserResponse(user))
}

// handleLogin exchanges credentials for an access token.
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	session, err := h.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.LoginResponse{
		Token:     session.Token.Value,
		ExpiresAt: session.Token.ExpiresAt,
		User:      dto.ToUserResponse(session.User),
	})
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.accounts.List(r.Context())
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.ToUserResponses(users))
}

func (h *Handler) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := extractID(w, r)
	if !ok {
		return
	}

	user, err := h.accounts.Get(r.Context(), id)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.ToUserResponse(user))
}
