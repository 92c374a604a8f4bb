package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/mr-tron/base58"

	"github.com/cloudmesh/ledger/internal/domain"
	"github.com/cloudmesh/ledger/internal/service"
)

// AuthHandler handles the keypair login endpoints.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

type challengeRequest struct {
	PublicKey string `json:"public_key" validate:"required"`
}

// Challenge issues a login nonce for a public key.
func (h *AuthHandler) Challenge(w http.ResponseWriter, r *http.Request) {
	var body challengeRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		WriteError(w, fmt.Errorf("%w: invalid request body", domain.ErrInvalidInput))
		return
	}
	if err := validateStruct(body); err != nil {
		WriteError(w, err)
		return
	}

	key, err := domain.ParsePublicKey(body.PublicKey)
	if err != nil {
		WriteError(w, err)
		return
	}

	c, err := h.auth.NewChallenge(key)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, c)
}

type loginRequest struct {
	PublicKey string `json:"public_key" validate:"required"`
	Nonce     string `json:"nonce" validate:"required"`
	Signature string `json:"signature" validate:"required"`
}

// Login verifies a signed nonce and returns a token pair. The signature is
// base58 over the nonce bytes.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var body loginRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		WriteError(w, fmt.Errorf("%w: invalid request body", domain.ErrInvalidInput))
		return
	}
	if err := validateStruct(body); err != nil {
		WriteError(w, err)
		return
	}

	key, err := domain.ParsePublicKey(body.PublicKey)
	if err != nil {
		WriteError(w, err)
		return
	}
	signature, err := base58.Decode(body.Signature)
	if err != nil {
		WriteError(w, fmt.Errorf("%w: malformed signature", domain.ErrInvalidInput))
		return
	}

	pair, err := h.auth.Login(key, body.Nonce, signature)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, pair)
}

// Refresh generates a new token pair from a refresh token.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		WriteError(w, fmt.Errorf("%w: invalid request body", domain.ErrInvalidInput))
		return
	}
	if body.RefreshToken == "" {
		WriteError(w, fmt.Errorf("%w: refresh_token is required", domain.ErrInvalidInput))
		return
	}

	pair, err := h.auth.RefreshTokenPair(body.RefreshToken)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, pair)
}
