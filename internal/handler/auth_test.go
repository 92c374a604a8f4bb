package handler

import (
	"crypto/ed25519"
	"crypto/rand"
	"net/http"
	"testing"

	"github.com/mr-tron/base58"

	"github.com/cloudmesh/ledger/internal/service"
)

func TestAuthAPI_ChallengeLoginRefresh(t *testing.T) {
	api := newTestAPI(t)

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	key := base58.Encode(pub)

	rec := api.do(t, http.MethodPost, "/api/v1/auth/challenge", "", map[string]any{
		"public_key": key,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("challenge status = %d, body = %s", rec.Code, rec.Body.String())
	}
	challenge := decodeData[service.Challenge](t, rec)
	if challenge.Nonce == "" {
		t.Fatal("empty nonce")
	}

	sig := ed25519.Sign(priv, []byte(challenge.Nonce))
	rec = api.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"public_key": key,
		"nonce":      challenge.Nonce,
		"signature":  base58.Encode(sig),
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, body = %s", rec.Code, rec.Body.String())
	}
	pair := decodeData[service.TokenPair](t, rec)
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("pair = %+v", pair)
	}

	rec = api.do(t, http.MethodPost, "/api/v1/auth/refresh", "", map[string]any{
		"refresh_token": pair.RefreshToken,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestAuthAPI_LoginWrongKey(t *testing.T) {
	api := newTestAPI(t)

	pub, _, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	_, otherPriv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	key := base58.Encode(pub)

	rec := api.do(t, http.MethodPost, "/api/v1/auth/challenge", "", map[string]any{
		"public_key": key,
	})
	challenge := decodeData[service.Challenge](t, rec)

	sig := ed25519.Sign(otherPriv, []byte(challenge.Nonce))
	rec = api.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"public_key": key,
		"nonce":      challenge.Nonce,
		"signature":  base58.Encode(sig),
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestAuthAPI_MalformedPublicKey(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/api/v1/auth/challenge", "", map[string]any{
		"public_key": "not-base58-0OIl",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
