package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/cloudshift-ai/migbot/internal/log"
)

func testHandler(t *testing.T) *Handler {
	t.Helper()
	h := NewHandler(Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		Tenant:       "common",
	}, log.NewNop())
	require.NotNil(t, h)
	return h
}

func exchange(h *Handler, body string) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	req := httptest.NewRequest(http.MethodPost, "/auth/token", strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestNewHandlerWithoutClientID(t *testing.T) {
	t.Parallel()

	assert.Nil(t, NewHandler(Config{}, log.NewNop()), "no client id disables the route")
}

func TestNewHandlerDefaultScopes(t *testing.T) {
	t.Parallel()

	h := testHandler(t)
	assert.Contains(t, h.oauth.Scopes, "offline_access")
}

func TestTokenMissingCode(t *testing.T) {
	t.Parallel()

	rec := exchange(testHandler(t), `{"redirect_uri": "https://app.example/cb"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "code is required", resp["error"])
}

func TestTokenInvalidBody(t *testing.T) {
	t.Parallel()

	rec := exchange(testHandler(t), "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTokenExchange(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		assert.Equal(t, "auth-code-123", r.FormValue("code"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "at-456",
			"refresh_token": "rt-789",
			"token_type":    "Bearer",
			"expires_in":    3600,
		})
	}))
	defer ts.Close()

	h := testHandler(t)
	h.oauth.Endpoint = oauth2.Endpoint{TokenURL: ts.URL}

	rec := exchange(h, `{"code": "auth-code-123"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "at-456", resp.AccessToken)
	assert.Equal(t, "rt-789", resp.RefreshToken)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.InDelta(t, 3600, resp.ExpiresIn, 10)
}

func TestTokenExchangeFailure(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error": "invalid_grant"}`, http.StatusBadRequest)
	}))
	defer ts.Close()

	h := testHandler(t)
	h.oauth.Endpoint = oauth2.Endpoint{TokenURL: ts.URL}

	rec := exchange(h, `{"code": "expired-code"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "token exchange failed", resp["error"])
}
