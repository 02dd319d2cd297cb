// Package auth exchanges Microsoft authorization codes for tokens on
// behalf of the chat widget, which cannot hold the client secret.
package auth

import (
	"encoding/json"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/microsoft"

	"github.com/cloudshift-ai/migbot/internal/log"
)

// Config holds the Azure AD application settings.
type Config struct {
	ClientID     string
	ClientSecret string
	Tenant       string // "common" for multi-tenant apps
	RedirectURL  string
	Scopes       []string
}

// Handler performs the authorization-code exchange.
type Handler struct {
	oauth  *oauth2.Config
	logger log.Logger
}

// NewHandler creates the exchange handler, or nil when no client ID
// is configured so the route stays unregistered.
func NewHandler(cfg Config, logger log.Logger) *Handler {
	if cfg.ClientID == "" {
		return nil
	}
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{"openid", "profile", "email", "offline_access"}
	}
	return &Handler{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     microsoft.AzureADEndpoint(cfg.Tenant),
			RedirectURL:  cfg.RedirectURL,
			Scopes:       scopes,
		},
		logger: logger,
	}
}

// RegisterRoutes registers the token route on the given mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /auth/token", h.handleToken)
}

// TokenRequest is the exchange request body.
type TokenRequest struct {
	Code        string `json:"code"`
	RedirectURI string `json:"redirect_uri,omitempty"`
}

// TokenResponse is the exchange response body.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

func (h *Handler) handleToken(w http.ResponseWriter, r *http.Request) {
	var req TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Code == "" {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "code is required"})
		return
	}

	cfg := *h.oauth
	if req.RedirectURI != "" {
		cfg.RedirectURL = req.RedirectURI
	}

	token, err := cfg.Exchange(r.Context(), req.Code)
	if err != nil {
		h.logger.Error("token exchange failed", "error", err)
		h.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "token exchange failed"})
		return
	}

	h.writeJSON(w, http.StatusOK, TokenResponse{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenType:    token.TokenType,
		ExpiresIn:    int64(time.Until(token.Expiry).Seconds()),
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode JSON response", "error", err)
	}
}
