package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gdg-garage/ecopoints-api/internal/config"
	"github.com/gdg-garage/ecopoints-api/internal/models"
	"github.com/gdg-garage/ecopoints-api/internal/services"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

const (
	DiscordAuthorizeEndpoint = "https://discord.com/api/oauth2/authorize"
	DiscordTokenEndpoint     = "https://discord.com/api/oauth2/token"
	DiscordUserAPI           = "https://discord.com/api/users/@me"

	stateCookie = "oauth_state"
)

type AuthHandler struct {
	oauthConfig *oauth2.Config
	tokens      *TokenIssuer
	identity    *services.IdentityService
	apiKeys     *services.APIKeyService
	log         logrus.FieldLogger

	// userAPI is the Discord profile endpoint, replaceable in tests.
	userAPI string
}

func NewAuthHandler(cfg *config.Config, identity *services.IdentityService, apiKeys *services.APIKeyService, log logrus.FieldLogger) *AuthHandler {
	return &AuthHandler{
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.DiscordClientID,
			ClientSecret: cfg.DiscordClientSecret,
			RedirectURL:  cfg.DiscordRedirectURL,
			Scopes:       []string{"identify", "email"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  DiscordAuthorizeEndpoint,
				TokenURL: DiscordTokenEndpoint,
			},
		},
		tokens:   NewTokenIssuer(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL),
		identity: identity,
		apiKeys:  apiKeys,
		log:      log,
		userAPI:  DiscordUserAPI,
	}
}

func (h *AuthHandler) Tokens() *TokenIssuer {
	return h.tokens
}

// Refresh exchanges a refresh token for a new access token. The refresh
// token itself is handed back unchanged.
func (h *AuthHandler) Refresh(ctx context.Context, refreshToken string) (TokenPair, *models.User, error) {
	userID, err := h.tokens.Parse(refreshToken, TokenTypeRefresh)
	if err != nil {
		return TokenPair{}, nil, &services.AuthenticationError{Message: "invalid refresh token"}
	}

	user, err := h.identity.Get(ctx, userID)
	if err != nil {
		var nf *services.NotFoundError
		if errors.As(err, &nf) {
			return TokenPair{}, nil, &services.AuthenticationError{Message: "invalid refresh token"}
		}
		return TokenPair{}, nil, err
	}
	if !user.Active {
		return TokenPair{}, nil, &services.AuthorizationError{Message: "account is disabled"}
	}

	access, err := h.tokens.IssueAccess(user.ID)
	if err != nil {
		return TokenPair{}, nil, err
	}
	return TokenPair{Access: access, Refresh: refreshToken}, user, nil
}

func (h *AuthHandler) HandleDiscordLogin(w http.ResponseWriter, r *http.Request) {
	state := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Expires:  time.Now().Add(10 * time.Minute),
		HttpOnly: true,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
	})
	url := h.oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOnline)
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

// loginUser uses the same camelCase field names as the users API.
type loginUser struct {
	ID              uint      `json:"id"`
	Username        string    `json:"username"`
	FirstName       string    `json:"firstName"`
	LastName        string    `json:"lastName"`
	Avatar          string    `json:"avatar"`
	PointsTotal     int       `json:"pointsTotal"`
	Level           int       `json:"level"`
	CO2AvoidedTotal string    `json:"co2AvoidedTotal"`
	Email           string    `json:"email"`
	Role            string    `json:"role"`
	Active          bool      `json:"active"`
	CreatedAt       time.Time `json:"createdAt"`
}

func newLoginUser(u models.User) loginUser {
	return loginUser{
		ID:              u.ID,
		Username:        u.Username,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		Avatar:          u.Avatar,
		PointsTotal:     u.PointsTotal,
		Level:           u.Level,
		CO2AvoidedTotal: u.CO2AvoidedTotal.StringFixed(2),
		Email:           u.Email,
		Role:            string(u.Role),
		Active:          u.Active,
		CreatedAt:       u.CreatedAt,
	}
}

type discordLoginResponse struct {
	User   loginUser `json:"user"`
	Tokens TokenPair `json:"tokens"`
}

func (h *AuthHandler) HandleDiscordCallback(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(stateCookie)
	if err != nil || cookie.Value == "" || cookie.Value != r.URL.Query().Get("state") {
		http.Error(w, "Invalid OAuth state", http.StatusBadRequest)
		return
	}
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Value: "", Path: "/", MaxAge: -1})

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "Code not found", http.StatusBadRequest)
		return
	}

	token, err := h.oauthConfig.Exchange(r.Context(), code)
	if err != nil {
		h.log.WithError(err).Warn("discord token exchange failed")
		http.Error(w, "Failed to exchange token", http.StatusBadGateway)
		return
	}

	client := h.oauthConfig.Client(r.Context(), token)
	resp, err := client.Get(h.userAPI)
	if err != nil {
		h.log.WithError(err).Warn("discord user lookup failed")
		http.Error(w, "Failed to get user info", http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	var discordUser struct {
		ID       string `json:"id"`
		Username string `json:"username"`
		Email    string `json:"email"`
		Avatar   string `json:"avatar"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&discordUser); err != nil {
		http.Error(w, "Failed to decode user info", http.StatusBadGateway)
		return
	}

	user, err := h.identity.LoginWithDiscord(r.Context(), services.DiscordProfile{
		ID:       discordUser.ID,
		Username: discordUser.Username,
		Email:    discordUser.Email,
		Avatar:   discordUser.Avatar,
	})
	if err != nil {
		var (
			conflict *services.ConflictError
			authz    *services.AuthorizationError
			authn    *services.AuthenticationError
		)
		switch {
		case errors.As(err, &conflict):
			http.Error(w, conflict.Message, http.StatusConflict)
		case errors.As(err, &authz):
			http.Error(w, authz.Message, http.StatusForbidden)
		case errors.As(err, &authn):
			http.Error(w, authn.Message, http.StatusUnauthorized)
		default:
			h.log.WithError(err).Error("discord login failed")
			http.Error(w, "Failed to save user", http.StatusInternalServerError)
		}
		return
	}

	pair, err := h.tokens.Issue(user.ID)
	if err != nil {
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	h.log.WithField("user_id", user.ID).Info("discord login")
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(discordLoginResponse{User: newLoginUser(*user), Tokens: pair})
}
