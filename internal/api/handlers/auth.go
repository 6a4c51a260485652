package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dom/auth-gateway/internal/config"
	"github.com/dom/auth-gateway/internal/domain"
	"github.com/dom/auth-gateway/internal/service"
	"github.com/dom/auth-gateway/internal/token"
)

type AuthHandler struct {
	auth      *service.AuthService
	magicLink *service.MagicLinkService
	federated *service.FederatedService
	cfg       *config.Config
}

func NewAuthHandler(auth *service.AuthService, magicLink *service.MagicLinkService, federated *service.FederatedService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{auth: auth, magicLink: magicLink, federated: federated, cfg: cfg}
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

type MagicLinkRequest struct {
	Email string `json:"email"`
}

type MagicLinkVerifyRequest struct {
	Token string `json:"token"`
}

type GoogleAuthRequest struct {
	Credential string `json:"credential"`
}

type AppleAuthRequest struct {
	IDToken string           `json:"id_token"`
	User    *AppleUserObject `json:"user,omitempty"`
}

// AppleUserObject is the extra payload Apple attaches to the first
// sign-in only.
type AppleUserObject struct {
	Name *AppleUserName `json:"name,omitempty"`
}

type AppleUserName struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type UserResponse struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	FullName   string `json:"full_name,omitempty"`
	AvatarURL  string `json:"avatar_url,omitempty"`
	IsActive   bool   `json:"is_active"`
	IsVerified bool   `json:"is_verified"`
}

func newUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:         u.ID.String(),
		Email:      u.Email,
		FullName:   u.FullName,
		AvatarURL:  u.AvatarURL,
		IsActive:   u.IsActive,
		IsVerified: u.IsVerified,
	}
}

func (h *AuthHandler) LoginEmail(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Email == "" || req.Password == "" {
		http.Error(w, "Email and password are required", http.StatusBadRequest)
		return
	}

	pair, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeTokens(w, pair)
}

func (h *AuthHandler) RegisterEmail(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Email == "" || req.Password == "" {
		http.Error(w, "Email and password are required", http.StatusBadRequest)
		return
	}

	user, err := h.auth.Register(r.Context(), service.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, newUserResponse(user))
}

func (h *AuthHandler) MagicLinkRequest(w http.ResponseWriter, r *http.Request) {
	var req MagicLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Email == "" {
		http.Error(w, "Email is required", http.StatusBadRequest)
		return
	}

	if err := h.magicLink.Request(r.Context(), req.Email); err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, MessageResponse{Message: "Magic link sent to email"})
}

func (h *AuthHandler) MagicLinkVerify(w http.ResponseWriter, r *http.Request) {
	var req MagicLinkVerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Token == "" {
		http.Error(w, "Token is required", http.StatusBadRequest)
		return
	}

	pair, err := h.magicLink.Verify(r.Context(), req.Token)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeTokens(w, pair)
}

func (h *AuthHandler) Google(w http.ResponseWriter, r *http.Request) {
	var req GoogleAuthRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Credential == "" {
		http.Error(w, "Credential is required", http.StatusBadRequest)
		return
	}

	pair, err := h.federated.Login(r.Context(), domain.ProviderGoogle, req.Credential, nil)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeTokens(w, pair)
}

func (h *AuthHandler) Apple(w http.ResponseWriter, r *http.Request) {
	var req AppleAuthRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.IDToken == "" {
		http.Error(w, "Missing identity token", http.StatusBadRequest)
		return
	}

	var firstLogin *service.FirstLoginName
	if req.User != nil && req.User.Name != nil {
		firstLogin = &service.FirstLoginName{
			FirstName: req.User.Name.FirstName,
			LastName:  req.User.Name.LastName,
		}
	}

	pair, err := h.federated.Login(r.Context(), domain.ProviderApple, req.IDToken, firstLogin)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeTokens(w, pair)
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	// Body is optional; the refresh token may ride in the cookie instead.
	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	refreshToken := req.RefreshToken
	if refreshToken == "" {
		if cookie, err := r.Cookie("refresh_token"); err == nil {
			refreshToken = cookie.Value
		}
	}
	if refreshToken == "" {
		http.Error(w, "Refresh token is required", http.StatusBadRequest)
		return
	}

	pair, err := h.auth.Refresh(r.Context(), refreshToken)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeTokens(w, pair)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.clearCookie(w, "access_token")
	h.clearCookie(w, "refresh_token")
	writeJSON(w, MessageResponse{Message: "Successfully logged out"})
}

// Config is a read-only reflection of the provider enablement policy.
func (h *AuthHandler) Config(w http.ResponseWriter, r *http.Request) {
	providers := h.cfg.Providers

	resp := map[string]interface{}{
		"providers": map[string]interface{}{
			"email_password": map[string]interface{}{
				"enabled":            providers.EmailPassword.Enabled,
				"allow_registration": providers.EmailPassword.AllowRegistration,
			},
			"google": map[string]interface{}{
				"enabled":   providers.Google.Active(),
				"client_id": googleClientID(providers),
			},
			"apple": map[string]interface{}{
				"enabled": providers.Apple.Active(),
			},
			"magic_link": map[string]interface{}{
				"enabled":         providers.MagicLink.Enabled,
				"allow_new_users": providers.MagicLink.AllowNewUsers,
			},
		},
		"enabled_providers": providers.Enabled(),
	}

	writeJSON(w, resp)
}

// The Google client id is public by design, but only exposed while the
// provider is active.
func googleClientID(p config.Providers) string {
	if p.Google.Active() {
		return p.Google.ClientID
	}
	return ""
}

func (h *AuthHandler) writeTokens(w http.ResponseWriter, pair *token.Pair) {
	h.setCookie(w, "access_token", pair.AccessToken, int(h.cfg.AccessTokenExpiry.Seconds()))
	h.setCookie(w, "refresh_token", pair.RefreshToken, int(h.cfg.RefreshTokenExpiry.Seconds()))
	writeJSON(w, pair)
}

func (h *AuthHandler) setCookie(w http.ResponseWriter, name, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
}

// writeError maps the domain error taxonomy onto HTTP status classes.
// Outside production with debug on, the underlying detail is echoed.
func (h *AuthHandler) writeError(w http.ResponseWriter, err error) {
	var status int
	switch {
	case errors.Is(err, domain.ErrProviderDisabled),
		errors.Is(err, domain.ErrRegistrationDisabled):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrInvalidCredentials),
		errors.Is(err, domain.ErrAccountDisabled),
		errors.Is(err, domain.ErrInvalidSession):
		status = http.StatusUnauthorized
	case errors.Is(err, domain.ErrInvalidToken),
		errors.Is(err, domain.ErrInvalidAssertion):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrEmailExists):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrUserNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		status = http.StatusServiceUnavailable
	default:
		if h.cfg.Debug && !h.cfg.IsProduction() {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	http.Error(w, errorMessage(err), status)
}

// errorMessage strips wrapping detail down to the taxonomy sentinel so
// responses never leak which verification step failed.
func errorMessage(err error) string {
	for _, sentinel := range []error{
		domain.ErrProviderDisabled,
		domain.ErrRegistrationDisabled,
		domain.ErrInvalidCredentials,
		domain.ErrAccountDisabled,
		domain.ErrInvalidSession,
		domain.ErrInvalidToken,
		domain.ErrInvalidAssertion,
		domain.ErrEmailExists,
		domain.ErrUserNotFound,
		domain.ErrUpstreamUnavailable,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return err.Error()
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
