package http

import (
	"net/http"
	"time"

	"github.com/vncsmyrnk/ballot/internal/core/ports"
)

type CookieOptions struct {
	Domain   string
	Secure   bool
	SameSite http.SameSite
	MaxAge   time.Duration
}

type AuthHandler struct {
	authService ports.AuthService
	redirectURL string
	cookie      CookieOptions
}

func NewAuthHandler(authService ports.AuthService, redirectURL string, cookie CookieOptions) *AuthHandler {
	if cookie.MaxAge <= 0 {
		cookie.MaxAge = 15 * time.Minute
	}
	return &AuthHandler{
		authService: authService,
		redirectURL: redirectURL,
		cookie:      cookie,
	}
}

// GoogleCallback godoc
// @Summary      Signs a user in with a Google credential
// @Description  Receives the Google Identity Services form post and sets the access token cookie used by `/api` calls.
// @Tags         auth
// @Accept       x-www-form-urlencoded
// @Param        credential  formData  string  true  "Google ID token"
// @Success      303
// @Failure      400  {object}  errorResponse
// @Failure      401  {object}  errorResponse
// @Failure      500  {object}  errorResponse
// @Router       /auth/google/callback [post]
func (h *AuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Failed to parse form")
		return
	}

	credential := r.FormValue("credential")
	if credential == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "Missing credential")
		return
	}

	accessToken, err := h.authService.LoginWithGoogle(r.Context(), credential)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	h.setAccessTokenCookie(w, accessToken)
	http.Redirect(w, r, h.redirectURL, http.StatusSeeOther)
}

// Logout godoc
// @Summary      Logs the authenticated user out
// @Description  Clears the access token cookie
// @Tags         auth
// @Success      200
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{Name: accessTokenCookie, MaxAge: -1, Path: "/", Domain: h.cookie.Domain})
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *AuthHandler) setAccessTokenCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     accessTokenCookie,
		Value:    token,
		Path:     "/",
		Domain:   h.cookie.Domain,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: h.cookie.SameSite,
		MaxAge:   int(h.cookie.MaxAge.Seconds()),
	})
}
