package handler

import (
	"net/http"
	"time"

	"github.com/contentdesk/admin-api/internal/config"
)

// CookieConfig controls the refresh-token cookie. MaxAge may outlive the
// token itself; an expired token in a live cookie is rejected by the verifier.
type CookieConfig struct {
	MaxAge time.Duration
	Secure bool
}

func setRefreshCookie(w http.ResponseWriter, token string, cfg CookieConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     config.RefreshCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(cfg.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func clearRefreshCookie(w http.ResponseWriter, cfg CookieConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     config.RefreshCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func readRefreshCookie(r *http.Request) string {
	cookie, err := r.Cookie(config.RefreshCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}
