package web

import (
	"context"
	"net/http"
	"time"

	"shop-admin/internal/observability"
	"shop-admin/internal/web/shopclient"
)

// CookieName holds the raw session token in the browser.
const CookieName = "X-Access-Token"

// SetSessionCookie stores token so that the cookie and the token expire
// together.
func SetSessionCookie(w http.ResponseWriter, token string, expiresAt time.Time, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt.UTC(),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func ClearSessionCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0).UTC(),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// HasSession reports whether the browser sent a session cookie. The token is
// not checked here; only the API decides whether it is valid.
func HasSession(r *http.Request) bool {
	cookie, err := r.Cookie(CookieName)
	return err == nil && cookie.Value != ""
}

// Attach copies the session cookie of the browser request into out as a
// bearer credential. The value is forwarded verbatim. Without a cookie out is
// left untouched.
func Attach(out, in *http.Request) {
	if out == nil || in == nil {
		return
	}
	cookie, err := in.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return
	}
	out.Header.Set("Authorization", "Bearer "+cookie.Value)
}

// BearerFromCookie returns an editor that attaches the session of in to each
// API call it is passed to. The cookie is read again on every call.
func BearerFromCookie(in *http.Request) shopclient.RequestEditorFn {
	return func(_ context.Context, out *http.Request) error {
		Attach(out, in)
		return nil
	}
}

// ForwardClientIP returns an editor that tells the API which browser the call
// is made for, so the API throttles credential attempts per browser instead
// of per web server. The API only believes it from a trusted proxy.
func ForwardClientIP(in *http.Request, proxies *observability.TrustedProxies) shopclient.RequestEditorFn {
	return func(_ context.Context, out *http.Request) error {
		out.Header.Set("X-Forwarded-For", proxies.ClientIP(in))
		return nil
	}
}
