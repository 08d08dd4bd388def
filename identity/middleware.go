// campusvoice/identity/middleware.go
package identity

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"campusvoice/utils"
)

// DeviceHeader lets non-browser clients present their device id directly.
const DeviceHeader = "X-Device-ID"

// Middleware resolves the caller's device id and stores it in the request
// context. Precedence: a verified bearer token, the X-Device-ID header, the
// device cookie. Callers presenting none get a new id in a cookie.
func (p *Provider) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := p.resolve(r)
		if err != nil {
			p.logger.Warn("Rejected device credentials", "error", err, "ip", r.RemoteAddr)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			json.NewEncoder(w).Encode(map[string]string{"error": "invalid device token"})
			return
		}
		if id.DeviceID == "" {
			id = Identity{DeviceID: NewDeviceID(), Source: SourceIssued}
			p.SetCookie(w, r, id.DeviceID)
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

func (p *Provider) resolve(r *http.Request) (Identity, error) {
	if auth := r.Header.Get("Authorization"); p.Signing() && strings.HasPrefix(auth, "Bearer ") {
		deviceID, err := p.Verify(strings.TrimSpace(strings.TrimPrefix(auth, "Bearer ")))
		if err != nil {
			return Identity{}, err
		}
		return Identity{DeviceID: deviceID, Source: SourceToken}, nil
	}
	if h := strings.TrimSpace(r.Header.Get(DeviceHeader)); h != "" && ValidateDeviceID(h) == nil {
		return Identity{DeviceID: h, Source: SourceHeader}, nil
	}
	if c, err := r.Cookie(p.cookieName); err == nil && ValidateDeviceID(c.Value) == nil {
		return Identity{DeviceID: c.Value, Source: SourceCookie}, nil
	}
	return Identity{}, nil
}

// SetCookie persists deviceID in the device cookie for a year.
func (p *Provider) SetCookie(w http.ResponseWriter, r *http.Request, deviceID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     p.cookieName,
		Value:    deviceID,
		Path:     "/",
		Expires:  utils.GetTime().Add(365 * 24 * time.Hour),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}
