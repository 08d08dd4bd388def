// campusvoice/identity/identity.go
package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"campusvoice/config"
	"campusvoice/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DevicePrefix starts every server-issued device id.
const DevicePrefix = "user_"

// Source records how a request's device id was established.
type Source string

const (
	SourceToken  Source = "token"
	SourceHeader Source = "header"
	SourceCookie Source = "cookie"
	SourceIssued Source = "issued"
)

// Identity is the pseudonymous actor behind a request.
type Identity struct {
	DeviceID string
	Source   Source
}

// Verified reports whether the device id came from a signed token.
func (i Identity) Verified() bool { return i.Source == SourceToken }

type contextKey struct{}

// WithIdentity stores id in ctx.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the identity set by the middleware, if any.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(Identity)
	return id, ok && id.DeviceID != ""
}

// NewDeviceID returns a fresh pseudonymous id such as user_3f9a0c1b7d2e4f60.
func NewDeviceID() string {
	return DevicePrefix + strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
}

// ValidateDeviceID accepts any non-empty printable id without whitespace up to the length limit.
func ValidateDeviceID(id string) error {
	if id == "" {
		return models.Invalid("device_id", "is required")
	}
	if len(id) > config.MaxDeviceIDLen {
		return models.Invalid("device_id", fmt.Sprintf("must be at most %d characters", config.MaxDeviceIDLen))
	}
	for _, r := range id {
		if unicode.IsSpace(r) || !unicode.IsPrint(r) {
			return models.Invalid("device_id", "contains invalid characters")
		}
	}
	return nil
}

// DeviceClaims binds a device id to a signed token.
type DeviceClaims struct {
	jwt.RegisteredClaims
}

// Provider issues device ids and, when a secret is configured, signed tokens for them.
type Provider struct {
	secret     []byte
	ttl        time.Duration
	cookieName string
	logger     *slog.Logger
}

func NewProvider(cfg config.IdentityConfig, logger *slog.Logger) *Provider {
	name := cfg.CookieName
	if name == "" {
		name = "cv_device"
	}
	return &Provider{
		secret:     []byte(cfg.TokenSecret),
		ttl:        cfg.TokenTTL,
		cookieName: name,
		logger:     logger.With("component", "identity"),
	}
}

// Signing reports whether tokens are issued and verified.
func (p *Provider) Signing() bool { return len(p.secret) > 0 }

// CookieName is the cookie the device id is persisted in.
func (p *Provider) CookieName() string { return p.cookieName }

// Issue signs a token for deviceID. It returns an empty token when signing is off.
func (p *Provider) Issue(deviceID string) (string, time.Time, error) {
	if !p.Signing() {
		return "", time.Time{}, nil
	}
	now := time.Now()
	expiresAt := now.Add(p.ttl)
	claims := DeviceClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   deviceID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(p.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign device token: %w", err)
	}
	return signed, expiresAt, nil
}

var ErrInvalidToken = errors.New("invalid device token")

// Verify checks a token and returns the device id it was issued for.
func (p *Provider) Verify(tokenString string) (string, error) {
	if !p.Signing() {
		return "", &models.ConfigError{What: "device token signing"}
	}
	parsed, err := jwt.ParseWithClaims(tokenString, &DeviceClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return p.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := parsed.Claims.(*DeviceClaims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	if err := ValidateDeviceID(claims.Subject); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims.Subject, nil
}
