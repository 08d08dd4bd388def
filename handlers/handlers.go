// campusvoice/handlers/handlers.go

package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"campusvoice/config"
	"campusvoice/database"
	"campusvoice/identity"
	"campusvoice/models"
)

// maxBodyBytes caps every JSON request body.
const maxBodyBytes = 64 << 10

// App is an interface that defines the dependencies our handlers need.
type App interface {
	DB() *database.DatabaseService
	Logger() *slog.Logger
	Config() *config.Config
	Assistant() models.Assistant
	Visitors() models.VisitorCounter
	Identity() *identity.Provider
	// Backups may return nil, in which case backups stay in the backup directory.
	Backups() models.BackupStore
}

// respondJSON marshals a payload to JSON and writes it to the response.
func respondJSON(w http.ResponseWriter, status int, payload interface{}, app App) {
	response, err := json.Marshal(payload)
	if err != nil {
		app.Logger().Error("Failed to marshal JSON payload", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		if _, werr := w.Write([]byte(`{"error":"Failed to marshal JSON response"}`)); werr != nil {
			app.Logger().Error("Failed to write internal server error response", "error", werr)
		}
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(response); err != nil {
		app.Logger().Error("Failed to write JSON response", "error", err)
	}
}

// statusFor maps an error onto the HTTP status and client-facing message.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, models.ErrForbidden):
		// Never say which of the two it was.
		return http.StatusForbidden, "Unauthorized or not found"
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, models.ErrNotConfigured):
		return http.StatusInternalServerError, err.Error()
	case errors.Is(err, models.ErrUpstream):
		return http.StatusBadGateway, err.Error()
	}
	return http.StatusInternalServerError, err.Error()
}

// respondError writes err as {"error": "..."} and logs server-side failures.
func respondError(w http.ResponseWriter, err error, app App, logger *slog.Logger) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed", "status", status, "error", err)
	} else {
		logger.Debug("Request rejected", "status", status, "error", err)
	}
	respondJSON(w, status, map[string]string{"error": msg}, app)
}

// MakeHandler creates a standard http.HandlerFunc from our custom handler signature.
func MakeHandler(app App, fn func(http.ResponseWriter, *http.Request, App)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fn(w, r, app)
	}
}

// decodeJSON reads a size-limited JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(dst)
	var maxErr *http.MaxBytesError
	switch {
	case err == nil:
		return nil
	case errors.Is(err, io.EOF):
		return models.Invalid("", "request body is required")
	case errors.As(err, &maxErr):
		return models.Invalid("", fmt.Sprintf("request body must not exceed %d bytes", maxErr.Limit))
	}
	return models.Invalid("", "malformed JSON: "+err.Error())
}

// deviceFor picks the acting device: the body's device_id when sent,
// otherwise the identity the middleware resolved. A body id that disagrees
// with a verified token is refused.
func deviceFor(r *http.Request, bodyID string) (string, error) {
	bodyID = strings.TrimSpace(bodyID)
	id, ok := identity.FromContext(r.Context())
	if bodyID == "" {
		if ok {
			return id.DeviceID, nil
		}
		return "", models.Invalid("device_id", "is required")
	}
	if err := identity.ValidateDeviceID(bodyID); err != nil {
		return "", err
	}
	if ok && id.Verified() && id.DeviceID != bodyID {
		return "", fmt.Errorf("device_id does not match token: %w", models.ErrForbidden)
	}
	return bodyID, nil
}

func requireID(field string, id int64) error {
	if id <= 0 {
		return models.Invalid(field, "is required")
	}
	return nil
}
