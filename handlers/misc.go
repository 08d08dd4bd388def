// campusvoice/handlers/misc.go
package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"campusvoice/config"
	"campusvoice/identity"
	"campusvoice/models"
	"campusvoice/utils"
)

// HandleVisitors records the caller as a visitor and returns the distinct total.
func HandleVisitors(w http.ResponseWriter, r *http.Request, app App) {
	logger := app.Logger().With("handler", "HandleVisitors")

	var req syncRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, err, app, logger)
		return
	}
	deviceID, err := deviceFor(r, req.DeviceID)
	if err != nil {
		respondError(w, err, app, logger)
		return
	}
	total, err := app.Visitors().RecordVisitor(r.Context(), deviceID)
	if err != nil {
		respondError(w, err, app, logger)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int64{"total_visitors": total}, app)
}

type suggestRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// HandleSuggest asks the assistant for solution ideas on a draft problem.
func HandleSuggest(w http.ResponseWriter, r *http.Request, app App) {
	logger := app.Logger().With("handler", "HandleSuggest")

	var req suggestRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, err, app, logger)
		return
	}
	title := utils.CleanText(req.Title)
	description := utils.CleanText(req.Description)
	if title == "" || description == "" {
		respondError(w, models.Invalid("", "Title and description are required"), app, logger)
		return
	}
	if err := checkLen("title", title, config.MaxTitleLen); err != nil {
		respondError(w, err, app, logger)
		return
	}
	if err := checkLen("description", description, config.MaxDescriptionLen); err != nil {
		respondError(w, err, app, logger)
		return
	}

	suggestion, err := app.Assistant().Suggest(r.Context(), title, description, utils.CleanText(req.Category))
	if err != nil {
		respondError(w, err, app, logger)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"suggestion": suggestion}, app)
}

type identityResponse struct {
	DeviceID  string     `json:"device_id"`
	Token     string     `json:"token,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// HandleIdentity hands out a device id and, when signing is configured, a
// token bound to it. A device_id in the body is adopted instead of minting a
// new one so existing clients can upgrade to tokens.
func HandleIdentity(w http.ResponseWriter, r *http.Request, app App) {
	logger := app.Logger().With("handler", "HandleIdentity")

	var req syncRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			respondError(w, err, app, logger)
			return
		}
	}

	var deviceID string
	if id, ok := identity.FromContext(r.Context()); ok && id.Source == identity.SourceIssued {
		deviceID = id.DeviceID
	} else {
		deviceID = identity.NewDeviceID()
	}
	if strings.TrimSpace(req.DeviceID) != "" {
		var err error
		if deviceID, err = deviceFor(r, req.DeviceID); err != nil {
			respondError(w, err, app, logger)
			return
		}
	}

	resp := identityResponse{DeviceID: deviceID}
	token, expires, err := app.Identity().Issue(deviceID)
	if err != nil {
		respondError(w, err, app, logger)
		return
	}
	if token != "" {
		resp.Token = token
		resp.ExpiresAt = &expires
	}
	app.Identity().SetCookie(w, r, deviceID)
	logger.Info("Issued device identity", "device", utils.HashDevice(deviceID), "signed", token != "")
	respondJSON(w, http.StatusOK, resp, app)
}

// HandleHealth reports whether the database answers.
func HandleHealth(w http.ResponseWriter, r *http.Request, app App) {
	logger := app.Logger().With("handler", "HandleHealth")

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := app.DB().Ping(ctx); err != nil {
		logger.Error("Database ping failed", "error", err)
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()}, app)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"driver":  app.DB().Driver(),
		"version": config.AppVersion,
	}, app)
}
