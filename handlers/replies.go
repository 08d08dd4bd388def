// campusvoice/handlers/replies.go
package handlers

import (
	"net/http"
)

type createReplyRequest struct {
	ProblemID     int64  `json:"problem_id"`
	Text          string `json:"text"`
	DeviceID      string `json:"device_id"`
	ParentReplyID *int64 `json:"parent_reply_id"`
}

// HandleCreateReply adds a reply to a problem, optionally under another reply.
func HandleCreateReply(w http.ResponseWriter, r *http.Request, app App) {
	logger := app.Logger().With("handler", "HandleCreateReply")

	var req createReplyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, err, app, logger)
		return
	}
	deviceID, err := deviceFor(r, req.DeviceID)
	if err != nil {
		respondError(w, err, app, logger)
		return
	}
	draft, err := cleanReply(req.ProblemID, req.Text, deviceID, req.ParentReplyID)
	if err != nil {
		respondError(w, err, app, logger)
		return
	}

	reply, err := app.DB().AddReply(r.Context(), draft)
	if err != nil {
		respondError(w, err, app, logger)
		return
	}
	respondJSON(w, http.StatusCreated, reply, app)
}

type deleteReplyRequest struct {
	ReplyID  int64  `json:"reply_id"`
	DeviceID string `json:"device_id"`
}

// HandleDeleteReply deletes a reply owned by the caller along with everything beneath it.
func HandleDeleteReply(w http.ResponseWriter, r *http.Request, app App) {
	logger := app.Logger().With("handler", "HandleDeleteReply")

	var req deleteReplyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, err, app, logger)
		return
	}
	if err := requireID("reply_id", req.ReplyID); err != nil {
		respondError(w, err, app, logger)
		return
	}
	deviceID, err := deviceFor(r, req.DeviceID)
	if err != nil {
		respondError(w, err, app, logger)
		return
	}

	deletedID, err := app.DB().DeleteReply(r.Context(), req.ReplyID, deviceID)
	if err != nil {
		respondError(w, err, app, logger)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "deletedId": deletedID}, app)
}
