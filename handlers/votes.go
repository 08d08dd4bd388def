// campusvoice/handlers/votes.go
package handlers

import (
	"net/http"

	"campusvoice/models"
	"campusvoice/utils"
)

type voteRequest struct {
	ProblemID  int64  `json:"problem_id"`
	DeviceID   string `json:"device_id"`
	VoteType   string `json:"vote_type"`
	VoteOption string `json:"vote_option"`
}

// HandleVote toggles the caller's up/down vote and returns the new score.
func HandleVote(w http.ResponseWriter, r *http.Request, app App) {
	logger := app.Logger().With("handler", "HandleVote")

	var req voteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, err, app, logger)
		return
	}
	if err := requireID("problem_id", req.ProblemID); err != nil {
		respondError(w, err, app, logger)
		return
	}
	voteType := models.VoteType(req.VoteType)
	if !voteType.Valid() {
		respondError(w, models.Invalid("vote_type", "must be up or down"), app, logger)
		return
	}
	deviceID, err := deviceFor(r, req.DeviceID)
	if err != nil {
		respondError(w, err, app, logger)
		return
	}

	score, err := app.DB().CastVote(r.Context(), req.ProblemID, deviceID, voteType)
	if err != nil {
		respondError(w, err, app, logger)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"newScore": score}, app)
}

// HandlePollVote toggles the caller's yes/no answer on a problem's poll.
func HandlePollVote(w http.ResponseWriter, r *http.Request, app App) {
	logger := app.Logger().With("handler", "HandlePollVote")

	var req voteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, err, app, logger)
		return
	}
	if err := requireID("problem_id", req.ProblemID); err != nil {
		respondError(w, err, app, logger)
		return
	}
	option := models.PollOption(req.VoteOption)
	if !option.Valid() {
		respondError(w, models.Invalid("vote_option", "must be yes or no"), app, logger)
		return
	}
	deviceID, err := deviceFor(r, req.DeviceID)
	if err != nil {
		respondError(w, err, app, logger)
		return
	}

	if err := app.DB().CastPollVote(r.Context(), req.ProblemID, deviceID, option); err != nil {
		respondError(w, err, app, logger)
		return
	}
	logger.Debug("Poll vote recorded", "problem", req.ProblemID, "device", utils.HashDevice(deviceID))
	respondJSON(w, http.StatusOK, map[string]bool{"success": true}, app)
}

type syncRequest struct {
	DeviceID string `json:"device_id"`
}

// HandleSyncVotes returns every vote the caller currently holds.
func HandleSyncVotes(w http.ResponseWriter, r *http.Request, app App) {
	logger := app.Logger().With("handler", "HandleSyncVotes")

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
	votes, err := app.DB().ListVotes(r.Context(), deviceID)
	if err != nil {
		respondError(w, err, app, logger)
		return
	}
	respondJSON(w, http.StatusOK, votes, app)
}

// HandleSyncPollVotes returns every poll answer the caller currently holds.
func HandleSyncPollVotes(w http.ResponseWriter, r *http.Request, app App) {
	logger := app.Logger().With("handler", "HandleSyncPollVotes")

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
	votes, err := app.DB().ListPollVotes(r.Context(), deviceID)
	if err != nil {
		respondError(w, err, app, logger)
		return
	}
	respondJSON(w, http.StatusOK, votes, app)
}
