// campusvoice/handlers/problems.go
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"campusvoice/config"
	"campusvoice/models"
	"campusvoice/utils"

	"github.com/go-chi/chi/v5"
)

// HandleListProblems serves the consolidated read model.
func HandleListProblems(w http.ResponseWriter, r *http.Request, app App) {
	logger := app.Logger().With("handler", "HandleListProblems")

	q := r.URL.Query()
	opts := models.ListOptions{
		Category: q.Get("category"),
		Sort:     q.Get("sort"),
	}
	var err error
	if opts.Limit, err = queryInt(q.Get("limit"), "limit"); err != nil {
		respondError(w, err, app, logger)
		return
	}
	if opts.Offset, err = queryInt(q.Get("offset"), "offset"); err != nil {
		respondError(w, err, app, logger)
		return
	}
	if opts.Category == "All" {
		opts.Category = ""
	}
	opts.Limit = min(opts.Limit, config.MaxPageSize)

	problems, err := app.DB().ListProblems(r.Context(), opts)
	if err != nil {
		respondError(w, err, app, logger)
		return
	}
	respondJSON(w, http.StatusOK, problems, app)
}

func queryInt(raw, field string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, models.Invalid(field, "must be a non-negative integer")
	}
	return n, nil
}

func pathID(r *http.Request, param string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil || id <= 0 {
		return 0, models.Invalid(param, "must be a positive integer")
	}
	return id, nil
}

// HandleGetProblem serves one enriched problem.
func HandleGetProblem(w http.ResponseWriter, r *http.Request, app App) {
	logger := app.Logger().With("handler", "HandleGetProblem")
	id, err := pathID(r, "problemID")
	if err != nil {
		respondError(w, err, app, logger)
		return
	}
	view, err := app.DB().GetProblem(r.Context(), id)
	if err != nil {
		respondError(w, err, app, logger)
		return
	}
	respondJSON(w, http.StatusOK, view, app)
}

// HandleReplyTree serves a problem's replies as nested trees.
func HandleReplyTree(w http.ResponseWriter, r *http.Request, app App) {
	logger := app.Logger().With("handler", "HandleReplyTree")
	id, err := pathID(r, "problemID")
	if err != nil {
		respondError(w, err, app, logger)
		return
	}
	view, err := app.DB().GetProblem(r.Context(), id)
	if err != nil {
		respondError(w, err, app, logger)
		return
	}
	respondJSON(w, http.StatusOK, models.BuildReplyForest(view.Replies), app)
}

type createProblemRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	DeviceID    string `json:"device_id"`
}

// HandleCreateProblem validates a submission, asks the assistant for a poll
// question outside any transaction, and stores the problem.
func HandleCreateProblem(w http.ResponseWriter, r *http.Request, app App) {
	logger := app.Logger().With("handler", "HandleCreateProblem")

	var req createProblemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, err, app, logger)
		return
	}
	deviceID, err := deviceFor(r, req.DeviceID)
	if err != nil {
		respondError(w, err, app, logger)
		return
	}
	draft, err := cleanProblem(req.Title, req.Description, req.Category, deviceID)
	if err != nil {
		if errors.Is(err, errProfanity) {
			logger.Info("Rejected problem with profanity", "device", utils.HashDevice(deviceID))
		}
		respondError(w, err, app, logger)
		return
	}

	question, err := app.Assistant().PollQuestion(r.Context(), draft.Title, draft.Description)
	switch {
	case err == nil:
		draft.PollQuestion = &question
	case errors.Is(err, models.ErrNotConfigured):
	default:
		logger.Warn("Poll question generation failed, continuing without one", "error", err)
	}

	problem, err := app.DB().CreateProblem(r.Context(), draft)
	if err != nil {
		respondError(w, err, app, logger)
		return
	}
	respondJSON(w, http.StatusCreated, problem, app)
}

type problemRefRequest struct {
	ProblemID int64  `json:"problem_id"`
	DeviceID  string `json:"device_id"`
	Solved    *bool  `json:"solved"`
}

// HandleDeleteProblem deletes a problem owned by the caller.
func HandleDeleteProblem(w http.ResponseWriter, r *http.Request, app App) {
	logger := app.Logger().With("handler", "HandleDeleteProblem")

	var req problemRefRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, err, app, logger)
		return
	}
	if err := requireID("problem_id", req.ProblemID); err != nil {
		respondError(w, err, app, logger)
		return
	}
	deviceID, err := deviceFor(r, req.DeviceID)
	if err != nil {
		respondError(w, err, app, logger)
		return
	}
	deletedID, err := app.DB().DeleteProblem(r.Context(), req.ProblemID, deviceID)
	if err != nil {
		respondError(w, err, app, logger)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "deletedId": deletedID}, app)
}

// HandleSetSolved sets the solved flag on a problem owned by the caller.
func HandleSetSolved(w http.ResponseWriter, r *http.Request, app App) {
	logger := app.Logger().With("handler", "HandleSetSolved")

	var req problemRefRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, err, app, logger)
		return
	}
	if err := requireID("problem_id", req.ProblemID); err != nil {
		respondError(w, err, app, logger)
		return
	}
	if req.Solved == nil {
		respondError(w, models.Invalid("solved", "is required"), app, logger)
		return
	}
	deviceID, err := deviceFor(r, req.DeviceID)
	if err != nil {
		respondError(w, err, app, logger)
		return
	}
	solved, err := app.DB().SetSolved(r.Context(), req.ProblemID, deviceID, *req.Solved)
	if err != nil {
		respondError(w, err, app, logger)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "id": req.ProblemID, "solved": solved}, app)
}

// HandleCategories lists standard and in-use custom categories.
func HandleCategories(w http.ResponseWriter, r *http.Request, app App) {
	logger := app.Logger().With("handler", "HandleCategories")
	cats, err := app.DB().Categories(r.Context(), config.StandardCategories)
	if err != nil {
		respondError(w, err, app, logger)
		return
	}
	respondJSON(w, http.StatusOK, cats, app)
}
