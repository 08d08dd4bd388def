// campusvoice/handlers/replies_test.go
package handlers

import (
	"net/http"
	"testing"

	"campusvoice/models"
)

func postReply(t *testing.T, h http.Handler, problemID int64, device, text string, parent int64) models.Reply {
	t.Helper()
	body := map[string]any{"problem_id": problemID, "device_id": device, "text": text}
	if parent != 0 {
		body["parent_reply_id"] = parent
	}
	rr := doJSON(t, h, http.MethodPost, "/replies", body, nil)
	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected 201 adding reply, got %d: %s", rr.Code, rr.Body.String())
	}
	return decodeBody[models.Reply](t, rr)
}

func TestHandleCreateReply(t *testing.T) {
	app := setupTestApp(t)
	router := SetupRouter(app)
	p := createProblem(t, router, "user_a", "Library too loud")
	other := createProblem(t, router, "user_a", "Parking full")

	r1 := postReply(t, router, p.ID, "user_b", "Agreed", 0)
	if r1.ParentReplyID != nil {
		t.Errorf("Expected top-level reply, got parent %v", *r1.ParentReplyID)
	}

	rr := doJSON(t, router, http.MethodPost, "/replies", map[string]any{"problem_id": p.ID, "device_id": "user_b", "text": "top", "parent_reply_id": 0}, nil)
	if rr.Code != http.StatusCreated || decodeBody[models.Reply](t, rr).ParentReplyID != nil {
		t.Errorf("parent_reply_id 0 should mean top level, got %d %s", rr.Code, rr.Body.String())
	}

	r2 := postReply(t, router, p.ID, "user_c", "Me too", r1.ID)
	if r2.ParentReplyID == nil || *r2.ParentReplyID != r1.ID {
		t.Errorf("Expected parent %d, got %v", r1.ID, r2.ParentReplyID)
	}

	testCases := []struct {
		name   string
		body   map[string]any
		status int
	}{
		{"Empty text", map[string]any{"problem_id": p.ID, "device_id": "user_b", "text": "   "}, http.StatusBadRequest},
		{"Profanity", map[string]any{"problem_id": p.ID, "device_id": "user_b", "text": "this is shit"}, http.StatusBadRequest},
		{"Unknown problem", map[string]any{"problem_id": 9999, "device_id": "user_b", "text": "hi"}, http.StatusNotFound},
		{"Unknown parent", map[string]any{"problem_id": p.ID, "device_id": "user_b", "text": "hi", "parent_reply_id": 9999}, http.StatusBadRequest},
		{"Parent on another problem", map[string]any{"problem_id": other.ID, "device_id": "user_b", "text": "hi", "parent_reply_id": r1.ID}, http.StatusBadRequest},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if rr := doJSON(t, router, http.MethodPost, "/replies", tc.body, nil); rr.Code != tc.status {
				t.Errorf("Expected %d, got %d: %s", tc.status, rr.Code, rr.Body.String())
			}
		})
	}
}

func TestHandleDeleteReplyCascades(t *testing.T) {
	app := setupTestApp(t)
	router := SetupRouter(app)
	p := createProblem(t, router, "user_a", "Cold showers")

	r1 := postReply(t, router, p.ID, "user_b", "R1", 0)
	r2 := postReply(t, router, p.ID, "user_c", "R2", r1.ID)
	postReply(t, router, p.ID, "user_d", "R3", r2.ID)
	sibling := postReply(t, router, p.ID, "user_d", "Sibling", 0)

	rr := doJSON(t, router, http.MethodDelete, "/replies", map[string]any{"reply_id": r1.ID, "device_id": "user_c"}, nil)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("Expected 403 for non-owner, got %d", rr.Code)
	}

	rr = doJSON(t, router, http.MethodDelete, "/replies", map[string]any{"reply_id": r1.ID, "device_id": "user_b"}, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if got := decodeBody[map[string]any](t, rr)["deletedId"]; got != float64(r1.ID) {
		t.Errorf("Expected deletedId %d, got %v", r1.ID, got)
	}

	view := decodeBody[models.ProblemView](t, doJSON(t, router, http.MethodGet, "/problems/"+itoa(p.ID), nil, nil))
	if len(view.Replies) != 1 || view.Replies[0].ID != sibling.ID {
		t.Errorf("Expected only the sibling to survive, got %+v", view.Replies)
	}

	rr = doJSON(t, router, http.MethodDelete, "/replies", map[string]any{"device_id": "user_b"}, nil)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 without reply_id, got %d", rr.Code)
	}
}
