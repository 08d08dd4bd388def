// campusvoice/database/polls_test.go
package database

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"campusvoice/models"
)

func TestCastPollVoteToggle(t *testing.T) {
	ds := setupTestDB(t)
	ctx := context.Background()
	p := mustCreateProblem(t, ds, "user_owner")

	steps := []struct {
		device  string
		option  models.PollOption
		yes, no int
	}{
		{"user_a", models.PollYes, 1, 0},
		{"user_b", models.PollNo, 1, 1},
		{"user_a", models.PollNo, 0, 2},  // switch
		{"user_b", models.PollNo, 0, 1},  // cancel
		{"user_c", models.PollYes, 1, 1}, // new
	}
	for i, s := range steps {
		if err := ds.CastPollVote(ctx, p.ID, s.device, s.option); err != nil {
			t.Fatalf("step %d: CastPollVote failed: %v", i, err)
		}
		yes, no, err := ds.PollCounts(ctx, p.ID)
		if err != nil {
			t.Fatalf("step %d: PollCounts failed: %v", i, err)
		}
		if yes != s.yes || no != s.no {
			t.Errorf("step %d: counts = %d/%d, want %d/%d", i, yes, no, s.yes, s.no)
		}
	}

	if score := storedScore(t, ds, p.ID); score != 1 {
		t.Errorf("poll votes must not touch the score, got %d", score)
	}

	votes, err := ds.ListPollVotes(ctx, "user_a")
	if err != nil {
		t.Fatalf("ListPollVotes failed: %v", err)
	}
	if len(votes) != 1 || votes[0].VoteOption != models.PollNo {
		t.Errorf("ListPollVotes = %+v, want a single 'no'", votes)
	}
	if votes, _ := ds.ListPollVotes(ctx, "user_b"); len(votes) != 0 {
		t.Errorf("cancelled poll vote should not be listed, got %+v", votes)
	}
}

// Counts in the listing must always equal the rows on disk.
func TestPollCountsMatchRows(t *testing.T) {
	ds := setupTestDB(t)
	ctx := context.Background()
	p := mustCreateProblem(t, ds, "user_owner")

	for i := 0; i < 12; i++ {
		opt := models.PollYes
		if i%3 == 0 {
			opt = models.PollNo
		}
		if err := ds.CastPollVote(ctx, p.ID, fmt.Sprintf("user_%d", i), opt); err != nil {
			t.Fatalf("CastPollVote failed: %v", err)
		}
	}

	view, err := ds.GetProblem(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetProblem failed: %v", err)
	}
	yesRows := countRows(t, ds, "SELECT COUNT(*) FROM poll_votes WHERE problem_id = ? AND vote_option = 'yes'", p.ID)
	noRows := countRows(t, ds, "SELECT COUNT(*) FROM poll_votes WHERE problem_id = ? AND vote_option = 'no'", p.ID)
	if view.PollYes != yesRows || view.PollNo != noRows {
		t.Errorf("view counts %d/%d, rows %d/%d", view.PollYes, view.PollNo, yesRows, noRows)
	}
	if view.PollYes != 8 || view.PollNo != 4 {
		t.Errorf("expected 8 yes / 4 no, got %d/%d", view.PollYes, view.PollNo)
	}
}

func TestCastPollVoteErrors(t *testing.T) {
	ds := setupTestDB(t)
	ctx := context.Background()
	p := mustCreateProblem(t, ds, "user_owner")

	if err := ds.CastPollVote(ctx, p.ID, "user_a", "maybe"); !errors.Is(err, models.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
	if err := ds.CastPollVote(ctx, 9999, "user_a", models.PollYes); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
