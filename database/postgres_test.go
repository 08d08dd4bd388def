// campusvoice/database/postgres_test.go
package database

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
	"testing"

	"campusvoice/models"
)

// setupPostgres connects to CV_TEST_PG_DSN and starts from empty tables.
func setupPostgres(t *testing.T) *DatabaseService {
	t.Helper()
	dsn := os.Getenv("CV_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("CV_TEST_PG_DSN not set; skipping Postgres tests")
	}
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	ds, err := InitDB("pgx", dsn, logger)
	if err != nil {
		t.Fatalf("Failed to initialize Postgres: %v", err)
	}
	if _, err := ds.DB.Exec("TRUNCATE problems, replies, votes, poll_votes, visitors RESTART IDENTITY CASCADE"); err != nil {
		t.Fatalf("Failed to reset tables: %v", err)
	}
	t.Cleanup(func() { ds.Close() })
	return ds
}

func TestPostgresVoteLedger(t *testing.T) {
	ds := setupPostgres(t)
	ctx := context.Background()

	p, err := ds.CreateProblem(ctx, models.ProblemDraft{Title: "t", Description: "d", Category: "General", CreatorID: "user_a"})
	if err != nil {
		t.Fatalf("CreateProblem failed: %v", err)
	}

	var wg sync.WaitGroup
	for _, d := range []string{"user_1", "user_2", "user_3", "user_4", "user_5", "user_6"} {
		wg.Add(1)
		go func(d string) {
			defer wg.Done()
			if _, err := ds.CastVote(ctx, p.ID, d, models.VoteUp); err != nil {
				t.Errorf("CastVote failed: %v", err)
			}
		}(d)
	}
	wg.Wait()

	view, err := ds.GetProblem(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if view.Score != 7 {
		t.Errorf("score = %d, want 7", view.Score)
	}

	r1, err := ds.AddReply(ctx, models.ReplyDraft{ProblemID: p.ID, Text: "a", CreatorID: "user_b"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ds.AddReply(ctx, models.ReplyDraft{ProblemID: p.ID, Text: "b", CreatorID: "user_c", ParentReplyID: &r1.ID}); err != nil {
		t.Fatal(err)
	}
	if _, err := ds.DeleteReply(ctx, r1.ID, "user_b"); err != nil {
		t.Fatal(err)
	}
	if replies, _ := ds.ListReplies(ctx, p.ID); len(replies) != 0 {
		t.Errorf("cascade failed, %d replies left", len(replies))
	}

	if views, err := ds.ListProblems(ctx, models.ListOptions{Offset: 0, Limit: 10, Sort: models.SortRecent}); err != nil || len(views) != 1 {
		t.Errorf("ListProblems = %d, %v", len(views), err)
	}
	if n, err := ds.RecordVisitor(ctx, "user_a"); err != nil || n != 1 {
		t.Errorf("RecordVisitor = %d, %v", n, err)
	}
}
