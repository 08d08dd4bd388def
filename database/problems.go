// campusvoice/database/problems.go
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"campusvoice/models"
	"campusvoice/utils"
)

const problemColumns = "p.id, p.title, p.description, p.category, p.score, p.solved, p.creator_id, p.created_at, p.poll_question"

// CreateProblem inserts a problem at score 0 and records the creator's own
// up vote through the vote ledger in the same transaction, so it is
// returned at score 1.
func (ds *DatabaseService) CreateProblem(ctx context.Context, draft models.ProblemDraft) (*models.Problem, error) {
	p := &models.Problem{
		Title:        draft.Title,
		Description:  draft.Description,
		Category:     draft.Category,
		CreatorID:    draft.CreatorID,
		CreatedAt:    utils.GetSQLTime(),
		PollQuestion: draft.PollQuestion,
	}

	err := ds.withTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, ds.rebind(`
			INSERT INTO problems (title, description, category, score, solved, creator_id, created_at, poll_question)
			VALUES (?, ?, ?, 0, ?, ?, ?, ?) RETURNING id`),
			p.Title, p.Description, p.Category, false, p.CreatorID, p.CreatedAt, p.PollQuestion,
		).Scan(&p.ID)
		if err != nil {
			return fmt.Errorf("failed to insert problem: %w", err)
		}
		_, p.Score, err = ds.castVoteTx(ctx, tx, p.ID, p.CreatorID, models.VoteUp)
		return err
	})
	if err != nil {
		return nil, err
	}

	ds.logger.Info("Problem created", "problem_id", p.ID, "category", p.Category, "device", utils.HashDevice(p.CreatorID), "has_poll", p.PollQuestion != nil)
	return p, nil
}

// DeleteProblem removes a problem owned by deviceID. Votes, poll votes and
// replies go with it through the foreign key cascades.
func (ds *DatabaseService) DeleteProblem(ctx context.Context, problemID int64, deviceID string) (int64, error) {
	var deletedID int64
	err := ds.DB.QueryRowContext(ctx, ds.rebind("DELETE FROM problems WHERE id = ? AND creator_id = ? RETURNING id"), problemID, deviceID).Scan(&deletedID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("problem %d: %w", problemID, models.ErrForbidden)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to delete problem: %w", err)
	}
	ds.logger.Info("Problem deleted", "problem_id", deletedID, "device", utils.HashDevice(deviceID))
	return deletedID, nil
}

// SetSolved sets (not toggles) the solved flag on a problem owned by deviceID.
func (ds *DatabaseService) SetSolved(ctx context.Context, problemID int64, deviceID string, solved bool) (bool, error) {
	var stored bool
	err := ds.DB.QueryRowContext(ctx, ds.rebind("UPDATE problems SET solved = ? WHERE id = ? AND creator_id = ? RETURNING solved"), solved, problemID, deviceID).Scan(&stored)
	if errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("problem %d: %w", problemID, models.ErrForbidden)
	}
	if err != nil {
		return false, fmt.Errorf("failed to update problem: %w", err)
	}
	ds.logger.Info("Problem solved flag set", "problem_id", problemID, "solved", stored)
	return stored, nil
}

// GetProblem returns a single enriched problem, or ErrNotFound.
func (ds *DatabaseService) GetProblem(ctx context.Context, problemID int64) (*models.ProblemView, error) {
	views, err := ds.queryProblems(ctx, "WHERE p.id = ?", []any{problemID}, "")
	if err != nil {
		return nil, err
	}
	if len(views) == 0 {
		return nil, fmt.Errorf("problem %d: %w", problemID, models.ErrNotFound)
	}
	return &views[0], nil
}

// ListProblems returns the read model clients poll: every problem matching
// opts with its replies and live poll counts. The default order is score
// descending.
func (ds *DatabaseService) ListProblems(ctx context.Context, opts models.ListOptions) ([]models.ProblemView, error) {
	var where string
	var args []any
	if opts.Category != "" {
		where = "WHERE p.category = ?"
		args = append(args, opts.Category)
	}

	var tail strings.Builder
	switch opts.Sort {
	case models.SortRecent:
		tail.WriteString(" ORDER BY p.id DESC")
	case "", models.SortTop:
		tail.WriteString(" ORDER BY p.score DESC, p.id DESC")
	default:
		return nil, models.Invalid("sort", "must be 'top' or 'recent'")
	}
	switch {
	case opts.Limit > 0:
		tail.WriteString(" LIMIT ? OFFSET ?")
		args = append(args, opts.Limit, max(opts.Offset, 0))
	case opts.Offset > 0:
		tail.WriteString(" " + ds.dialect.unlimited + " OFFSET ?")
		args = append(args, opts.Offset)
	}

	return ds.queryProblems(ctx, where, args, tail.String())
}

func (ds *DatabaseService) queryProblems(ctx context.Context, where string, args []any, tail string) ([]models.ProblemView, error) {
	query := `
		SELECT ` + problemColumns + `,
		       COUNT(CASE WHEN pv.vote_option = 'yes' THEN 1 END),
		       COUNT(CASE WHEN pv.vote_option = 'no' THEN 1 END)
		FROM problems p
		LEFT JOIN poll_votes pv ON pv.problem_id = p.id
		` + where + `
		GROUP BY p.id` + tail

	rows, err := ds.DB.QueryContext(ctx, ds.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list problems: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			ds.logger.Error("Failed to close rows in queryProblems", "error", err)
		}
	}()

	now := utils.GetSQLTime()
	views := []models.ProblemView{}
	for rows.Next() {
		var v models.ProblemView
		var poll sql.NullString
		if err := rows.Scan(&v.ID, &v.Title, &v.Description, &v.Category, &v.Score, &v.Solved,
			&v.CreatorID, &v.CreatedAt, &poll, &v.PollYes, &v.PollNo); err != nil {
			return nil, fmt.Errorf("failed to scan problem: %w", err)
		}
		if poll.Valid {
			q := poll.String
			v.PollQuestion = &q
		}
		v.TimeAgo = utils.TimeAgo(v.CreatedAt, now)
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(views) == 0 {
		return views, nil
	}

	ids := make([]any, len(views))
	for i := range views {
		ids[i] = views[i].ID
	}
	replies, err := ds.repliesFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range views {
		views[i].Replies = replies[views[i].ID]
		if views[i].Replies == nil {
			views[i].Replies = []models.Reply{}
		}
	}
	return views, nil
}

// Categories returns the standard categories and the distinct custom ones in use.
func (ds *DatabaseService) Categories(ctx context.Context, standard []string) (*models.Categories, error) {
	rows, err := ds.DB.QueryContext(ctx, "SELECT DISTINCT category FROM problems ORDER BY category")
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			ds.logger.Error("Failed to close rows in Categories", "error", err)
		}
	}()

	known := make(map[string]bool, len(standard))
	for _, c := range standard {
		known[c] = true
	}
	out := &models.Categories{Standard: standard, Custom: []string{}}
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		if !known[c] {
			out.Custom = append(out.Custom, c)
		}
	}
	return out, rows.Err()
}

// seedProblems is the demo content a fresh board ships with.
var seedProblems = []struct {
	Title, Description, Category string
}{
	{"Trash mountain near the faculty is unbearable", "There is a massive mountain of uncollected trash accumulating right next to our faculty building.", "Non-academic"},
	{"Canteen food quality has dropped recently", "The food at the main canteen has been really bad over the course of the last two weeks.", "Canteen/Food"},
}

// SeedDeviceID owns the demo problems.
const SeedDeviceID = "user_seed"

// Seed inserts the demo problems when the board is empty. It reports how many were added.
func (ds *DatabaseService) Seed(ctx context.Context) (int, error) {
	added := 0
	err := ds.withTx(ctx, func(tx *sql.Tx) error {
		var count int
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM problems").Scan(&count); err != nil {
			return fmt.Errorf("failed to count problems: %w", err)
		}
		if count > 0 {
			return nil
		}
		for _, s := range seedProblems {
			var id int64
			err := tx.QueryRowContext(ctx, ds.rebind(`
				INSERT INTO problems (title, description, category, score, solved, creator_id, created_at)
				VALUES (?, ?, ?, 0, ?, ?, ?) RETURNING id`),
				s.Title, s.Description, s.Category, false, SeedDeviceID, utils.GetSQLTime()).Scan(&id)
			if err != nil {
				return fmt.Errorf("failed to seed problem: %w", err)
			}
			if _, _, err := ds.castVoteTx(ctx, tx, id, SeedDeviceID, models.VoteUp); err != nil {
				return err
			}
			added++
		}
		return nil
	})
	return added, err
}
