// campusvoice/database/polls.go
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"campusvoice/models"
	"campusvoice/utils"
)

// CastPollVote applies the yes/no toggle for one device on one problem's
// poll. Tallies are never stored; see PollCounts.
func (ds *DatabaseService) CastPollVote(ctx context.Context, problemID int64, deviceID string, option models.PollOption) error {
	if !option.Valid() {
		return models.Invalid("vote_option", "must be 'yes' or 'no'")
	}

	var transition models.Transition
	err := ds.withTx(ctx, func(tx *sql.Tx) error {
		if err := ds.lockProblem(ctx, tx, problemID); err != nil {
			return err
		}

		var existing *models.PollOption
		var current models.PollOption
		err := tx.QueryRowContext(ctx, ds.rebind("SELECT vote_option FROM poll_votes WHERE problem_id = ? AND device_id = ?"), problemID, deviceID).Scan(&current)
		switch {
		case errors.Is(err, sql.ErrNoRows):
		case err != nil:
			return fmt.Errorf("failed to read existing poll vote: %w", err)
		default:
			existing = &current
		}

		transition = models.Toggle(existing, option)
		switch transition {
		case models.TransitionInsert:
			_, err = tx.ExecContext(ctx, ds.rebind("INSERT INTO poll_votes (problem_id, device_id, vote_option) VALUES (?, ?, ?)"), problemID, deviceID, string(option))
		case models.TransitionDelete:
			_, err = tx.ExecContext(ctx, ds.rebind("DELETE FROM poll_votes WHERE problem_id = ? AND device_id = ?"), problemID, deviceID)
		case models.TransitionUpdate:
			_, err = tx.ExecContext(ctx, ds.rebind("UPDATE poll_votes SET vote_option = ? WHERE problem_id = ? AND device_id = ?"), string(option), problemID, deviceID)
		}
		if err != nil {
			return fmt.Errorf("failed to %s poll vote: %w", transition, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	ds.logger.Debug("Poll vote applied",
		"problem_id", problemID,
		"device", utils.HashDevice(deviceID),
		"vote_option", option,
		"transition", transition.String(),
	)
	return nil
}

// PollCounts counts the yes and no rows for a problem.
func (ds *DatabaseService) PollCounts(ctx context.Context, problemID int64) (yes, no int, err error) {
	err = ds.DB.QueryRowContext(ctx, ds.rebind(`
		SELECT COUNT(CASE WHEN vote_option = 'yes' THEN 1 END),
		       COUNT(CASE WHEN vote_option = 'no' THEN 1 END)
		FROM poll_votes WHERE problem_id = ?`), problemID).Scan(&yes, &no)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count poll votes: %w", err)
	}
	return yes, no, nil
}

// ListPollVotes returns the current poll answer of deviceID on every problem it has answered.
func (ds *DatabaseService) ListPollVotes(ctx context.Context, deviceID string) ([]models.PollVote, error) {
	rows, err := ds.DB.QueryContext(ctx, ds.rebind("SELECT problem_id, vote_option FROM poll_votes WHERE device_id = ? ORDER BY problem_id"), deviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list poll votes: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			ds.logger.Error("Failed to close rows in ListPollVotes", "error", err)
		}
	}()

	votes := []models.PollVote{}
	for rows.Next() {
		var v models.PollVote
		if err := rows.Scan(&v.ProblemID, &v.VoteOption); err != nil {
			return nil, fmt.Errorf("failed to scan poll vote: %w", err)
		}
		votes = append(votes, v)
	}
	return votes, rows.Err()
}
