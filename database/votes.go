// campusvoice/database/votes.go
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"campusvoice/models"
	"campusvoice/utils"
)

// CastVote applies the up/down toggle for one device on one problem and
// returns the problem's new score. The vote row change and the score
// increment commit together or not at all.
func (ds *DatabaseService) CastVote(ctx context.Context, problemID int64, deviceID string, voteType models.VoteType) (int, error) {
	if !voteType.Valid() {
		return 0, models.Invalid("vote_type", "must be 'up' or 'down'")
	}

	var newScore int
	var transition models.Transition
	err := ds.withTx(ctx, func(tx *sql.Tx) error {
		if err := ds.lockProblem(ctx, tx, problemID); err != nil {
			return err
		}
		var err error
		transition, newScore, err = ds.castVoteTx(ctx, tx, problemID, deviceID, voteType)
		return err
	})
	if err != nil {
		return 0, err
	}

	ds.logger.Debug("Vote applied",
		"problem_id", problemID,
		"device", utils.HashDevice(deviceID),
		"vote_type", voteType,
		"transition", transition.String(),
		"new_score", newScore,
	)
	return newScore, nil
}

// castVoteTx is the body of CastVote. The caller must hold the problem row.
func (ds *DatabaseService) castVoteTx(ctx context.Context, tx *sql.Tx, problemID int64, deviceID string, voteType models.VoteType) (models.Transition, int, error) {
	var existing *models.VoteType
	var current models.VoteType
	err := tx.QueryRowContext(ctx, ds.rebind("SELECT vote_type FROM votes WHERE problem_id = ? AND device_id = ?"), problemID, deviceID).Scan(&current)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return 0, 0, fmt.Errorf("failed to read existing vote: %w", err)
	default:
		existing = &current
	}

	transition := models.Toggle(existing, voteType)
	switch transition {
	case models.TransitionInsert:
		_, err = tx.ExecContext(ctx, ds.rebind("INSERT INTO votes (problem_id, device_id, vote_type) VALUES (?, ?, ?)"), problemID, deviceID, string(voteType))
	case models.TransitionDelete:
		_, err = tx.ExecContext(ctx, ds.rebind("DELETE FROM votes WHERE problem_id = ? AND device_id = ?"), problemID, deviceID)
	case models.TransitionUpdate:
		_, err = tx.ExecContext(ctx, ds.rebind("UPDATE votes SET vote_type = ? WHERE problem_id = ? AND device_id = ?"), string(voteType), problemID, deviceID)
	}
	if err != nil {
		return 0, 0, fmt.Errorf("failed to %s vote: %w", transition, err)
	}

	var newScore int
	delta := models.ScoreDelta(transition, voteType)
	err = tx.QueryRowContext(ctx, ds.rebind("UPDATE problems SET score = score + ? WHERE id = ? RETURNING score"), delta, problemID).Scan(&newScore)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to apply score delta: %w", err)
	}
	return transition, newScore, nil
}

// ListVotes returns the current vote of deviceID on every problem it has voted on.
func (ds *DatabaseService) ListVotes(ctx context.Context, deviceID string) ([]models.Vote, error) {
	rows, err := ds.DB.QueryContext(ctx, ds.rebind("SELECT problem_id, vote_type FROM votes WHERE device_id = ? ORDER BY problem_id"), deviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list votes: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			ds.logger.Error("Failed to close rows in ListVotes", "error", err)
		}
	}()

	votes := []models.Vote{}
	for rows.Next() {
		var v models.Vote
		if err := rows.Scan(&v.ProblemID, &v.VoteType); err != nil {
			return nil, fmt.Errorf("failed to scan vote: %w", err)
		}
		votes = append(votes, v)
	}
	return votes, rows.Err()
}
