// campusvoice/database/replies.go
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

const replyColumns = "id, problem_id, text, creator_id, parent_reply_id, created_at"

// AddReply stores a reply. A parent, when given, must be an existing reply
// on the same problem; that is also what keeps parent links acyclic.
func (ds *DatabaseService) AddReply(ctx context.Context, draft models.ReplyDraft) (*models.Reply, error) {
	reply := &models.Reply{
		ProblemID:     draft.ProblemID,
		Text:          draft.Text,
		CreatorID:     draft.CreatorID,
		ParentReplyID: draft.ParentReplyID,
		CreatedAt:     utils.GetSQLTime(),
	}

	err := ds.withTx(ctx, func(tx *sql.Tx) error {
		if err := ds.lockProblem(ctx, tx, draft.ProblemID); err != nil {
			return err
		}
		if draft.ParentReplyID != nil {
			var parentProblem int64
			err := tx.QueryRowContext(ctx, ds.rebind("SELECT problem_id FROM replies WHERE id = ?"), *draft.ParentReplyID).Scan(&parentProblem)
			if errors.Is(err, sql.ErrNoRows) {
				return models.Invalid("parent_reply_id", "parent reply does not exist")
			}
			if err != nil {
				return fmt.Errorf("failed to load parent reply: %w", err)
			}
			if parentProblem != draft.ProblemID {
				return models.Invalid("parent_reply_id", "parent reply belongs to a different problem")
			}
		}

		err := tx.QueryRowContext(ctx, ds.rebind(`
			INSERT INTO replies (problem_id, text, creator_id, parent_reply_id, created_at)
			VALUES (?, ?, ?, ?, ?) RETURNING id`),
			reply.ProblemID, reply.Text, reply.CreatorID, reply.ParentReplyID, reply.CreatedAt,
		).Scan(&reply.ID)
		if isForeignKeyViolation(err) {
			return models.Invalid("parent_reply_id", "parent reply does not exist")
		}
		if err != nil {
			return fmt.Errorf("failed to insert reply: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	ds.logger.Info("Reply added", "reply_id", reply.ID, "problem_id", reply.ProblemID, "device", utils.HashDevice(reply.CreatorID))
	return reply, nil
}

// DeleteReply removes a reply owned by deviceID together with every reply
// beneath it. Missing and foreign replies both yield ErrForbidden.
func (ds *DatabaseService) DeleteReply(ctx context.Context, replyID int64, deviceID string) (int64, error) {
	var deletedID int64
	err := ds.DB.QueryRowContext(ctx, ds.rebind("DELETE FROM replies WHERE id = ? AND creator_id = ? RETURNING id"), replyID, deviceID).Scan(&deletedID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("reply %d: %w", replyID, models.ErrForbidden)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to delete reply: %w", err)
	}
	ds.logger.Info("Reply deleted", "reply_id", deletedID, "device", utils.HashDevice(deviceID))
	return deletedID, nil
}

// ListReplies returns the flat reply list of a problem in creation order.
func (ds *DatabaseService) ListReplies(ctx context.Context, problemID int64) ([]models.Reply, error) {
	byProblem, err := ds.repliesFor(ctx, []any{problemID})
	if err != nil {
		return nil, err
	}
	replies := byProblem[problemID]
	if replies == nil {
		replies = []models.Reply{}
	}
	return replies, nil
}

// replyBatchSize caps the bound ids per reply query, well under SQLite's
// 32766 and Postgres' 65535 parameter limits.
var replyBatchSize = 500

// repliesFor fetches the replies of several problems, grouped by problem.
func (ds *DatabaseService) repliesFor(ctx context.Context, problemIDs []any) (map[int64][]models.Reply, error) {
	grouped := make(map[int64][]models.Reply, len(problemIDs))
	for start := 0; start < len(problemIDs); start += replyBatchSize {
		end := min(start+replyBatchSize, len(problemIDs))
		if err := ds.collectReplies(ctx, problemIDs[start:end], grouped); err != nil {
			return nil, err
		}
	}
	return grouped, nil
}

func (ds *DatabaseService) collectReplies(ctx context.Context, problemIDs []any, grouped map[int64][]models.Reply) error {
	query := "SELECT " + replyColumns + " FROM replies WHERE problem_id IN (?" + strings.Repeat(",?", len(problemIDs)-1) + ") ORDER BY id ASC"
	rows, err := ds.DB.QueryContext(ctx, ds.rebind(query), problemIDs...)
	if err != nil {
		return fmt.Errorf("failed to fetch replies: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			ds.logger.Error("Failed to close rows in repliesFor", "error", err)
		}
	}()

	now := utils.GetSQLTime()
	for rows.Next() {
		var r models.Reply
		var parent sql.NullInt64
		if err := rows.Scan(&r.ID, &r.ProblemID, &r.Text, &r.CreatorID, &parent, &r.CreatedAt); err != nil {
			return fmt.Errorf("failed to scan reply: %w", err)
		}
		if parent.Valid {
			p := parent.Int64
			r.ParentReplyID = &p
		}
		r.TimeAgo = utils.TimeAgo(r.CreatedAt, now)
		grouped[r.ProblemID] = append(grouped[r.ProblemID], r)
	}
	return rows.Err()
}
