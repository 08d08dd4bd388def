// campusvoice/database/visitors.go
package database

import (
	"context"
	"database/sql"
	"fmt"

	"campusvoice/utils"
)

// RecordVisitor adds deviceID to the visitor set and returns the number of
// unique visitors. Recording the same device twice changes nothing.
func (ds *DatabaseService) RecordVisitor(ctx context.Context, deviceID string) (int64, error) {
	var total int64
	err := ds.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, ds.rebind("INSERT INTO visitors (device_id, first_seen) VALUES (?, ?) ON CONFLICT (device_id) DO NOTHING"), deviceID, utils.GetSQLTime()); err != nil {
			return fmt.Errorf("failed to record visitor: %w", err)
		}
		return tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM visitors").Scan(&total)
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}
