// campusvoice/handlers/admin.go
package handlers

import (
	"net/http"

	"campusvoice/utils"
)

// HandleDatabaseBackup snapshots the database into the backup directory and
// uploads the copy when a backup store is configured.
func HandleDatabaseBackup(w http.ResponseWriter, r *http.Request, app App) {
	logger := app.Logger().With("handler", "HandleDatabaseBackup")

	location, err := app.DB().BackupDatabase(r.Context(), app.Config().Database.BackupDir, app.Backups())
	if err != nil {
		logger.Error("Failed to create database backup", "error", err)
		respondError(w, err, app, logger)
		return
	}
	logger.Info("Database backup created successfully", "location", location, "ip", utils.ClientIP(r, app.Config().Server.TrustProxy))
	respondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "location": location}, app)
}
