package handlers

import (
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/jmurillo/asociacion-backend/shared/utils"
	"github.com/jmurillo/asociacion-backend/v1/models"
)

// handleBackups serves the board backup routes:
// POST /api/v1/admin/backups           enqueue a backup job
// GET  /api/v1/admin/backups/:jobID    job status
// GET  /api/v1/admin/backups/download  raw database snapshot
// POST /api/v1/admin/backups/restore   replace the database (super admin)
func (h *V1Handler) handleBackups(w http.ResponseWriter, r *http.Request) {
	user, ok := models.AuthenticatedUserFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	parts := splitPath(r, "/api/v1/admin/backups")
	if len(parts) == 0 {
		if r.Method != http.MethodPost {
			utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		job, err := h.backupWorker.Enqueue(user.Username)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		utils.RespondWithJSON(w, http.StatusAccepted, job)
		return
	}

	if len(parts) != 1 {
		utils.RespondWithError(w, http.StatusNotFound, "Endpoint not found")
		return
	}

	switch parts[0] {
	case "download":
		if r.Method != http.MethodGet {
			utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		path, err := h.backups.Snapshot(r.Context())
		if err != nil {
			respondServiceError(w, err)
			return
		}
		data, err := os.ReadFile(path)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		serveFileDownload(w, filepath.Base(path), "application/octet-stream", data)

	case "restore":
		if r.Method != http.MethodPost {
			utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		if user.Username != h.superAdmin {
			utils.RespondWithError(w, http.StatusForbidden, "Restore is restricted to the super admin")
			return
		}
		upload, err := os.CreateTemp("", "restore_*.db")
		if err != nil {
			respondServiceError(w, err)
			return
		}
		defer os.Remove(upload.Name())
		if _, err := io.Copy(upload, r.Body); err != nil {
			upload.Close()
			respondServiceError(w, err)
			return
		}
		upload.Close()

		if err := h.backups.Restore(r.Context(), upload.Name()); err != nil {
			respondServiceError(w, err)
			return
		}
		utils.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Database restored"})

	default:
		if r.Method != http.MethodGet {
			utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		job, err := h.backupWorker.Status(parts[0])
		if err != nil {
			respondServiceError(w, err)
			return
		}
		utils.RespondWithJSON(w, http.StatusOK, job)
	}
}
