package handlers

import (
	"net/http"
	"time"

	"github.com/jmurillo/asociacion-backend/shared/utils"
	"github.com/jmurillo/asociacion-backend/v1/models"
)

// importPayload wraps the export document with the import mode
type importPayload struct {
	Mode models.ImportMode `json:"mode"`
	Data models.DataExport `json:"data"`
}

// handleExports serves the board export routes:
// GET  /api/v1/admin/exports/json            full JSON dump
// POST /api/v1/admin/exports/import          load a dump (merge or replace)
// GET  /api/v1/admin/exports/members.xlsx    member roster workbook
// GET  /api/v1/admin/exports/requests.xlsx   request log workbook
// GET  /api/v1/admin/exports/activities.pdf  activities listing
// GET  /api/v1/admin/exports/activities/:id/roster.pdf  attendance sheet
func (h *V1Handler) handleExports(w http.ResponseWriter, r *http.Request) {
	parts := splitPath(r, "/api/v1/admin/exports")
	if len(parts) == 0 {
		utils.RespondWithError(w, http.StatusNotFound, "Endpoint not found")
		return
	}

	stamp := time.Now().Format("20060102")
	switch {
	case len(parts) == 1 && parts[0] == "json" && r.Method == http.MethodGet:
		export, err := h.exports.Export()
		if err != nil {
			respondServiceError(w, err)
			return
		}
		w.Header().Set("Content-Disposition", `attachment; filename="export_`+stamp+`.json"`)
		utils.RespondWithJSON(w, http.StatusOK, export)

	case len(parts) == 1 && parts[0] == "import" && r.Method == http.MethodPost:
		var payload importPayload
		if !h.decodeAndValidate(w, r, &payload) {
			return
		}
		if payload.Mode == "" {
			payload.Mode = models.ImportModeMerge
		}
		summary, err := h.exports.Import(&payload.Data, payload.Mode)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		utils.RespondWithJSON(w, http.StatusOK, summary)

	case len(parts) == 1 && parts[0] == "members.xlsx" && r.Method == http.MethodGet:
		data, err := h.reports.MembersExcel()
		if err != nil {
			respondServiceError(w, err)
			return
		}
		serveFileDownload(w, "socios_"+stamp+".xlsx",
			"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)

	case len(parts) == 1 && parts[0] == "requests.xlsx" && r.Method == http.MethodGet:
		data, err := h.reports.RequestsExcel()
		if err != nil {
			respondServiceError(w, err)
			return
		}
		serveFileDownload(w, "solicitudes_"+stamp+".xlsx",
			"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)

	case len(parts) == 1 && parts[0] == "activities.pdf" && r.Method == http.MethodGet:
		data, err := h.reports.ActivitiesPDF()
		if err != nil {
			respondServiceError(w, err)
			return
		}
		serveFileDownload(w, "actividades_"+stamp+".pdf", "application/pdf", data)

	case len(parts) == 3 && parts[0] == "activities" && parts[2] == "roster.pdf" && r.Method == http.MethodGet:
		activityID, valid := parseID(parts[1])
		if !valid {
			utils.RespondWithError(w, http.StatusBadRequest, "Invalid activity ID")
			return
		}
		data, err := h.reports.ActivityRosterPDF(activityID)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		serveFileDownload(w, "asistencia_"+stamp+".pdf", "application/pdf", data)

	default:
		utils.RespondWithError(w, http.StatusNotFound, "Endpoint not found")
	}
}
