package handlers

import (
	"net/http"

	"github.com/jmurillo/asociacion-backend/shared/utils"
	"github.com/jmurillo/asociacion-backend/v1/models"
)

// handleActivities serves the member-facing activity routes:
// GET  /api/v1/activities                  upcoming listing
// GET  /api/v1/activities/:id              single activity
// POST /api/v1/activities/:id/register     sign up self or a dependent
// POST /api/v1/activities/:id/cancel       cancel a registration
func (h *V1Handler) handleActivities(w http.ResponseWriter, r *http.Request) {
	user, ok := models.AuthenticatedUserFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	parts := splitPath(r, "/api/v1/activities")
	if len(parts) == 0 {
		if r.Method != http.MethodGet {
			utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		activities, err := h.activities.ListUpcoming()
		if err != nil {
			respondServiceError(w, err)
			return
		}
		utils.RespondWithJSON(w, http.StatusOK, activities)
		return
	}

	activityID, valid := parseID(parts[0])
	if !valid {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid activity ID")
		return
	}

	if len(parts) == 1 {
		if r.Method != http.MethodGet {
			utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		activity, err := h.activities.GetActivity(activityID)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		utils.RespondWithJSON(w, http.StatusOK, activity)
		return
	}

	if len(parts) == 2 && r.Method == http.MethodPost {
		var payload models.RegisterPayload
		if !decodeOptional(w, r, &payload) {
			return
		}
		switch parts[1] {
		case "register":
			registration, err := h.registrations.Register(user.MemberID, activityID, payload.DependentID)
			if err != nil {
				respondServiceError(w, err)
				return
			}
			utils.RespondWithJSON(w, http.StatusCreated, registration)
			return
		case "cancel":
			if err := h.registrations.Cancel(user.MemberID, activityID, payload.DependentID); err != nil {
				respondServiceError(w, err)
				return
			}
			utils.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Registration cancelled"})
			return
		}
	}

	utils.RespondWithError(w, http.StatusNotFound, "Endpoint not found")
}

// handleAdminActivities serves the board activity routes:
// GET    /api/v1/admin/activities                        full listing (?search=)
// POST   /api/v1/admin/activities                        create
// PUT    /api/v1/admin/activities/:id                    update
// DELETE /api/v1/admin/activities/:id                    delete
// GET    /api/v1/admin/activities/:id/roster             registration roster
// POST   /api/v1/admin/activities/:id/attendance/:regID  toggle attendance
func (h *V1Handler) handleAdminActivities(w http.ResponseWriter, r *http.Request) {
	parts := splitPath(r, "/api/v1/admin/activities")

	if len(parts) == 0 {
		switch r.Method {
		case http.MethodGet:
			activities, err := h.activities.ListAll(r.URL.Query().Get("search"))
			if err != nil {
				respondServiceError(w, err)
				return
			}
			utils.RespondWithJSON(w, http.StatusOK, activities)
		case http.MethodPost:
			var payload models.CreateActivityRequest
			if !h.decodeAndValidate(w, r, &payload) {
				return
			}
			activity, err := h.activities.CreateActivity(&payload)
			if err != nil {
				respondServiceError(w, err)
				return
			}
			utils.RespondWithJSON(w, http.StatusCreated, activity)
		default:
			utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
		return
	}

	activityID, valid := parseID(parts[0])
	if !valid {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid activity ID")
		return
	}

	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			activity, err := h.activities.GetActivity(activityID)
			if err != nil {
				respondServiceError(w, err)
				return
			}
			utils.RespondWithJSON(w, http.StatusOK, activity)
		case http.MethodPut:
			var payload models.CreateActivityRequest
			if !h.decodeAndValidate(w, r, &payload) {
				return
			}
			activity, err := h.activities.UpdateActivity(activityID, &payload)
			if err != nil {
				respondServiceError(w, err)
				return
			}
			utils.RespondWithJSON(w, http.StatusOK, activity)
		case http.MethodDelete:
			if err := h.activities.DeleteActivity(activityID); err != nil {
				respondServiceError(w, err)
				return
			}
			utils.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Activity deleted"})
		default:
			utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
		return
	}

	if len(parts) == 2 && parts[1] == "roster" && r.Method == http.MethodGet {
		roster, err := h.activities.Roster(activityID)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		utils.RespondWithJSON(w, http.StatusOK, roster)
		return
	}

	if len(parts) == 3 && parts[1] == "attendance" && r.Method == http.MethodPost {
		registrationID, valid := parseID(parts[2])
		if !valid {
			utils.RespondWithError(w, http.StatusBadRequest, "Invalid registration ID")
			return
		}
		registration, err := h.activities.ToggleAttendance(activityID, registrationID)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		utils.RespondWithJSON(w, http.StatusOK, registration)
		return
	}

	utils.RespondWithError(w, http.StatusNotFound, "Endpoint not found")
}
