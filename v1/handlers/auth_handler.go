package handlers

import (
	"log/slog"
	"net/http"

	"github.com/jmurillo/asociacion-backend/shared/utils"
	"github.com/jmurillo/asociacion-backend/v1/models"
)

// handleLogin verifies credentials and issues the session cookie
func (h *V1Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var payload models.LoginRequest
	if !h.decodeAndValidate(w, r, &payload) {
		return
	}

	member, err := h.members.GetMemberByUsername(payload.Username)
	if err != nil || member.CheckPassword(payload.Password) != nil {
		// Same answer for unknown user and wrong password
		utils.RespondWithError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	cookie, err := h.sessionConfig.IssueCookie(member)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	http.SetCookie(w, cookie)

	slog.Info("Login", "memberID", member.ID, "username", member.Username)
	utils.RespondWithJSON(w, http.StatusOK, models.LoginResponse{
		MemberID: member.ID,
		Name:     member.Name,
		Username: member.Username,
		Role:     member.Role,
	})
}

// handleLogout clears the session and queues a database backup. The
// backup runs in the background; a queue failure is logged but never
// blocks the logout.
func (h *V1Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	user, _ := models.AuthenticatedUserFromContext(r.Context())
	http.SetCookie(w, h.sessionConfig.ClearCookie())

	if user != nil {
		if _, err := h.backupWorker.Enqueue(user.Username); err != nil {
			slog.Error("Failed to enqueue logout backup", "username", user.Username, "error", err)
		}
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

// handleMe serves the authenticated member's own data
func (h *V1Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	user, ok := models.AuthenticatedUserFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	parts := splitPath(r, "/api/v1/me")
	switch {
	case len(parts) == 0:
		member, err := h.members.GetMember(user.MemberID)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		response := models.NewMemberResponse(member)
		response.Dependents = member.Dependents
		utils.RespondWithJSON(w, http.StatusOK, response)

	case len(parts) == 1 && parts[0] == "registrations":
		registrations, err := h.registrations.ListForMember(user.MemberID)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		utils.RespondWithJSON(w, http.StatusOK, registrations)

	case len(parts) == 1 && parts[0] == "card.pdf":
		member, err := h.members.GetMember(user.MemberID)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		data, err := h.reports.MembershipCardPDF(member)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		serveFileDownload(w, "carne_socio.pdf", "application/pdf", data)

	default:
		utils.RespondWithError(w, http.StatusNotFound, "Endpoint not found")
	}
}
