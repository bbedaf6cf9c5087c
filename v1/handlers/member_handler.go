package handlers

import (
	"net/http"
	"time"

	"github.com/jmurillo/asociacion-backend/shared/utils"
	"github.com/jmurillo/asociacion-backend/v1/models"
)

// handleAdminMembers serves the board member routes:
// GET    /api/v1/admin/members              listing (?search=)
// POST   /api/v1/admin/members              direct creation
// GET    /api/v1/admin/members/expiring     expiring within 30 days
// GET    /api/v1/admin/members/:id          single member with dependents
// PUT    /api/v1/admin/members/:id          partial edit
// DELETE /api/v1/admin/members/:id          delete with cascade
// POST   /api/v1/admin/members/:id/renew    extend validity to Dec 31
// GET    /api/v1/admin/members/:id/card.pdf membership card
func (h *V1Handler) handleAdminMembers(w http.ResponseWriter, r *http.Request) {
	parts := splitPath(r, "/api/v1/admin/members")

	if len(parts) == 0 {
		switch r.Method {
		case http.MethodGet:
			members, err := h.members.ListMembers(r.URL.Query().Get("search"))
			if err != nil {
				respondServiceError(w, err)
				return
			}
			responses := make([]*models.MemberResponse, 0, len(members))
			for i := range members {
				response := models.NewMemberResponse(&members[i])
				response.Dependents = members[i].Dependents
				responses = append(responses, response)
			}
			utils.RespondWithJSON(w, http.StatusOK, responses)
		case http.MethodPost:
			var payload models.CreateMemberRequest
			if !h.decodeAndValidate(w, r, &payload) {
				return
			}
			member, err := h.members.CreateMember(&payload)
			if err != nil {
				respondServiceError(w, err)
				return
			}
			utils.RespondWithJSON(w, http.StatusCreated, member)
		default:
			utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
		return
	}

	if len(parts) == 1 && parts[0] == "expiring" {
		if r.Method != http.MethodGet {
			utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		members, err := h.members.ListExpiring(30 * 24 * time.Hour)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		utils.RespondWithJSON(w, http.StatusOK, members)
		return
	}

	memberID, valid := parseID(parts[0])
	if !valid {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid member ID")
		return
	}

	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			member, err := h.members.GetMember(memberID)
			if err != nil {
				respondServiceError(w, err)
				return
			}
			response := models.NewMemberResponse(member)
			response.Dependents = member.Dependents
			utils.RespondWithJSON(w, http.StatusOK, response)
		case http.MethodPut:
			var payload models.UpdateMemberRequest
			if !h.decodeAndValidate(w, r, &payload) {
				return
			}
			member, err := h.members.UpdateMember(memberID, &payload)
			if err != nil {
				respondServiceError(w, err)
				return
			}
			utils.RespondWithJSON(w, http.StatusOK, member)
		case http.MethodDelete:
			if err := h.members.DeleteMember(memberID); err != nil {
				respondServiceError(w, err)
				return
			}
			utils.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Member deleted"})
		default:
			utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
		return
	}

	if len(parts) == 2 && parts[1] == "renew" && r.Method == http.MethodPost {
		member, err := h.members.RenewMember(memberID)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		utils.RespondWithJSON(w, http.StatusOK, member)
		return
	}

	if len(parts) == 2 && parts[1] == "card.pdf" && r.Method == http.MethodGet {
		member, err := h.members.GetMember(memberID)
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
		return
	}

	utils.RespondWithError(w, http.StatusNotFound, "Endpoint not found")
}

// handleDirectory serves the merged member/dependent household directory
func (h *V1Handler) handleDirectory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	entries, err := h.members.HouseholdDirectory(
		r.URL.Query().Get("search"),
		r.URL.Query().Get("minors") == "true",
	)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, entries)
}

// handleStats serves the admin dashboard counters
func (h *V1Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	stats, err := h.members.DashboardStats()
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, stats)
}
