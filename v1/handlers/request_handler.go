package handlers

import (
	"net/http"

	"github.com/jmurillo/asociacion-backend/shared/utils"
	"github.com/jmurillo/asociacion-backend/v1/models"
)

// handleSignup serves the public signup form: POST /api/v1/signup
func (h *V1Handler) handleSignup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	var payload models.CreateRequestPayload
	if !h.decodeAndValidate(w, r, &payload) {
		return
	}
	response, err := h.requests.CreateRequest(&payload)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, response)
}

// handleSignupConfirmation serves the anonymous token-addressed views:
// GET /api/v1/signup/:token      request status for the applicant
// GET /api/v1/signup/:token/pdf  printable confirmation sheet
func (h *V1Handler) handleSignupConfirmation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	parts := splitPath(r, "/api/v1/signup")
	if len(parts) == 0 || parts[0] == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Confirmation token is required")
		return
	}

	request, err := h.requests.GetRequestByToken(parts[0])
	if err != nil {
		respondServiceError(w, err)
		return
	}

	if len(parts) == 1 {
		utils.RespondWithJSON(w, http.StatusOK, request)
		return
	}
	if len(parts) == 2 && parts[1] == "pdf" {
		data, err := h.reports.RequestConfirmationPDF(request)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		serveFileDownload(w, "solicitud_socio.pdf", "application/pdf", data)
		return
	}
	utils.RespondWithError(w, http.StatusNotFound, "Endpoint not found")
}

// handleAdminRequests serves the board request routes:
// GET  /api/v1/admin/requests              listing (?status=)
// GET  /api/v1/admin/requests/:id          single request
// PUT  /api/v1/admin/requests/:id          edit while pending
// POST /api/v1/admin/requests/:id/approve  promote into a member
// POST /api/v1/admin/requests/:id/reject   terminal rejection
func (h *V1Handler) handleAdminRequests(w http.ResponseWriter, r *http.Request) {
	parts := splitPath(r, "/api/v1/admin/requests")

	if len(parts) == 0 {
		if r.Method != http.MethodGet {
			utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		requests, err := h.requests.ListRequests(models.RequestStatus(r.URL.Query().Get("status")))
		if err != nil {
			respondServiceError(w, err)
			return
		}
		utils.RespondWithJSON(w, http.StatusOK, requests)
		return
	}

	requestID, valid := parseID(parts[0])
	if !valid {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request ID")
		return
	}

	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			request, err := h.requests.GetRequest(requestID)
			if err != nil {
				respondServiceError(w, err)
				return
			}
			utils.RespondWithJSON(w, http.StatusOK, request)
		case http.MethodPut:
			var payload models.UpdateRequestPayload
			if !h.decodeAndValidate(w, r, &payload) {
				return
			}
			request, err := h.requests.UpdatePending(requestID, &payload)
			if err != nil {
				respondServiceError(w, err)
				return
			}
			utils.RespondWithJSON(w, http.StatusOK, request)
		default:
			utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
		return
	}

	if len(parts) == 2 && r.Method == http.MethodPost {
		switch parts[1] {
		case "approve":
			response, err := h.requests.Approve(requestID)
			if err != nil {
				respondServiceError(w, err)
				return
			}
			utils.RespondWithJSON(w, http.StatusOK, response)
			return
		case "reject":
			if err := h.requests.Reject(requestID); err != nil {
				respondServiceError(w, err)
				return
			}
			utils.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Request rejected"})
			return
		}
	}

	utils.RespondWithError(w, http.StatusNotFound, "Endpoint not found")
}
