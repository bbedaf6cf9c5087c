package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jmurillo/asociacion-backend/shared/utils"
	v1 "github.com/jmurillo/asociacion-backend/v1"
	"github.com/jmurillo/asociacion-backend/v1/middleware"
	"github.com/jmurillo/asociacion-backend/v1/services"
	"gorm.io/gorm"
)

// V1Handler handles all V1 API routes
type V1Handler struct {
	members       *services.MemberService
	requests      *services.RequestService
	activities    *services.ActivityService
	registrations *services.RegistrationService
	exports       *services.ExportService
	reports       *services.ReportService
	backups       *services.BackupService
	backupWorker  *services.BackupWorker
	session       *middleware.SessionAuthMiddleware
	sessionConfig *middleware.SessionConfig
	validate      *validator.Validate
	superAdmin    string
}

// NewV1Handler creates a new V1 handler with all services wired
func NewV1Handler(db *gorm.DB, dbConfig *v1.DatabaseConfig) (*V1Handler, error) {
	sessionConfig, err := middleware.NewSessionConfigFromEnv()
	if err != nil {
		return nil, err
	}

	var backupper services.Backupper
	if dbConfig.Driver == v1.DriverPostgres {
		backupper = services.NewPostgresBackupper(dbConfig)
	} else {
		backupper = services.NewSQLiteBackupper(db, dbConfig.SQLitePath, dbConfig.MaxIdleConns)
	}
	backups := services.NewBackupService(backupper, services.NewSFTPConfigFromEnv())

	return &V1Handler{
		members:       services.NewMemberService(db),
		requests:      services.NewRequestService(db),
		activities:    services.NewActivityService(db),
		registrations: services.NewRegistrationService(db),
		exports:       services.NewExportService(db),
		reports:       services.NewReportService(db),
		backups:       backups,
		backupWorker:  services.NewBackupWorker(db, backups),
		session:       middleware.NewSessionAuthMiddleware(sessionConfig),
		sessionConfig: sessionConfig,
		validate:      validator.New(),
		superAdmin:    utils.GetEnvOrDefault("SUPER_ADMIN_USERNAME", "jmurillo"),
	}, nil
}

// BackupWorker exposes the worker so main can start its loop
func (h *V1Handler) BackupWorker() *services.BackupWorker {
	return h.backupWorker
}

func (h *V1Handler) public(handler http.HandlerFunc) http.Handler {
	return utils.PanicRecoveryMiddleware(handler)
}

func (h *V1Handler) protected(handler http.HandlerFunc) http.Handler {
	return utils.PanicRecoveryMiddleware(h.session.Authenticate(handler))
}

func (h *V1Handler) admin(handler http.HandlerFunc) http.Handler {
	return utils.PanicRecoveryMiddleware(h.session.Authenticate(middleware.RequireBoard(handler)))
}

// SetupV1Routes configures all V1 API routes
func (h *V1Handler) SetupV1Routes(mux *http.ServeMux) {
	// Public routes
	mux.Handle("/api/v1/auth/login", h.public(h.handleLogin))
	mux.Handle("/api/v1/signup", h.public(h.handleSignup))
	mux.Handle("/api/v1/signup/", h.public(h.handleSignupConfirmation))

	// Member routes
	mux.Handle("/api/v1/auth/logout", h.protected(h.handleLogout))
	mux.Handle("/api/v1/me", h.protected(h.handleMe))
	mux.Handle("/api/v1/me/", h.protected(h.handleMe))
	mux.Handle("/api/v1/activities", h.protected(h.handleActivities))
	mux.Handle("/api/v1/activities/", h.protected(h.handleActivities))

	// Board routes
	mux.Handle("/api/v1/admin/members", h.admin(h.handleAdminMembers))
	mux.Handle("/api/v1/admin/members/", h.admin(h.handleAdminMembers))
	mux.Handle("/api/v1/admin/activities", h.admin(h.handleAdminActivities))
	mux.Handle("/api/v1/admin/activities/", h.admin(h.handleAdminActivities))
	mux.Handle("/api/v1/admin/requests", h.admin(h.handleAdminRequests))
	mux.Handle("/api/v1/admin/requests/", h.admin(h.handleAdminRequests))
	mux.Handle("/api/v1/admin/directory", h.admin(h.handleDirectory))
	mux.Handle("/api/v1/admin/stats", h.admin(h.handleStats))
	mux.Handle("/api/v1/admin/exports/", h.admin(h.handleExports))
	mux.Handle("/api/v1/admin/backups", h.admin(h.handleBackups))
	mux.Handle("/api/v1/admin/backups/", h.admin(h.handleBackups))
}

// splitPath strips the prefix and returns the remaining path segments
func splitPath(r *http.Request, prefix string) []string {
	path := strings.TrimPrefix(r.URL.Path, prefix)
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

func parseID(raw string) (uint, bool) {
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// decodeAndValidate parses the JSON body into dest and runs the
// validator tags.
func (h *V1Handler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dest interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid JSON body")
		return false
	}
	if err := h.validate.Struct(dest); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return false
	}
	return true
}

// decodeOptional parses the JSON body into dest, tolerating an empty body
func decodeOptional(w http.ResponseWriter, r *http.Request, dest interface{}) bool {
	err := json.NewDecoder(r.Body).Decode(dest)
	if err != nil && !errors.Is(err, io.EOF) {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid JSON body")
		return false
	}
	return true
}

// respondServiceError maps service sentinel errors to HTTP status codes
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		utils.RespondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrForbidden):
		utils.RespondWithError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, services.ErrConflict), errors.Is(err, services.ErrAlreadyProcessed):
		utils.RespondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrValidation):
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
	default:
		slog.Error("Unhandled service error", "error", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func serveFileDownload(w http.ResponseWriter, filename, contentType string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		slog.Error("Failed to write download", "filename", filename, "error", err)
	}
}
