package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/harentsoaR/clinic-api/internal/apperr"
	"github.com/harentsoaR/clinic-api/internal/middleware"
	"github.com/harentsoaR/clinic-api/internal/models"
	"github.com/harentsoaR/clinic-api/internal/services"
)

// Handler holds the workflows the HTTP routes call into.
type Handler struct {
	Auth         *services.AuthService
	Admin        *services.AdminService
	Appointments *services.AppointmentService
	Reviews      *services.ReviewService
	Log          *zap.Logger
}

func NewHandler(auth *services.AuthService, admin *services.AdminService, appointments *services.AppointmentService, reviews *services.ReviewService, log *zap.Logger) *Handler {
	return &Handler{
		Auth:         auth,
		Admin:        admin,
		Appointments: appointments,
		Reviews:      reviews,
		Log:          log,
	}
}

// respondError writes err as {"error": msg} with the status of its kind. Internal errors
// are logged and never shown to the client.
func (h *Handler) respondError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.KindInternal {
		_ = c.Error(err)
		h.Log.Error("request failed",
			zap.String("request_id", c.GetString(middleware.ContextRequestID)),
			zap.String("route", c.FullPath()),
			zap.Error(err))
	}
	c.JSON(kind.HTTPStatus(), gin.H{"error": apperr.Message(err)})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

// denyOtherPatient answers 403 and returns true when a patient-role caller targets another
// patient's appointments. Doctors and admins pass.
func denyOtherPatient(c *gin.Context, patientID string) bool {
	if c.GetString(middleware.ContextUserRole) != string(models.RoleUser) {
		return false
	}
	if strings.EqualFold(patientID, c.GetString(middleware.ContextUserID)) {
		return false
	}
	c.JSON(http.StatusForbidden, gin.H{"error": "Permission denied."})
	return true
}
