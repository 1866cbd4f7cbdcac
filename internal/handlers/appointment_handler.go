package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/harentsoaR/clinic-api/internal/middleware"
	"github.com/harentsoaR/clinic-api/internal/models"
)

func (h *Handler) BookAppointment(c *gin.Context) {
	var req models.BookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if req.Status != "" && !req.Status.Valid() {
		badRequest(c, "Invalid status")
		return
	}
	if denyOtherPatient(c, req.PatientID) {
		return
	}

	apt, err := h.Appointments.BookAppointment(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Appointment booked successfully", "appointment": apt})
}

func (h *Handler) CancelAppointment(c *gin.Context) {
	if c.GetString(middleware.ContextUserRole) == string(models.RoleUser) {
		apt, err := h.Appointments.GetAppointment(c.Request.Context(), c.Param("id"))
		if err != nil {
			h.respondError(c, err)
			return
		}
		if denyOtherPatient(c, apt.PatientRef.ID.Hex()) {
			return
		}
	}
	if _, err := h.Appointments.CancelAppointment(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Appointment cancelled successfully"})
}

func (h *Handler) ConfirmAppointmentDone(c *gin.Context) {
	apt, err := h.Appointments.ConfirmAppointmentDone(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Appointment confirmed done successfully", "appointment": apt})
}

func (h *Handler) GetAllAppointments(c *gin.Context) {
	appointments, err := h.Appointments.GetAllAppointments(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, appointments)
}

func (h *Handler) GetDoctorAppointments(c *gin.Context) {
	appointments, err := h.Appointments.GetDoctorAppointments(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, appointments)
}

func (h *Handler) GetPatientAppointments(c *gin.Context) {
	if denyOtherPatient(c, c.Param("id")) {
		return
	}
	appointments, err := h.Appointments.GetPatientAppointments(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, appointments)
}

func (h *Handler) GetAppointmentsByStatus(c *gin.Context) {
	status := models.AppointmentStatus(c.Param("status"))
	if !status.Valid() {
		badRequest(c, "Invalid status")
		return
	}
	if denyOtherPatient(c, c.Param("id")) {
		return
	}
	appointments, err := h.Appointments.GetAppointmentsByStatus(c.Request.Context(), c.Param("id"), status)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, appointments)
}

func (h *Handler) GetAppointment(c *gin.Context) {
	apt, err := h.Appointments.GetAppointment(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if denyOtherPatient(c, apt.PatientRef.ID.Hex()) {
		return
	}
	c.JSON(http.StatusOK, apt)
}

func (h *Handler) UpdateAppointment(c *gin.Context) {
	var req models.AppointmentPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	if req.Status != nil && !req.Status.Valid() {
		badRequest(c, "Invalid status")
		return
	}

	apt, err := h.Appointments.UpdateAppointment(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Appointment updated successfully", "appointment": apt})
}

func (h *Handler) DeleteAppointment(c *gin.Context) {
	if err := h.Appointments.DeleteAppointment(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Appointment deleted successfully"})
}
