package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/harentsoaR/clinic-api/internal/middleware"
	"github.com/harentsoaR/clinic-api/internal/models"
)

// RegisterRoutes mounts the public /auth routes and the token-protected /api routes.
func (h *Handler) RegisterRoutes(r gin.IRouter, tokens middleware.TokenValidator) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authRoutes := r.Group("/auth")
	{
		authRoutes.POST("/register", h.RegisterUser)
		authRoutes.POST("/login", h.Login)
	}

	staff := middleware.RequireRole(string(models.RoleDoctor), string(models.RoleAdmin))
	adminOnly := middleware.RequireRole(string(models.RoleAdmin))
	patientOnly := middleware.RequireRole(string(models.RoleUser))

	apiRoutes := r.Group("/api")
	apiRoutes.Use(middleware.AuthMiddleware(tokens))
	{
		apiRoutes.GET("/me", h.GetCurrentUser)

		apiRoutes.POST("/appointments", h.BookAppointment)
		apiRoutes.GET("/appointments", staff, h.GetAllAppointments)
		apiRoutes.GET("/appointments/:id", h.GetAppointment)
		apiRoutes.PUT("/appointments/:id", staff, h.UpdateAppointment)
		apiRoutes.DELETE("/appointments/:id", adminOnly, h.DeleteAppointment)
		apiRoutes.PATCH("/appointments/:id/cancel", h.CancelAppointment)
		apiRoutes.PATCH("/appointments/:id/confirm", staff, h.ConfirmAppointmentDone)
		apiRoutes.GET("/doctors/:id/appointments", h.GetDoctorAppointments)
		apiRoutes.GET("/patients/:id/appointments", h.GetPatientAppointments)
		apiRoutes.GET("/patients/:id/appointments/:status", h.GetAppointmentsByStatus)

		apiRoutes.POST("/reviews", patientOnly, h.CreateReview)
		apiRoutes.DELETE("/reviews/:id", middleware.RequireRole(string(models.RoleUser), string(models.RoleAdmin)), h.DeleteReview)
		apiRoutes.GET("/doctors/:id/reviews", h.GetDoctorReviews)
	}

	adminRoutes := apiRoutes.Group("/admin", adminOnly)
	{
		adminRoutes.POST("/admins", h.CreateAdmin)
		adminRoutes.GET("/users", h.ListUsers)
		adminRoutes.GET("/users/:id", h.GetUser)
		adminRoutes.PUT("/users/:id", h.UpdateUser)
		adminRoutes.DELETE("/users/:id", h.DeleteUser)
		adminRoutes.PATCH("/accounts/:id/role", h.ChangeRole)
		adminRoutes.GET("/doctors", h.ListDoctors)
		adminRoutes.DELETE("/doctors/:id", h.DeleteDoctor)
	}
}
