package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/harentsoaR/clinic-api/internal/middleware"
	"github.com/harentsoaR/clinic-api/internal/models"
)

func (h *Handler) CreateReview(c *gin.Context) {
	var req models.ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	review, err := h.Reviews.CreateReview(c.Request.Context(), c.GetString(middleware.ContextUserID), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Review created successfully", "review": review})
}

func (h *Handler) GetDoctorReviews(c *gin.Context) {
	reviews, err := h.Reviews.GetDoctorReviews(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reviews)
}

func (h *Handler) DeleteReview(c *gin.Context) {
	err := h.Reviews.DeleteReview(c.Request.Context(), c.Param("id"),
		c.GetString(middleware.ContextUserID),
		models.Role(c.GetString(middleware.ContextUserRole)))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Review deleted successfully"})
}
