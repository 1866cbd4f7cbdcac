package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/harentsoaR/clinic-api/internal/models"
	"github.com/harentsoaR/clinic-api/internal/services"
)

func (h *Handler) CreateAdmin(c *gin.Context) {
	var req services.CreateAdminInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if _, err := h.Admin.CreateAdmin(c.Request.Context(), req); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Admin created successfully"})
}

func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.Admin.ListUsers(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *Handler) ListDoctors(c *gin.Context) {
	doctors, err := h.Admin.ListDoctors(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, doctors)
}

func (h *Handler) GetUser(c *gin.Context) {
	user, err := h.Admin.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) UpdateUser(c *gin.Context) {
	var req models.AccountPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	acct, changed, err := h.Admin.UpdateAccount(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondAccountChange(c, acct, changed, acct != nil && acct.Role != models.RoleUser, "User updated successfully")
}

func (h *Handler) ChangeRole(c *gin.Context) {
	var req struct {
		Role models.Role `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	acct, changed, err := h.Admin.ChangeRole(c.Request.Context(), c.Param("id"), req.Role)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondAccountChange(c, acct, changed, true, "Role updated successfully")
}

// respondAccountChange returns the updated account. After a role change the old token's
// claims are stale, so withToken adds a fresh one.
func (h *Handler) respondAccountChange(c *gin.Context, acct *models.Account, changed, withToken bool, msg string) {
	if !changed {
		c.JSON(http.StatusOK, gin.H{"message": "No changes detected"})
		return
	}
	body := gin.H{"message": msg, "user": acct}
	if withToken {
		token, err := h.Admin.GenerateToken(acct)
		if err != nil {
			h.respondError(c, err)
			return
		}
		body["accessToken"] = token
	}
	c.JSON(http.StatusOK, body)
}

func (h *Handler) DeleteUser(c *gin.Context) {
	if err := h.Admin.DeleteAccount(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}

func (h *Handler) DeleteDoctor(c *gin.Context) {
	if err := h.Admin.DeleteDoctor(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Doctor deleted successfully"})
}
