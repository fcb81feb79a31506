package http

import (
	"net/http"

	"renewal_notifier/internal/entities"
	"renewal_notifier/internal/usecases"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "E-mail e senha são obrigatórios"})
		return
	}
	token, err := h.svc.Auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

// CreateUser creates an account below the caller in the role hierarchy
func (h *Handler) CreateUser(c *gin.Context) {
	callerID, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Usuário não autenticado"})
		return
	}

	var req struct {
		Email    string  `json:"email"`
		Password string  `json:"password"`
		Name     string  `json:"name"`
		Role     string  `json:"role"`
		TenantID *string `json:"tenant_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Requisição inválida"})
		return
	}

	in := usecases.CreateUserInput{
		Email:    SanitizeString(req.Email),
		Password: req.Password,
		Name:     TruncateString(SanitizeString(req.Name), MaxNameLength),
		Role:     entities.Role(req.Role),
	}
	if req.TenantID != nil && *req.TenantID != "" {
		tenantID, err := uuid.Parse(*req.TenantID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "tenant_id inválido"})
			return
		}
		in.TenantID = &tenantID
	}

	user, err := h.svc.Accounts.CreateUser(c.Request.Context(), callerID, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user_id": user.ID, "email": user.Email})
}

// SelfRegister lets a new user pick panel_admin or reseller, once
func (h *Handler) SelfRegister(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Usuário não autenticado"})
		return
	}
	var req struct {
		Role string `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Papel é obrigatório"})
		return
	}
	if err := h.svc.Accounts.SelfRegister(c.Request.Context(), userID, entities.Role(req.Role)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GetUserProfiles lists every account (super admin only)
func (h *Handler) GetUserProfiles(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Usuário não autenticado"})
		return
	}
	profiles, err := h.svc.Accounts.ListProfiles(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profiles)
}
