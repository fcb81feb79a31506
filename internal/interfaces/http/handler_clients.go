package http

import (
	"net/http"
	"strings"
	"time"

	"renewal_notifier/internal/usecases"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// GetQuota returns what the caller may still create
func (h *Handler) GetQuota(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Usuário não autenticado"})
		return
	}
	ctx := c.Request.Context()
	actor, err := h.svc.Quota.ResolveActor(ctx, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	status, err := h.svc.Quota.Check(ctx, actor)
	if err != nil {
		respondError(c, err)
		return
	}
	messages, err := h.svc.Quota.CheckMessages(ctx, actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"quota": status, "messages": messages})
}

func (h *Handler) CreateClient(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Usuário não autenticado"})
		return
	}
	var req struct {
		Name           string          `json:"name" binding:"required"`
		Phone          string          `json:"phone"`
		Plan           string          `json:"plan"`
		ExpirationDate string          `json:"expiration_date" binding:"required"`
		Value          decimal.Decimal `json:"value"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Nome e data de vencimento são obrigatórios"})
		return
	}
	expiration, ok := ParseDate(req.ExpirationDate)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Data de vencimento inválida"})
		return
	}
	if !ValidateLength(req.Phone, 0, MaxPhoneLength) || !ValidateLength(req.Plan, 0, MaxPlanLength) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Telefone ou plano muito longo"})
		return
	}

	client, err := h.svc.Clients.Create(c.Request.Context(), userID, usecases.CreateClientInput{
		Name:           TruncateString(SanitizeString(req.Name), MaxNameLength),
		Phone:          SanitizeString(req.Phone),
		Plan:           SanitizeString(req.Plan),
		ExpirationDate: expiration,
		Value:          req.Value,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, client)
}

// RenewClient pushes the expiration by {days} or to {expiration_date}
func (h *Handler) RenewClient(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Usuário não autenticado"})
		return
	}
	clientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID de cliente inválido"})
		return
	}
	var req struct {
		Days           int    `json:"days"`
		ExpirationDate string `json:"expiration_date"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Requisição inválida"})
		return
	}

	var until *time.Time
	if strings.TrimSpace(req.ExpirationDate) != "" {
		t, ok := ParseDate(req.ExpirationDate)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Data de vencimento inválida"})
			return
		}
		until = &t
	}

	client, err := h.svc.Clients.Renew(c.Request.Context(), userID, clientID, req.Days, until)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, client)
}

func (h *Handler) SuspendClient(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Usuário não autenticado"})
		return
	}
	clientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID de cliente inválido"})
		return
	}
	var req struct {
		Suspended *bool `json:"suspended" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Campo suspended é obrigatório"})
		return
	}

	client, err := h.svc.Clients.SetSuspended(c.Request.Context(), userID, clientID, *req.Suspended)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, client)
}

func (h *Handler) ListTemplates(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Usuário não autenticado"})
		return
	}
	views, err := h.svc.Templates.List(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

func (h *Handler) SaveTemplate(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Usuário não autenticado"})
		return
	}
	stage, valid := ValidStage(c.Param("status"))
	if !valid {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Status inválido"})
		return
	}
	var req struct {
		Template string `json:"template" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Modelo é obrigatório"})
		return
	}
	if !ValidateLength(req.Template, 1, MaxTemplateLength) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Modelo muito longo"})
		return
	}

	if err := h.svc.Templates.Save(c.Request.Context(), userID, stage, SanitizeString(req.Template)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) ResetTemplate(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Usuário não autenticado"})
		return
	}
	stage, valid := ValidStage(c.Param("status"))
	if !valid {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Status inválido"})
		return
	}
	if err := h.svc.Templates.Reset(c.Request.Context(), userID, stage); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
