package http

import (
	"encoding/base64"
	"errors"
	"net/http"
	"strings"

	"renewal_notifier/internal/apperrors"
	"renewal_notifier/internal/usecases"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/skip2/go-qrcode"
)

// SendWhatsApp sends an ad-hoc text through the caller's instance
func (h *Handler) SendWhatsApp(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Usuário não autenticado"})
		return
	}
	var req struct {
		Phone   string `json:"phone"`
		Message string `json:"message"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Telefone e mensagem são obrigatórios"})
		return
	}
	if !ValidateLength(req.Phone, 0, MaxPhoneLength) || !ValidateLength(req.Message, 0, MaxMessageLength) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Telefone ou mensagem muito longo"})
		return
	}

	data, err := h.svc.Messaging.Send(c.Request.Context(), userID, req.Phone, SanitizeString(req.Message))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

func (h *Handler) LinkInstance(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Usuário não autenticado"})
		return
	}
	var req struct {
		InstanceKey string `json:"instance_key" binding:"required"`
		Token       string `json:"token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Instância e token são obrigatórios"})
		return
	}
	inst, err := h.svc.Messaging.LinkInstance(c.Request.Context(), userID, req.InstanceKey, req.Token)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, inst)
}

func (h *Handler) UnlinkInstance(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Usuário não autenticado"})
		return
	}
	if err := h.svc.Messaging.UnlinkInstance(c.Request.Context(), userID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GetQRCode returns QR code PNG for the user's instance pairing
func (h *Handler) GetQRCode(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Usuário não autenticado"})
		return
	}

	payload, err := h.svc.Messaging.PairingCode(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	if payload == "" {
		c.JSON(http.StatusAccepted, gin.H{"error": "QR Code ainda não disponível, tente novamente"})
		return
	}

	// some providers already send a rendered image
	if strings.HasPrefix(payload, "data:image") {
		if idx := strings.Index(payload, ","); idx >= 0 {
			png, err := base64.StdEncoding.DecodeString(payload[idx+1:])
			if err == nil {
				c.Data(http.StatusOK, "image/png", png)
				return
			}
		}
	}

	png, err := qrcode.Encode(payload, qrcode.Medium, 256)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Falha ao gerar QR Code"})
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// UazapiWebhook always answers 200 so the provider never retries.
func (h *Handler) UazapiWebhook(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		log.Warn().Err(err).Msg("failed to read webhook body")
		c.JSON(http.StatusOK, gin.H{"ok": false})
		return
	}
	ev, err := usecases.ParseWebhookEvent(body)
	if err != nil {
		log.Warn().Err(err).Msg("malformed webhook payload")
		c.JSON(http.StatusOK, gin.H{"ok": false})
		return
	}

	if _, err := h.svc.Tracker.Handle(c.Request.Context(), ev); err != nil {
		log.Error().Err(err).Str("instance", ev.Instance).Str("event", ev.Event).Msg("webhook handling failed")
		c.JSON(http.StatusOK, gin.H{"ok": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// CronReminders runs the reminder dispatcher once
func (h *Handler) CronReminders(c *gin.Context) {
	summary, err := h.svc.Dispatcher.Run(c.Request.Context())
	if errors.Is(err, apperrors.ErrLeaseHeld) {
		log.Info().Msg("Reminder run skipped, another run holds the lease")
		c.JSON(http.StatusOK, gin.H{"success": true, "sent": 0, "skipped": true})
		return
	}
	if err != nil && summary == nil {
		log.Error().Err(err).Msg("reminder run failed")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Falha ao processar lembretes"})
		return
	}
	if err != nil {
		log.Warn().Err(err).Msg("reminder run interrupted")
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "sent": summary.Sent, "summary": summary})
}
