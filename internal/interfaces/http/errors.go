package http

import (
	"errors"
	"net/http"

	"renewal_notifier/internal/apperrors"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// statusFor maps an error to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, apperrors.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperrors.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrQuotaExceeded), errors.Is(err, apperrors.ErrUnprocessable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, apperrors.ErrProvider):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes {"error": msg}. Provider failures also carry the
// provider's body under "details"; internal errors are logged and hidden.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	switch status {
	case http.StatusBadGateway:
		body := gin.H{"error": "Falha ao enviar mensagem pelo provedor"}
		var provErr *apperrors.ProviderError
		if errors.As(err, &provErr) {
			body["details"] = provErr.Body
		} else {
			body["details"] = err.Error()
		}
		c.JSON(status, body)
	case http.StatusInternalServerError:
		log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(status, gin.H{"error": "Erro interno do servidor"})
	default:
		c.JSON(status, gin.H{"error": apperrors.Message(err, http.StatusText(status))})
	}
}
