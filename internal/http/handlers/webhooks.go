package handlers

import (
	"io"

	"github.com/gin-gonic/gin"

	"github.com/rsamf/gamma/internal/http/response"
	"github.com/rsamf/gamma/internal/platform/apierr"
	"github.com/rsamf/gamma/internal/platform/githubapp"
	"github.com/rsamf/gamma/internal/platform/logger"
	"github.com/rsamf/gamma/internal/services"
)

const maxWebhookBody = 25 << 20

type WebhookHandler struct {
	log       *logger.Logger
	lifecycle services.LifecycleService
}

func NewWebhookHandler(log *logger.Logger, lifecycle services.LifecycleService) *WebhookHandler {
	return &WebhookHandler{log: log.With("handler", "WebhookHandler"), lifecycle: lifecycle}
}

// POST /api/webhooks/github
func (h *WebhookHandler) GitHub(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		response.RespondErr(c, h.log, apierr.Invalid("invalid_body", err))
		return
	}
	res, err := h.lifecycle.HandleWebhook(c.Request.Context(), services.WebhookDelivery{
		Event:      c.GetHeader(githubapp.HeaderEvent),
		Signature:  c.GetHeader(githubapp.HeaderSignature),
		DeliveryID: c.GetHeader(githubapp.HeaderDelivery),
		Body:       body,
	})
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	response.RespondOK(c, res)
}
