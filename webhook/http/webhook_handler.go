package http

import (
	"context"
	"crypto/subtle"
	"net/http"

	"github.com/dfryer1193/spacetraveling/api"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const (
	eventAPIUpdate = "api-update"
	eventTest      = "test-trigger"
)

// Revalidator regenerates stored pages in the background. *application.PageGenerator implements it.
type Revalidator interface {
	Revalidate(ctx context.Context, paths ...string) error
}

// WebhookHandler receives the content repository's publish webhook and
// revalidates every generated page. The payload names document ids, not
// uids, so the handler cannot narrow regeneration to the changed posts.
type WebhookHandler struct {
	webhookSecret []byte
	pages         Revalidator
}

// NewWebhookHandler returns nil when secret is empty: the route is then not registered.
func NewWebhookHandler(secret string, pages Revalidator) *WebhookHandler {
	if secret == "" {
		return nil
	}

	return &WebhookHandler{
		webhookSecret: []byte(secret),
		pages:         pages,
	}
}

func (h *WebhookHandler) RegisterRoutes(r gin.IRoutes) {
	r.POST("/webhook/content", h.HandleContentWebhook)
}

func (h *WebhookHandler) HandleContentWebhook(c *gin.Context) {
	var evt api.WebhookEvent
	if err := c.ShouldBindJSON(&evt); err != nil {
		c.JSON(http.StatusBadRequest, api.Error{Error: "Invalid payload"})
		return
	}

	if subtle.ConstantTimeCompare([]byte(evt.Secret), h.webhookSecret) != 1 {
		c.JSON(http.StatusUnauthorized, api.Error{Error: "Invalid secret"})
		return
	}

	switch evt.Type {
	case eventTest:
		c.Status(http.StatusNoContent)
		return
	case eventAPIUpdate:
	default:
		c.JSON(http.StatusBadRequest, api.Error{Error: "Invalid event"})
		return
	}

	// Regeneration runs on the generator's lifecycle context; this only lists the stored pages.
	if err := h.pages.Revalidate(c.Request.Context()); err != nil {
		log.Error().Err(err).Msg("Failed to schedule revalidation")
		c.JSON(http.StatusInternalServerError, api.Error{Error: "Error handling event"})
		return
	}

	log.Info().Strs("documents", evt.Documents).Msg("Revalidating pages after content update")
	c.Status(http.StatusAccepted)
}
