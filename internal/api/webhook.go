package api

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"messenger-bot-demo/backend/internal/messenger"
	"messenger-bot-demo/backend/pkg/config"
	"messenger-bot-demo/backend/pkg/errors"
	"messenger-bot-demo/backend/pkg/logger"
	"messenger-bot-demo/backend/pkg/metrics"
)

// DeliveryProcessor runs the event pipeline for one webhook delivery
type DeliveryProcessor interface {
	ProcessDelivery(ctx context.Context, events []messenger.Event)
}

// WebhookHandler serves the two platform webhook endpoints: subscription
// verification (GET) and event delivery (POST).
type WebhookHandler struct {
	cfg       *config.Config
	processor DeliveryProcessor
	log       *logger.Logger
	// Async detaches pipeline processing from the request so a slow
	// platform API call cannot stall webhook intake. Tests disable it.
	Async bool
}

func NewWebhookHandler(cfg *config.Config, processor DeliveryProcessor, log *logger.Logger) *WebhookHandler {
	return &WebhookHandler{
		cfg:       cfg,
		processor: processor,
		log:       log,
		Async:     true,
	}
}

// RegisterRoutes registers the webhook endpoints
func (h *WebhookHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/webhook", h.Verify)
	router.POST("/webhook", h.Receive)
}

// Verify answers the platform's subscription handshake: echo hub.challenge
// when hub.verify_token matches the configured token.
func (h *WebhookHandler) Verify(c *gin.Context) {
	token := c.Query("hub.verify_token")
	if token == "" || token != h.cfg.Messenger.VerifyToken {
		c.Error(errors.NewForbiddenError("VERIFY_TOKEN_MISMATCH", "Webhook verification token mismatch"))
		return
	}

	c.String(http.StatusOK, c.Query("hub.challenge"))
}

// Receive authenticates and decodes one webhook delivery, then runs the
// pipeline. The contract to the platform is "acknowledge receipt": once the
// payload is authentic and well-formed, the response is 200 no matter what
// happens inside the per-event pipeline.
func (h *WebhookHandler) Receive(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		metrics.DeliveriesReceived.WithLabelValues("malformed").Inc()
		c.Error(errors.NewBadRequestError("UNREADABLE_BODY", "Could not read request body"))
		return
	}

	signature := c.GetHeader("X-Hub-Signature")
	if !messenger.VerifySignature(body, signature, []byte(h.cfg.Messenger.AppSecret)) {
		metrics.DeliveriesReceived.WithLabelValues("bad_signature").Inc()
		c.Error(errors.NewForbiddenError("BAD_SIGNATURE", "Request signature could not be verified"))
		return
	}

	events, err := messenger.DecodePayload(body)
	if err != nil {
		metrics.DeliveriesReceived.WithLabelValues("malformed").Inc()
		c.Error(errors.NewBadRequestError("MALFORMED_PAYLOAD", "Webhook payload is structurally invalid"))
		return
	}

	metrics.DeliveriesReceived.WithLabelValues("accepted").Inc()

	if h.Async {
		// Detached from the request context: the delivery is acknowledged
		// below and processing runs to completion on its own.
		go h.processor.ProcessDelivery(context.Background(), events)
	} else {
		h.processor.ProcessDelivery(c.Request.Context(), events)
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok", "events": len(events)})
}
