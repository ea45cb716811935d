package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/sakif/codecraft/internal/webhook"
)

// WebhookHandler receives identity-provider deliveries.
type WebhookHandler struct {
	relay  *webhook.Relay
	logger *slog.Logger
}

func NewWebhookHandler(relay *webhook.Relay, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{relay: relay, logger: logger}
}

// HandleIdentity verifies and applies one delivery.
//
// HTTP: POST /webhooks/identity
//
// The body must be read raw: the signature covers the exact bytes sent.
func (h *WebhookHandler) HandleIdentity(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, ErrorResponse{Error: "validation_error", Message: "payload too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "could not read body"})
		return
	}

	if err := h.relay.Handle(r.Context(), payload, r.Header); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "webhook processed"})
}
