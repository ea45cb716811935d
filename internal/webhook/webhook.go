// Package webhook verifies and dispatches identity-provider notifications.
//
// Deliveries are signed with the Svix scheme: the svix-id, svix-timestamp and
// svix-signature headers together with the raw body are checked against the
// shared endpoint secret before anything is parsed.
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	svix "github.com/svix/svix-webhooks/go"

	"github.com/sakif/codecraft/internal/apperror"
	"github.com/sakif/codecraft/internal/model"
)

// Signature headers every delivery must carry.
const (
	HeaderID        = "svix-id"
	HeaderTimestamp = "svix-timestamp"
	HeaderSignature = "svix-signature"
)

// EventUserCreated is the only event type the relay acts on.
const EventUserCreated = "user.created"

// ErrMissingUserID reports a verified user.created event without a user id.
// Handlers answer 500 for it, not 400.
var ErrMissingUserID = errors.New("webhook: user.created event has no user id")

// Event is the envelope of every notification.
type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type emailAddress struct {
	EmailAddress string `json:"email_address"`
}

type userData struct {
	ID             string         `json:"id"`
	EmailAddresses []emailAddress `json:"email_addresses"`
	FirstName      string         `json:"first_name"`
	LastName       string         `json:"last_name"`
}

// UserCreated is the profile carried by a user.created event.
type UserCreated struct {
	ExternalID string
	Email      string
	Name       string
}

// UserCreated decodes the event data. Email is the first listed address and
// Name is first and last name joined by a space and trimmed.
func (e *Event) UserCreated() (*UserCreated, error) {
	var d userData
	if err := json.Unmarshal(e.Data, &d); err != nil {
		return nil, fmt.Errorf("webhook: decoding user data: %w", err)
	}
	if d.ID == "" {
		return nil, ErrMissingUserID
	}

	u := &UserCreated{
		ExternalID: d.ID,
		Name:       strings.TrimSpace(d.FirstName + " " + d.LastName),
	}
	if len(d.EmailAddresses) > 0 {
		u.Email = d.EmailAddresses[0].EmailAddress
	}
	return u, nil
}

// Verifier authenticates raw deliveries.
type Verifier struct {
	wh *svix.Webhook
}

// NewVerifier accepts the endpoint secret in its "whsec_..." form.
func NewVerifier(secret string) (*Verifier, error) {
	wh, err := svix.NewWebhook(secret)
	if err != nil {
		return nil, fmt.Errorf("webhook: invalid secret: %w", err)
	}
	return &Verifier{wh: wh}, nil
}

// Verify checks the signature headers against payload and decodes the envelope.
// Every failure wraps apperror.ErrVerification.
func (v *Verifier) Verify(payload []byte, headers http.Header) (*Event, error) {
	if headers.Get(HeaderID) == "" || headers.Get(HeaderTimestamp) == "" || headers.Get(HeaderSignature) == "" {
		return nil, apperror.VerificationFailed("missing svix headers")
	}
	if err := v.wh.Verify(payload, headers); err != nil {
		return nil, apperror.VerificationFailed("invalid webhook signature")
	}

	var evt Event
	if err := json.Unmarshal(payload, &evt); err != nil {
		return nil, apperror.VerificationFailed("malformed webhook payload")
	}
	return &evt, nil
}

// Syncer is the user store the relay writes into.
type Syncer interface {
	Sync(ctx context.Context, externalID, email, name string) (*model.User, error)
}

// Relay verifies deliveries and mirrors created users into the local store.
type Relay struct {
	verifier *Verifier
	users    Syncer
	logger   *slog.Logger
	onEvent  func(eventType, outcome string)
}

// NewRelay wires a verifier to a user store. onEvent, if non-nil, is told the
// outcome of every delivery ("rejected", "synced", "failed", "ignored").
func NewRelay(verifier *Verifier, users Syncer, logger *slog.Logger, onEvent func(eventType, outcome string)) *Relay {
	if onEvent == nil {
		onEvent = func(string, string) {}
	}
	return &Relay{verifier: verifier, users: users, logger: logger, onEvent: onEvent}
}

// Handle processes one delivery. Verification failures wrap
// apperror.ErrVerification and leave storage untouched; other errors come
// from the user store. Unknown event types are accepted and ignored.
func (r *Relay) Handle(ctx context.Context, payload []byte, headers http.Header) error {
	evt, err := r.verifier.Verify(payload, headers)
	if err != nil {
		r.logger.Warn("rejected webhook delivery",
			slog.String("svix_id", headers.Get(HeaderID)),
			slog.String("error", err.Error()),
		)
		r.onEvent("unknown", "rejected")
		return err
	}

	if evt.Type != EventUserCreated {
		r.logger.Debug("ignoring webhook event", slog.String("type", evt.Type))
		r.onEvent(evt.Type, "ignored")
		return nil
	}

	u, err := evt.UserCreated()
	if err != nil {
		r.logger.Error("unusable user.created event", slog.String("error", err.Error()))
		r.onEvent(evt.Type, "failed")
		return err
	}

	if _, err := r.users.Sync(ctx, u.ExternalID, u.Email, u.Name); err != nil {
		r.logger.Error("failed to sync user from webhook",
			slog.String("external_id", u.ExternalID),
			slog.String("error", err.Error()),
		)
		r.onEvent(evt.Type, "failed")
		return fmt.Errorf("webhook: syncing user %s: %w", u.ExternalID, err)
	}

	r.logger.Info("synced user from webhook", slog.String("external_id", u.ExternalID))
	r.onEvent(evt.Type, "synced")
	return nil
}
