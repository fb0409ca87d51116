package notify

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"macro-meal-planner/internal/planner"
)

const tokenTTL = 5 * time.Minute

// WebhookNotifier posts plan-generation progress events to an external
// endpoint, signing each request with a short-lived JWT. Delivery is best
// effort: failures are logged and never surface to the caller.
type WebhookNotifier struct {
	url        string
	key        string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewWebhookNotifier creates a notifier for the given endpoint. key uses the
// "id:hexsecret" format.
func NewWebhookNotifier(url, key string, logger *slog.Logger) *WebhookNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebhookNotifier{
		url:        url,
		key:        key,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

// ProgressFunc adapts the notifier to the planner's progress hook.
func (n *WebhookNotifier) ProgressFunc() planner.ProgressFunc {
	return func(ev planner.ProgressEvent) {
		n.Notify(context.Background(), ev)
	}
}

// Notify delivers one progress event. Errors are logged, not returned.
func (n *WebhookNotifier) Notify(ctx context.Context, ev planner.ProgressEvent) {
	if n.url == "" {
		return
	}

	token, err := n.createToken()
	if err != nil {
		n.logger.Error("failed to sign progress webhook token", "error", err)
		return
	}

	body, err := json.Marshal(ev)
	if err != nil {
		n.logger.Error("failed to encode progress event", "error", err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		n.logger.Error("failed to create progress webhook request", "error", err)
		return
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		n.logger.Warn("progress webhook delivery failed", "error", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		n.logger.Warn("progress webhook rejected", "status", resp.StatusCode)
	}
}

// createToken generates a short-lived JWT from the "id:hexsecret" key.
func (n *WebhookNotifier) createToken() (string, error) {
	keyParts := strings.Split(n.key, ":")
	if len(keyParts) != 2 {
		return "", fmt.Errorf("invalid webhook key format: expected id:secret")
	}

	id := keyParts[0]
	secret, err := hex.DecodeString(keyParts[1])
	if err != nil {
		return "", fmt.Errorf("failed to decode secret hex: %w", err)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(tokenTTL).Unix(),
		"aud": "/progress/",
	})
	token.Header["kid"] = id

	return token.SignedString(secret)
}
