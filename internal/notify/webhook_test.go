package notify

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"macro-meal-planner/internal/planner"
)

const testSecret = "deadbeefcafe0123"

func TestNotifySignsAndDelivers(t *testing.T) {
	var gotAuth string
	var gotEvent planner.ProgressEvent

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotEvent))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL, "hook-id:"+testSecret, nil)
	n.Notify(context.Background(), planner.ProgressEvent{Day: 3, Message: "Generating day 3 of 5", Progress: 40})

	assert.Equal(t, planner.ProgressEvent{Day: 3, Message: "Generating day 3 of 5", Progress: 40}, gotEvent)

	require.True(t, strings.HasPrefix(gotAuth, "Bearer "))
	rawToken := strings.TrimPrefix(gotAuth, "Bearer ")

	secret, err := hex.DecodeString(testSecret)
	require.NoError(t, err)

	token, err := jwt.Parse(rawToken, func(tok *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithAudience("/progress/"))
	require.NoError(t, err)
	assert.True(t, token.Valid)
	assert.Equal(t, "hook-id", token.Header["kid"])
}

func TestNotifySkipsWithoutURL(t *testing.T) {
	n := NewWebhookNotifier("", "hook-id:"+testSecret, nil)
	// Must be a no-op rather than an attempted delivery.
	n.Notify(context.Background(), planner.ProgressEvent{Day: 1})
}

func TestNotifyToleratesBadKey(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL, "not-a-valid-key", nil)
	n.Notify(context.Background(), planner.ProgressEvent{Day: 1})
	assert.False(t, called)
}

func TestProgressFuncAdapter(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
	}))
	defer srv.Close()

	fn := NewWebhookNotifier(srv.URL, "hook-id:"+testSecret, nil).ProgressFunc()
	fn(planner.ProgressEvent{Day: 1, Progress: 0})
	fn(planner.ProgressEvent{Day: 5, Progress: 100})
	assert.Equal(t, 2, hits)
}
