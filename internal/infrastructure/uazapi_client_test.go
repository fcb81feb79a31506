package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"renewal_notifier/internal/apperrors"
	"renewal_notifier/internal/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUazapiClient_SendText(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/send/text", r.URL.Path)
		assert.Equal(t, "secret-token", r.Header.Get("token"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"msg-1"}`))
	}))
	defer srv.Close()

	client := NewUazapiClient(srv.URL, time.Second)
	inst := &entities.MessagingInstance{InstanceKey: "abc", Token: "secret-token"}
	body, err := client.SendText(context.Background(), inst, "5511999990000", "olá")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"msg-1"}`, string(body))
	assert.Equal(t, map[string]string{"number": "5511999990000", "text": "olá"}, got)
}

func TestUazapiClient_SendTextFailurePassesBodyThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid number"}`))
	}))
	defer srv.Close()

	client := NewUazapiClient(srv.URL, time.Second)
	_, err := client.SendText(context.Background(), &entities.MessagingInstance{Token: "t"}, "1", "x")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrProvider))

	var provErr *apperrors.ProviderError
	require.True(t, errors.As(err, &provErr))
	assert.Equal(t, http.StatusBadRequest, provErr.StatusCode)
	assert.JSONEq(t, `{"error":"invalid number"}`, string(provErr.Body))
}

func TestUazapiClient_NonJSONBodyIsQuoted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream down"))
	}))
	defer srv.Close()

	client := NewUazapiClient(srv.URL, time.Second)
	_, err := client.SendText(context.Background(), &entities.MessagingInstance{Token: "t"}, "1", "x")
	var provErr *apperrors.ProviderError
	require.True(t, errors.As(err, &provErr))
	assert.Equal(t, `"upstream down"`, string(provErr.Body))
}

func TestUazapiClient_Connect(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/instance/connect", r.URL.Path)
		w.Write([]byte(`{"instance":{"qrcode":"2@pairing-payload"}}`))
	}))
	defer srv.Close()

	client := NewUazapiClient(srv.URL, time.Second)
	qr, err := client.Connect(context.Background(), &entities.MessagingInstance{Token: "t"})
	require.NoError(t, err)
	assert.Equal(t, "2@pairing-payload", qr)
}
