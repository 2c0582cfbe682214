package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"agenda/internal/config"

	"github.com/stretchr/testify/assert"
)

func TestWhatsAppSender_Success(t *testing.T) {
	var got waTextRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v18.0/12345/messages", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"messages":[{"id":"wamid.ABC"}]}`))
	}))
	defer srv.Close()

	sender := NewWhatsAppSender(config.WhatsAppConfig{
		APIURL:        srv.URL + "/v18.0/",
		PhoneNumberID: "12345",
		AccessToken:   "secret",
	}, time.Second)

	res := sender.Send(context.Background(), "+54 9 11 2222-3333", "Hola")
	assert.True(t, res.Success)
	assert.Equal(t, "wamid.ABC", res.MessageID)
	assert.Empty(t, res.Error)

	assert.Equal(t, "whatsapp", got.MessagingProduct)
	assert.Equal(t, "5491122223333", got.To)
	assert.Equal(t, "Hola", got.Text.Body)
	assert.Equal(t, "whatsapp", sender.Provider())
}

func TestWhatsAppSender_Failures(t *testing.T) {
	t.Run("ApiError", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"message":"Invalid parameter","code":100}}`))
		}))
		defer srv.Close()

		sender := NewWhatsAppSender(config.WhatsAppConfig{APIURL: srv.URL, PhoneNumberID: "1", AccessToken: "t"}, time.Second)
		res := sender.Send(context.Background(), "+5491122223333", "Hola")
		assert.False(t, res.Success)
		assert.Contains(t, res.Error, "Invalid parameter")
	})

	t.Run("MissingMessageID", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{}`))
		}))
		defer srv.Close()

		sender := NewWhatsAppSender(config.WhatsAppConfig{APIURL: srv.URL, PhoneNumberID: "1", AccessToken: "t"}, time.Second)
		res := sender.Send(context.Background(), "+5491122223333", "Hola")
		assert.False(t, res.Success)
	})

	t.Run("Timeout", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
		}))
		defer srv.Close()

		sender := NewWhatsAppSender(config.WhatsAppConfig{APIURL: srv.URL, PhoneNumberID: "1", AccessToken: "t"}, 20*time.Millisecond)
		res := sender.Send(context.Background(), "+5491122223333", "Hola")
		assert.False(t, res.Success)
		assert.NotEmpty(t, res.Error)
	})

	t.Run("Unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		sender := NewWhatsAppSender(config.WhatsAppConfig{APIURL: url, PhoneNumberID: "1", AccessToken: "t"}, time.Second)
		res := sender.Send(context.Background(), "+5491122223333", "Hola")
		assert.False(t, res.Success)
	})

	t.Run("InvalidRecipient", func(t *testing.T) {
		sender := NewWhatsAppSender(config.WhatsAppConfig{APIURL: "http://127.0.0.1:1", PhoneNumberID: "1"}, time.Second)
		res := sender.Send(context.Background(), "n/a", "Hola")
		assert.False(t, res.Success)
		assert.Contains(t, res.Error, "invalid recipient")
	})
}

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "5491122223333", NormalizePhone("+54 9 11 2222-3333"))
	assert.Equal(t, "", NormalizePhone("123"))
	assert.Equal(t, "", NormalizePhone(""))
}
