package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"agenda/internal/config"
	"agenda/internal/models"
)

// WhatsAppSender posts text messages to the WhatsApp Cloud API.
type WhatsAppSender struct {
	endpoint string
	token    string
	http     *http.Client
}

func NewWhatsAppSender(cfg config.WhatsAppConfig, timeout time.Duration) *WhatsAppSender {
	return &WhatsAppSender{
		endpoint: strings.TrimRight(strings.TrimSpace(cfg.APIURL), "/") + "/" + strings.TrimSpace(cfg.PhoneNumberID) + "/messages",
		token:    strings.TrimSpace(cfg.AccessToken),
		http:     &http.Client{Timeout: timeout},
	}
}

func (s *WhatsAppSender) Provider() string {
	return "whatsapp"
}

type waTextRequest struct {
	MessagingProduct string `json:"messaging_product"`
	To               string `json:"to"`
	Type             string `json:"type"`
	Text             struct {
		Body string `json:"body"`
	} `json:"text"`
}

type waResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
	Error *struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// Send never returns an error; failures are reported in the result.
func (s *WhatsAppSender) Send(ctx context.Context, recipient, message string) models.SendResult {
	to := NormalizePhone(recipient)
	if to == "" {
		return failed("invalid recipient phone %q", recipient)
	}

	req := waTextRequest{MessagingProduct: "whatsapp", To: to, Type: "text"}
	req.Text.Body = message
	raw, err := json.Marshal(req)
	if err != nil {
		return failed("encode request: %v", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(raw))
	if err != nil {
		return failed("build request: %v", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+s.token)

	resp, err := s.http.Do(httpReq)
	if err != nil {
		return failed("send: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var parsed waResponse
	_ = json.Unmarshal(body, &parsed)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if parsed.Error != nil && parsed.Error.Message != "" {
			return failed("whatsapp api %d: %s", resp.StatusCode, parsed.Error.Message)
		}
		return failed("whatsapp api returned %d", resp.StatusCode)
	}
	if len(parsed.Messages) == 0 || parsed.Messages[0].ID == "" {
		return failed("whatsapp api response without message id")
	}
	return models.SendResult{Success: true, MessageID: parsed.Messages[0].ID}
}

// NormalizePhone keeps the digits of an international number, dropping '+', spaces and dashes.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() < 8 {
		return ""
	}
	return b.String()
}

func failed(format string, args ...interface{}) models.SendResult {
	return models.SendResult{Success: false, Error: fmt.Sprintf(format, args...)}
}
