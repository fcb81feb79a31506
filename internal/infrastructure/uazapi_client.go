package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"renewal_notifier/internal/apperrors"
	"renewal_notifier/internal/entities"
	"renewal_notifier/internal/interfaces"
)

// maxProviderBody caps how much of a provider response is kept.
const maxProviderBody = 64 << 10

// UazapiClient talks to the uazapi WhatsApp HTTP API.
type UazapiClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewUazapiClient(baseURL string, timeout time.Duration) interfaces.Messenger {
	return &UazapiClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (u *UazapiClient) SendText(ctx context.Context, instance *entities.MessagingInstance, number, text string) (json.RawMessage, error) {
	payload := map[string]string{
		"number": number,
		"text":   text,
	}
	return u.post(ctx, instance, "/send/text", payload)
}

// Connect starts pairing and returns the QR code payload from the provider.
func (u *UazapiClient) Connect(ctx context.Context, instance *entities.MessagingInstance) (string, error) {
	body, err := u.post(ctx, instance, "/instance/connect", map[string]string{})
	if err != nil {
		return "", err
	}
	var resp struct {
		QRCode   string `json:"qrcode"`
		Instance struct {
			QRCode string `json:"qrcode"`
		} `json:"instance"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decode connect response: %w", err)
	}
	if resp.Instance.QRCode != "" {
		return resp.Instance.QRCode, nil
	}
	return resp.QRCode, nil
}

func (u *UazapiClient) post(ctx context.Context, instance *entities.MessagingInstance, path string, payload any) (json.RawMessage, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("token", instance.Token)

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrProvider, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxProviderBody))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", apperrors.ErrProvider, err)
	}
	if !json.Valid(body) {
		quoted, _ := json.Marshal(string(body))
		body = quoted
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &apperrors.ProviderError{StatusCode: resp.StatusCode, Body: body}
	}
	return body, nil
}
