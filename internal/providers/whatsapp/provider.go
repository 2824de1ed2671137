// Package whatsapp implements the Meta WhatsApp Business Cloud API client.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rentstack/rentstack/internal/config"
	"github.com/rentstack/rentstack/internal/notification/domain"
	"go.uber.org/zap"
)

type Provider struct {
	log           *zap.Logger
	httpClient    *http.Client
	apiBaseURL    string
	accessToken   string
	phoneNumberID string
}

func NewProvider(log *zap.Logger, cfg config.WhatsAppConfig, httpClient *http.Client) *Provider {
	if httpClient == nil {
		timeout := time.Duration(cfg.RequestTimeoutSec) * time.Second
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Provider{
		log:           log.Named("providers.whatsapp"),
		httpClient:    httpClient,
		apiBaseURL:    cfg.APIBaseURL,
		accessToken:   cfg.AccessToken,
		phoneNumberID: cfg.PhoneNumberID,
	}
}

var _ domain.Messenger = (*Provider)(nil)

type sendRequest struct {
	MessagingProduct string       `json:"messaging_product"`
	To               string       `json:"to"`
	Type             string       `json:"type"`
	Template         *template    `json:"template,omitempty"`
	Text             *textContent `json:"text,omitempty"`
}

type template struct {
	Name       string      `json:"name"`
	Language   language    `json:"language"`
	Components []component `json:"components,omitempty"`
}

type language struct {
	Code string `json:"code"`
}

type component struct {
	Type       string      `json:"type"`
	Parameters []parameter `json:"parameters"`
}

type parameter struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type textContent struct {
	Body string `json:"body"`
}

type sendResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
	Error *apiError `json:"error"`
}

type apiError struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// SendTemplate sends an approved template message with positional body parameters.
func (p *Provider) SendTemplate(ctx context.Context, phone, templateName, languageCode string, params []string) (string, error) {
	parameters := make([]parameter, 0, len(params))
	for _, value := range params {
		parameters = append(parameters, parameter{Type: "text", Text: value})
	}

	req := sendRequest{
		MessagingProduct: "whatsapp",
		To:               phone,
		Type:             "template",
		Template: &template{
			Name:     templateName,
			Language: language{Code: languageCode},
			Components: []component{
				{Type: "body", Parameters: parameters},
			},
		},
	}
	return p.send(ctx, req)
}

// SendText sends a free-text message.
func (p *Provider) SendText(ctx context.Context, phone, body string) (string, error) {
	req := sendRequest{
		MessagingProduct: "whatsapp",
		To:               phone,
		Type:             "text",
		Text:             &textContent{Body: body},
	}
	return p.send(ctx, req)
}

func (p *Provider) send(ctx context.Context, payload sendRequest) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("%w: encode request: %v", domain.ErrProviderFailed, err)
	}

	url := fmt.Sprintf("%s/%s/messages", p.apiBaseURL, p.phoneNumberID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: build request: %v", domain.ErrProviderFailed, err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.accessToken)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrProviderFailed, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("%w: read response: %v", domain.ErrProviderFailed, err)
	}

	var parsed sendResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("%w: status %d, unparseable response", domain.ErrProviderFailed, resp.StatusCode)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || parsed.Error != nil {
		code := 0
		message := "unknown error"
		if parsed.Error != nil {
			code = parsed.Error.Code
			message = parsed.Error.Message
		}
		p.log.Warn("provider rejected message",
			zap.Int("http_status", resp.StatusCode),
			zap.Int("error_code", code),
			zap.String("error_message", message),
		)
		return "", fmt.Errorf("%w: code %d: %s", domain.ErrProviderFailed, code, message)
	}

	if len(parsed.Messages) == 0 || parsed.Messages[0].ID == "" {
		return "", fmt.Errorf("%w: response missing message id", domain.ErrProviderFailed)
	}
	return parsed.Messages[0].ID, nil
}
