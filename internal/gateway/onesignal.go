package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

type oneSignalFilter struct {
	Field    string `json:"field,omitempty"`
	Key      string `json:"key,omitempty"`
	Relation string `json:"relation,omitempty"`
	Value    string `json:"value,omitempty"`
	Operator string `json:"operator,omitempty"`
}

type oneSignalRequest struct {
	AppID    string            `json:"app_id"`
	Headings map[string]string `json:"headings"`
	Contents map[string]string `json:"contents"`
	Data     map[string]string `json:"data,omitempty"`
	Filters  []oneSignalFilter `json:"filters"`
}

type oneSignalResponse struct {
	ID string `json:"id"`
}

// OneSignalGateway broadcasts pushes to tag-filtered audiences.
type OneSignalGateway struct {
	client   *resty.Client
	endpoint string
	appID    string
	apiKey   string
}

func NewOneSignalGateway(endpoint, appID, apiKey string, timeout time.Duration) (*OneSignalGateway, error) {
	client := resty.New()
	if timeout <= 0 {
		timeout = defaultGatewayTimeout
	}
	client.SetTimeout(timeout)
	client.SetRetryCount(0)

	return NewOneSignalGatewayWithClient(endpoint, appID, apiKey, client)
}

func NewOneSignalGatewayWithClient(endpoint, appID, apiKey string, client *resty.Client) (*OneSignalGateway, error) {
	trimmedEndpoint := strings.TrimSpace(endpoint)
	if trimmedEndpoint == "" {
		return nil, fmt.Errorf("onesignal endpoint is required")
	}
	if _, err := url.ParseRequestURI(trimmedEndpoint); err != nil {
		return nil, fmt.Errorf("invalid onesignal endpoint: %w", err)
	}
	if strings.TrimSpace(appID) == "" {
		return nil, fmt.Errorf("onesignal app id is required")
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("onesignal api key is required")
	}
	if client == nil {
		return nil, fmt.Errorf("resty client is required")
	}

	if client.GetClient().Timeout == 0 {
		client.SetTimeout(defaultGatewayTimeout)
	}
	client.SetRetryCount(0)

	return &OneSignalGateway{
		client:   client,
		endpoint: trimmedEndpoint,
		appID:    strings.TrimSpace(appID),
		apiKey:   strings.TrimSpace(apiKey),
	}, nil
}

func (g *OneSignalGateway) SendToAudience(ctx context.Context, audience Audience, title, body string, data map[string]string) (*Response, error) {
	if g == nil || g.client == nil {
		return nil, fmt.Errorf("gateway is not initialized")
	}
	if err := audience.Validate(); err != nil {
		return nil, fmt.Errorf("invalid audience: %w", err)
	}
	if strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("title is required")
	}
	if strings.TrimSpace(body) == "" {
		return nil, fmt.Errorf("body is required")
	}

	reqBody := oneSignalRequest{
		AppID:    g.appID,
		Headings: map[string]string{"en": title},
		Contents: map[string]string{"en": body},
		Data:     data,
		Filters: []oneSignalFilter{
			{Field: "tag", Key: "city", Relation: "=", Value: audience.City},
			{Operator: "AND"},
			{Field: "tag", Key: "bloodType", Relation: "=", Value: audience.BloodType},
		},
	}

	var parsed oneSignalResponse
	response, err := g.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("Authorization", "Basic "+g.apiKey).
		SetBody(reqBody).
		SetResult(&parsed).
		Post(g.endpoint)
	if err != nil {
		return nil, &GatewayError{
			Message:   "onesignal request failed",
			Transient: !errors.Is(err, context.Canceled),
			Cause:     err,
		}
	}
	if response == nil {
		return nil, &GatewayError{
			Message:   "onesignal returned empty response",
			Transient: true,
		}
	}

	statusCode := response.StatusCode()
	responseBody := strings.TrimSpace(response.String())

	if statusCode >= http.StatusOK && statusCode < http.StatusMultipleChoices {
		messageID := parsed.ID
		if messageID == "" {
			messageID = gatewayMessageID(response)
		}
		return &Response{
			StatusCode: statusCode,
			Body:       responseBody,
			MessageID:  messageID,
		}, nil
	}

	return nil, &GatewayError{
		StatusCode: statusCode,
		Message:    gatewayErrorMessage("onesignal", statusCode, responseBody),
		Transient:  isTransientHTTPStatus(statusCode),
	}
}
