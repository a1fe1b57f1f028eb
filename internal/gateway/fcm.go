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

	"github.com/usmankhan045/blood-donation-notifier/internal/domain"
)

const defaultGatewayTimeout = 10 * time.Second

type fcmNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type fcmAndroidNotification struct {
	Sound     string `json:"sound"`
	ChannelID string `json:"channelId"`
}

type fcmAndroid struct {
	Priority     string                 `json:"priority"`
	Notification fcmAndroidNotification `json:"notification"`
}

type fcmAPNSAlert struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type fcmAPNSAps struct {
	Alert fcmAPNSAlert `json:"alert"`
	Sound string       `json:"sound"`
	Badge int          `json:"badge"`
}

type fcmAPNSPayload struct {
	Aps fcmAPNSAps `json:"aps"`
}

type fcmAPNS struct {
	Payload fcmAPNSPayload `json:"payload"`
}

type fcmRequest struct {
	Token        string            `json:"token"`
	Notification fcmNotification   `json:"notification"`
	Data         map[string]string `json:"data,omitempty"`
	Android      fcmAndroid        `json:"android"`
	APNS         fcmAPNS           `json:"apns"`
}

// FCMGateway delivers token-addressed pushes over the FCM HTTP API.
type FCMGateway struct {
	client    *resty.Client
	endpoint  string
	serverKey string
}

func NewFCMGateway(endpoint, serverKey string, timeout time.Duration) (*FCMGateway, error) {
	client := resty.New()
	if timeout <= 0 {
		timeout = defaultGatewayTimeout
	}
	client.SetTimeout(timeout)
	client.SetRetryCount(0)

	return NewFCMGatewayWithClient(endpoint, serverKey, client)
}

func NewFCMGatewayWithClient(endpoint, serverKey string, client *resty.Client) (*FCMGateway, error) {
	trimmedEndpoint := strings.TrimSpace(endpoint)
	if trimmedEndpoint == "" {
		return nil, fmt.Errorf("fcm endpoint is required")
	}
	if _, err := url.ParseRequestURI(trimmedEndpoint); err != nil {
		return nil, fmt.Errorf("invalid fcm endpoint: %w", err)
	}
	if client == nil {
		return nil, fmt.Errorf("resty client is required")
	}

	if client.GetClient().Timeout == 0 {
		client.SetTimeout(defaultGatewayTimeout)
	}
	client.SetRetryCount(0)

	return &FCMGateway{
		client:    client,
		endpoint:  trimmedEndpoint,
		serverKey: strings.TrimSpace(serverKey),
	}, nil
}

func (g *FCMGateway) Send(ctx context.Context, msg Message) (*Response, error) {
	if g == nil || g.client == nil {
		return nil, fmt.Errorf("gateway is not initialized")
	}
	if err := msg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid push message: %w", err)
	}

	reqBody := fcmRequest{
		Token: msg.Token,
		Notification: fcmNotification{
			Title: msg.Title,
			Body:  msg.Body,
		},
		Data: msg.Data,
		Android: fcmAndroid{
			Priority: androidPriority(msg.Priority),
			Notification: fcmAndroidNotification{
				Sound:     "default",
				ChannelID: "high_importance_channel",
			},
		},
		APNS: fcmAPNS{
			Payload: fcmAPNSPayload{
				Aps: fcmAPNSAps{
					Alert: fcmAPNSAlert{Title: msg.Title, Body: msg.Body},
					Sound: "default",
					Badge: 1,
				},
			},
		},
	}

	req := g.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(reqBody)
	if g.serverKey != "" {
		req.SetHeader("Authorization", "key="+g.serverKey)
	}

	response, err := req.Post(g.endpoint)
	if err != nil {
		return nil, &GatewayError{
			Message:   "fcm request failed",
			Transient: !errors.Is(err, context.Canceled),
			Cause:     err,
		}
	}
	if response == nil {
		return nil, &GatewayError{
			Message:   "fcm returned empty response",
			Transient: true,
		}
	}

	statusCode := response.StatusCode()
	responseBody := strings.TrimSpace(response.String())

	if statusCode >= http.StatusOK && statusCode < http.StatusMultipleChoices {
		return &Response{
			StatusCode: statusCode,
			Body:       responseBody,
			MessageID:  gatewayMessageID(response),
		}, nil
	}

	return nil, &GatewayError{
		StatusCode: statusCode,
		Message:    gatewayErrorMessage("fcm", statusCode, responseBody),
		Transient:  isTransientHTTPStatus(statusCode),
	}
}

func androidPriority(p domain.Priority) string {
	if p == domain.PriorityHigh {
		return "high"
	}
	return "normal"
}

func isTransientHTTPStatus(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests || (statusCode >= http.StatusInternalServerError && statusCode <= 599)
}

func gatewayErrorMessage(name string, statusCode int, body string) string {
	base := fmt.Sprintf("%s returned status %d", name, statusCode)
	if body == "" {
		return base
	}
	return fmt.Sprintf("%s: %s", base, body)
}

func gatewayMessageID(response *resty.Response) string {
	if response == nil {
		return ""
	}

	for _, key := range []string{"X-Request-ID", "X-Request-Id", "X-Message-ID", "X-Message-Id"} {
		if value := strings.TrimSpace(response.Header().Get(key)); value != "" {
			return value
		}
	}

	return ""
}
