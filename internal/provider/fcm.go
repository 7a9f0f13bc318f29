package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pushrelay/push-relay/internal/domain"
)

const (
	defaultSendTimeout = 10 * time.Second

	fcmEndpointFormat = "https://fcm.googleapis.com/v1/projects/%s/messages:send"
)

type fcmNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type fcmMessage struct {
	Token        string            `json:"token"`
	Notification fcmNotification   `json:"notification"`
	Data         map[string]string `json:"data,omitempty"`
}

type fcmSendRequest struct {
	Message fcmMessage `json:"message"`
}

type fcmSendResponse struct {
	Name string `json:"name"`
}

type fcmErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
		Details []struct {
			Type      string `json:"@type"`
			ErrorCode string `json:"errorCode"`
		} `json:"details"`
	} `json:"error"`
}

// FCMProvider delivers notifications through the FCM HTTP v1 send endpoint,
// one POST per device token with a caller-supplied bearer token.
type FCMProvider struct {
	client   *resty.Client
	endpoint string
}

// FCMEndpointForProject builds the project-scoped send URL.
func FCMEndpointForProject(projectID string) string {
	return fmt.Sprintf(fcmEndpointFormat, strings.TrimSpace(projectID))
}

func NewFCMProvider(projectID string) (*FCMProvider, error) {
	client := resty.New()
	client.SetTimeout(defaultSendTimeout)
	client.SetRetryCount(0)

	return NewFCMProviderWithClient(FCMEndpointForProject(projectID), client)
}

func NewFCMProviderWithClient(endpoint string, client *resty.Client) (*FCMProvider, error) {
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
		client.SetTimeout(defaultSendTimeout)
	}
	client.SetRetryCount(0)

	return &FCMProvider{
		client:   client,
		endpoint: trimmedEndpoint,
	}, nil
}

func (p *FCMProvider) Send(ctx context.Context, accessToken string, msg domain.PushMessage) (*ProviderResponse, error) {
	if p == nil || p.client == nil {
		return nil, fmt.Errorf("provider is not initialized")
	}
	if strings.TrimSpace(accessToken) == "" {
		return nil, fmt.Errorf("access token is required")
	}
	if strings.TrimSpace(msg.Token) == "" {
		return nil, &ProviderError{
			Kind:    KindInvalidToken,
			Message: "device token is empty",
		}
	}

	reqBody := fcmSendRequest{
		Message: fcmMessage{
			Token: msg.Token,
			Notification: fcmNotification{
				Title: msg.Title,
				Body:  msg.Body,
			},
			Data: msg.Data,
		},
	}

	response, err := p.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetAuthToken(accessToken).
		SetBody(reqBody).
		Post(p.endpoint)
	if err != nil {
		kind := KindTransient
		if ctx != nil && ctx.Err() == context.Canceled {
			kind = KindUnknown
		}
		return nil, &ProviderError{
			Kind:    kind,
			Message: "fcm request failed",
			Cause:   err,
		}
	}
	if response == nil {
		return nil, &ProviderError{
			Kind:    KindTransient,
			Message: "fcm returned empty response",
		}
	}

	statusCode := response.StatusCode()
	responseBody := strings.TrimSpace(response.String())

	if statusCode >= http.StatusOK && statusCode < http.StatusMultipleChoices {
		return &ProviderResponse{
			StatusCode: statusCode,
			Body:       responseBody,
			MessageID:  fcmMessageID(response.Body()),
		}, nil
	}

	return nil, &ProviderError{
		StatusCode: statusCode,
		Kind:       classifyFCMError(statusCode, response.Body()),
		Message:    fcmErrorMessage(statusCode, responseBody),
	}
}

// classifyFCMError maps an FCM v1 error response to a retry class. The
// errorCode detail takes precedence over the HTTP status because FCM reports
// unregistered tokens through more than one status code.
func classifyFCMError(statusCode int, body []byte) ErrorKind {
	var parsed fcmErrorResponse
	if err := json.Unmarshal(body, &parsed); err == nil {
		for _, detail := range parsed.Error.Details {
			switch strings.ToUpper(detail.ErrorCode) {
			case "UNREGISTERED":
				return KindInvalidToken
			case "INVALID_ARGUMENT":
				return KindPayload
			case "UNAVAILABLE", "INTERNAL", "QUOTA_EXCEEDED":
				return KindTransient
			}
		}
	}

	switch {
	case statusCode == http.StatusNotFound || statusCode == http.StatusGone:
		return KindInvalidToken
	case statusCode == http.StatusBadRequest:
		return KindPayload
	case statusCode == http.StatusTooManyRequests:
		return KindTransient
	case statusCode >= http.StatusInternalServerError && statusCode <= 599:
		return KindTransient
	}
	return KindUnknown
}

func fcmErrorMessage(statusCode int, body string) string {
	base := fmt.Sprintf("fcm returned status %d", statusCode)
	if body == "" {
		return base
	}
	return fmt.Sprintf("%s: %s", base, body)
}

func fcmMessageID(body []byte) string {
	var parsed fcmSendResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return ""
	}
	return strings.TrimSpace(parsed.Name)
}
