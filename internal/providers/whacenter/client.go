package whacenter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const DefaultBaseURL = "https://app.whacenter.com/api"

type Client struct {
	HTTP    *http.Client
	BaseURL string
}

type SendRequest struct {
	DeviceID string
	Target   string
	Message  string
	IsGroup  bool
}

type SendResponse struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// SendError is returned for every unsuccessful send. HTTPStatus is zero when
// the request never got a response.
type SendError struct {
	HTTPStatus int
	Reason     string
	Err        error
}

func (e *SendError) Error() string {
	switch {
	case e.Reason != "":
		return e.Reason
	case e.Err != nil:
		return "whacenter transport error: " + e.Err.Error()
	default:
		return fmt.Sprintf("whacenter API error with status %d", e.HTTPStatus)
	}
}

func (e *SendError) Unwrap() error { return e.Err }

// Send posts one message. It succeeds only on a 2xx response whose payload
// does not report status "error".
func (c *Client) Send(ctx context.Context, req SendRequest) (SendResponse, error) {
	form := url.Values{}
	form.Set("device_id", req.DeviceID)
	endpoint := "send"
	if req.IsGroup {
		form.Set("group", req.Target)
		endpoint = "sendGroup"
	} else {
		form.Set("number", req.Target)
	}
	form.Set("message", req.Message)

	baseURL := strings.TrimRight(c.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/"+endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return SendResponse{}, &SendError{Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(httpReq)
	if err != nil {
		return SendResponse{}, &SendError{Err: err}
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return SendResponse{}, &SendError{HTTPStatus: resp.StatusCode, Err: err}
	}

	var out SendResponse
	parseErr := json.Unmarshal(b, &out)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || out.Status == "error" {
		return out, &SendError{HTTPStatus: resp.StatusCode, Reason: out.Reason}
	}
	if parseErr != nil {
		return out, &SendError{HTTPStatus: resp.StatusCode, Err: fmt.Errorf("decode response: %w", parseErr)}
	}
	return out, nil
}

// HTTPStatus extracts the gateway status code from err, or 0.
func HTTPStatus(err error) int {
	var se *SendError
	if errors.As(err, &se) {
		return se.HTTPStatus
	}
	return 0
}
