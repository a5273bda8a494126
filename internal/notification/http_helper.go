package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

const (
	// UserAgent is the User-Agent header value used for all HTTP requests
	UserAgent = "tgreport/1.0"
	// DefaultHTTPTimeout is the default timeout for HTTP clients
	DefaultHTTPTimeout = 10 * time.Second
)

// HTTPNotifier provides the JSON POST plumbing shared by the Bot API calls
type HTTPNotifier struct {
	httpClient *http.Client
	logger     *logrus.Entry
}

// NewHTTPNotifier creates a new HTTP notifier with an optional HTTP client
func NewHTTPNotifier(httpClient *http.Client, logger *logrus.Entry) *HTTPNotifier {
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: DefaultHTTPTimeout,
		}
	}

	return &HTTPNotifier{
		httpClient: httpClient,
		logger:     logger,
	}
}

// PostJSON posts payload as JSON to url and returns the status code and body.
// Non-2xx statuses are not treated as errors; a body that is not JSON is.
func (n *HTTPNotifier) PostJSON(ctx context.Context, url string, payload interface{}) (*Result, error) {
	jsonData, err := encodeJSON(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", UserAgent)

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			n.logger.WithError(err).Warn("Failed to close response body")
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w (status %d)", ErrNonJSONResponse, resp.StatusCode)
	}

	return &Result{StatusCode: resp.StatusCode, Body: body}, nil
}

// encodeJSON marshals without HTML escaping so markup in message text reaches
// the wire byte-for-byte.
func encodeJSON(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
