package notification

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// MaxImageSize is the largest photo accepted by URL (5 MiB)
const MaxImageSize = 5 * 1024 * 1024

// ImageValidator checks a photo URL with a HEAD request before Telegram fetches it
type ImageValidator struct {
	httpClient *http.Client
	logger     *logrus.Entry
}

// NewImageValidator creates a new validator; a nil client gets the default timeout
func NewImageValidator(httpClient *http.Client, logger *logrus.Entry) *ImageValidator {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultHTTPTimeout}
	}
	return &ImageValidator{httpClient: httpClient, logger: logger}
}

// Validate requires a 2xx status, an image/* content type and at most MaxImageSize bytes
func (v *ImageValidator) Validate(ctx context.Context, url string) error {
	err := v.validate(ctx, url)
	if err != nil {
		v.logger.WithError(err).WithField("url", url).Warn("Image validation failed")
	}
	return err
}

func (v *ImageValidator) validate(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: network error or URL not reachable: %v", ErrInvalidImage, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: HTTP %d", ErrInvalidImage, resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(strings.ToLower(contentType), "image/") {
		return fmt.Errorf("%w: content type %q (expected image/*)", ErrInvalidImage, contentType)
	}

	if raw := resp.Header.Get("Content-Length"); raw != "" {
		size, err := strconv.ParseInt(raw, 10, 64)
		if err == nil && size > MaxImageSize {
			return fmt.Errorf("%w: image too large: %d bytes (max %d bytes)", ErrInvalidImage, size, MaxImageSize)
		}
	}

	return nil
}
