package globe

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	errs "trackcrawler/pkg/errors"
	"trackcrawler/pkg/logger"
	"trackcrawler/pkg/models"
)

// maxPayloadSize caps a single trace document; full-day traces of busy airframes stay well below it
const maxPayloadSize = 64 << 20

// Client fetches trace documents from the history archive
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	referer    string
	logger     logger.Logger
}

// NewClient creates a new archive client with a per-request timeout
func NewClient(timeout time.Duration, userAgent, referer string, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		// The archive rejects requests that don't look like the web map's XHR calls
		headers: map[string]string{
			"Accept":           "application/json, text/javascript, */*; q=0.01",
			"Accept-Encoding":  "gzip",
			"Accept-Language":  "zh-CN,zh;q=0.9,en;q=0.8",
			"Sec-Fetch-Dest":   "empty",
			"Sec-Fetch-Mode":   "cors",
			"Sec-Fetch-Site":   "same-origin",
			"User-Agent":       userAgent,
			"X-Requested-With": "XMLHttpRequest",
		},
		referer: referer,
		logger:  log,
	}
}

// SetHeader sets a custom header for the client
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// SetHTTPClient replaces the underlying HTTP client
func (c *Client) SetHTTPClient(httpClient *http.Client) {
	c.httpClient = httpClient
}

// FetchTrace downloads the raw JSON document of one target.
// Every failure is returned as a fetch error; the payload is not parsed here.
func (c *Client) FetchTrace(ctx context.Context, target models.FetchTarget) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.URL, nil)
	if err != nil {
		return nil, errs.NewFetchError("failed to create request", 0, err)
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}
	req.Header.Set("Referer", RefererFor(c.referer, target.Identifier))

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.DebugWithFields("Trace request failed", map[string]interface{}{
			"icao":     target.Identifier,
			"url":      target.URL,
			"error":    err.Error(),
			"duration": time.Since(start),
		})
		if isTimeout(err) {
			return nil, errs.NewFetchError("request timed out", 0, err)
		}
		return nil, errs.NewFetchError("network error", 0, err)
	}
	defer resp.Body.Close()

	logger.LogFetch(c.logger, target.Identifier, target.URL, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, errs.NewFetchError(fmt.Sprintf("unexpected status %s", resp.Status), resp.StatusCode, nil)
	}

	body, err := readBody(resp)
	if err != nil {
		if isTimeout(err) {
			return nil, errs.NewFetchError("timed out reading body", resp.StatusCode, err)
		}
		return nil, errs.NewFetchError("failed to read response body", resp.StatusCode, err)
	}

	if !gjson.ValidBytes(body) {
		preview := string(body)
		if len(preview) > 200 {
			preview = preview[:200] + "..."
		}
		c.logger.DebugWithFields("Response body is not JSON", map[string]interface{}{
			"icao":         target.Identifier,
			"url":          target.URL,
			"body_preview": preview,
		})
		return nil, errs.NewFetchError("response body is not JSON", resp.StatusCode, nil)
	}

	return body, nil
}

// readBody reads the response, decompressing it when the server honoured Accept-Encoding
func readBody(resp *http.Response) ([]byte, error) {
	var reader io.Reader = resp.Body
	if strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip") {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("invalid gzip stream: %w", err)
		}
		defer gz.Close()
		reader = gz
	}

	body, err := io.ReadAll(io.LimitReader(reader, maxPayloadSize+1))
	if err != nil {
		return nil, err
	}
	if len(body) > maxPayloadSize {
		return nil, fmt.Errorf("payload exceeds %d bytes", maxPayloadSize)
	}
	return body, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
