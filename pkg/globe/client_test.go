package globe

import (
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"trackcrawler/pkg/dates"
	errs "trackcrawler/pkg/errors"
	"trackcrawler/pkg/logger"
	"trackcrawler/pkg/models"
)

const samplePayload = `{"icao":"a3520e","r":"N313AZ","t":"B763","timestamp":1732342123.994,"trace":[[0,40.1,-75.2,"ground",0,90,0,null]]}`

// mockRoundTripper allows us to intercept HTTP requests
type mockRoundTripper struct {
	handler func(req *http.Request) (*http.Response, error)
}

func (m *mockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	return m.handler(req)
}

func newResponse(statusCode int, body string) *http.Response {
	return &http.Response{
		StatusCode: statusCode,
		Status:     http.StatusText(statusCode),
		Body:       io.NopCloser(bytes.NewBufferString(body)),
		Header:     make(http.Header),
	}
}

func testTarget(url string) models.FetchTarget {
	return models.FetchTarget{Identifier: "a3520e", Day: dates.Epoch, URL: url}
}

func TestFetchTraceSendsHeaders(t *testing.T) {
	var captured http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = r.Header.Clone()
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, samplePayload)
	}))
	defer server.Close()

	client := NewClient(5*time.Second, "test-agent/1.0", "https://globe.example/", logger.NewNopLogger())
	body, err := client.FetchTrace(context.Background(), testTarget(server.URL+"/trace.json"))
	require.NoError(t, err)
	assert.JSONEq(t, samplePayload, string(body))

	assert.Equal(t, "test-agent/1.0", captured.Get("User-Agent"))
	assert.Equal(t, "https://globe.example/?icao=a3520e", captured.Get("Referer"))
	assert.Contains(t, captured.Get("Accept"), "application/json")
	assert.Equal(t, "gzip", captured.Get("Accept-Encoding"))
	assert.Equal(t, "XMLHttpRequest", captured.Get("X-Requested-With"))
}

func TestFetchTraceDecodesGzip(t *testing.T) {
	var compressed bytes.Buffer
	gz := gzip.NewWriter(&compressed)
	_, err := gz.Write([]byte(samplePayload))
	require.NoError(t, err)
	require.NoError(t, gz.Close())

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "gzip")
		w.Write(compressed.Bytes())
	}))
	defer server.Close()

	client := NewClient(5*time.Second, "ua", "https://globe.example/", logger.NewNopLogger())
	body, err := client.FetchTrace(context.Background(), testTarget(server.URL))
	require.NoError(t, err)
	assert.JSONEq(t, samplePayload, string(body))
}

func TestFetchTraceFailures(t *testing.T) {
	tests := []struct {
		name     string
		response func(req *http.Request) (*http.Response, error)
		wantCode int
	}{
		{
			name:     "not found",
			response: func(req *http.Request) (*http.Response, error) { return newResponse(http.StatusNotFound, ""), nil },
			wantCode: http.StatusNotFound,
		},
		{
			name:     "server error",
			response: func(req *http.Request) (*http.Response, error) { return newResponse(http.StatusBadGateway, "oops"), nil },
			wantCode: http.StatusBadGateway,
		},
		{
			name:     "html body",
			response: func(req *http.Request) (*http.Response, error) { return newResponse(http.StatusOK, "<html>blocked</html>"), nil },
			wantCode: http.StatusOK,
		},
		{
			name:     "connection refused",
			response: func(req *http.Request) (*http.Response, error) { return nil, io.ErrUnexpectedEOF },
			wantCode: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewClient(5*time.Second, "ua", "r", logger.NewNopLogger())
			client.SetHTTPClient(&http.Client{Transport: &mockRoundTripper{handler: tt.response}})

			body, err := client.FetchTrace(context.Background(), testTarget("http://archive.test/trace.json"))
			require.Error(t, err)
			assert.Nil(t, body)
			assert.True(t, errs.Is(err, errs.ErrorTypeFetch), "expected fetch error, got %v", err)
			assert.Equal(t, tt.wantCode, errs.StatusCode(err))
		})
	}
}

func TestFetchTraceTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client := NewClient(50*time.Millisecond, "ua", "r", logger.NewNopLogger())
	_, err := client.FetchTrace(context.Background(), testTarget(server.URL))
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.ErrorTypeFetch))
	assert.Contains(t, err.Error(), "timed out")
}

func TestFetchTraceCancelledContext(t *testing.T) {
	client := NewClient(5*time.Second, "ua", "r", logger.NewNopLogger())
	client.SetHTTPClient(&http.Client{Transport: &mockRoundTripper{handler: func(req *http.Request) (*http.Response, error) {
		return nil, req.Context().Err()
	}}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.FetchTrace(ctx, testTarget("http://archive.test/trace.json"))
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.ErrorTypeFetch))
}
