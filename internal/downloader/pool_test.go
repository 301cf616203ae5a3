package downloader

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"trackcrawler/pkg/dates"
	errs "trackcrawler/pkg/errors"
	"trackcrawler/pkg/logger"
	"trackcrawler/pkg/models"
)

// MockFetcher is a mock implementation of the archive client
type MockFetcher struct {
	delay    time.Duration
	failURLs map[string]int

	calls   int32
	active  int32
	maxSeen int32
	mu      sync.Mutex
	seen    []string
}

func (m *MockFetcher) FetchTrace(ctx context.Context, target models.FetchTarget) ([]byte, error) {
	atomic.AddInt32(&m.calls, 1)
	current := atomic.AddInt32(&m.active, 1)
	defer atomic.AddInt32(&m.active, -1)

	for {
		peak := atomic.LoadInt32(&m.maxSeen)
		if current <= peak || atomic.CompareAndSwapInt32(&m.maxSeen, peak, current) {
			break
		}
	}

	m.mu.Lock()
	m.seen = append(m.seen, target.URL)
	m.mu.Unlock()

	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	if code, ok := m.failURLs[target.URL]; ok {
		return nil, errs.NewFetchError("unexpected status", code, nil)
	}
	return []byte(fmt.Sprintf(`{"url":%q}`, target.URL)), nil
}

func makeTargets(n int) []models.FetchTarget {
	days := dates.Range(dates.Epoch, dates.Epoch.AddDate(0, 0, n-1))
	targets := make([]models.FetchTarget, len(days))
	for i, day := range days {
		targets[i] = models.FetchTarget{
			Identifier: "A12345",
			Day:        day,
			URL:        "http://archive.test/" + dates.Format(day),
		}
	}
	return targets
}

func TestFetchAllPreservesOrder(t *testing.T) {
	fetcher := &MockFetcher{delay: 5 * time.Millisecond}
	pool := NewPool(4, fetcher, logger.NewNopLogger())

	targets := makeTargets(10)
	results := pool.FetchAll(context.Background(), targets)

	require.Len(t, results, len(targets))
	for i, result := range results {
		assert.Equal(t, targets[i], result.Target)
		require.NoError(t, result.Err)
		assert.Contains(t, string(result.Payload), targets[i].URL)
	}
	assert.Equal(t, int32(10), atomic.LoadInt32(&fetcher.calls))
}

func TestFetchAllIsolatesFailures(t *testing.T) {
	targets := makeTargets(3)
	fetcher := &MockFetcher{failURLs: map[string]int{targets[1].URL: 404}}
	pool := NewPool(0, fetcher, logger.NewNopLogger())

	results := pool.FetchAll(context.Background(), targets)

	require.Len(t, results, 3)
	assert.NoError(t, results[0].Err)
	assert.NoError(t, results[2].Err)
	require.Error(t, results[1].Err)
	assert.Nil(t, results[1].Payload)
	assert.Equal(t, 404, errs.StatusCode(results[1].Err))
}

func TestFetchAllRespectsWidth(t *testing.T) {
	fetcher := &MockFetcher{delay: 20 * time.Millisecond}
	pool := NewPool(2, fetcher, logger.NewNopLogger())

	pool.FetchAll(context.Background(), makeTargets(8))

	assert.LessOrEqual(t, atomic.LoadInt32(&fetcher.maxSeen), int32(2))
	assert.Equal(t, int32(8), atomic.LoadInt32(&fetcher.calls))
}

func TestFetchAllUnboundedIssuesConcurrently(t *testing.T) {
	fetcher := &MockFetcher{delay: 50 * time.Millisecond}
	pool := NewPool(0, fetcher, logger.NewNopLogger())
	assert.Equal(t, 0, pool.Width())

	start := time.Now()
	results := pool.FetchAll(context.Background(), makeTargets(10))
	elapsed := time.Since(start)

	require.Len(t, results, 10)
	// Sequential fetching would take at least 500ms
	assert.Less(t, elapsed, 400*time.Millisecond)
}

func TestFetchAllEmptyBatch(t *testing.T) {
	fetcher := &MockFetcher{}
	pool := NewPool(3, fetcher, logger.NewNopLogger())

	results := pool.FetchAll(context.Background(), nil)
	assert.Empty(t, results)
	assert.Equal(t, int32(0), atomic.LoadInt32(&fetcher.calls))
}

func TestFetchAllCancelledContext(t *testing.T) {
	fetcher := &MockFetcher{}
	pool := NewPool(2, fetcher, logger.NewNopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := pool.FetchAll(ctx, makeTargets(4))
	require.Len(t, results, 4)
	for _, result := range results {
		assert.ErrorIs(t, result.Err, context.Canceled)
	}
	assert.Equal(t, int32(0), atomic.LoadInt32(&fetcher.calls))
}

func TestFetchAllLogsFailures(t *testing.T) {
	targets := makeTargets(2)
	fetcher := &MockFetcher{failURLs: map[string]int{targets[0].URL: 500}}
	testLog := logger.NewTestLogger()
	pool := NewPool(1, fetcher, testLog)

	pool.FetchAll(context.Background(), targets)

	found := false
	for _, msg := range testLog.GetMessagesByLevel("DEBUG") {
		if strings.Contains(msg.Message, "Fetch failed") {
			found = true
			assert.Equal(t, "A12345", msg.Fields["icao"])
		}
	}
	assert.True(t, found, "expected a debug entry for the failed fetch")
}
