package ledger

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"trackcrawler/pkg/dates"
	"trackcrawler/pkg/logger"
)

func openTestLedger(t *testing.T) *Ledger {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), "ledger", "trackcrawler.db"), logger.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l
}

func testRun(failures ...Failure) Run {
	started := time.Date(2024, time.March, 12, 8, 0, 0, 0, time.UTC)
	return Run{
		ID:         NewRunID(),
		Mode:       "crawl",
		StartedAt:  started,
		FinishedAt: started.Add(2 * time.Minute),
		Checkpoint: dates.Date(2024, time.March, 12),
		Aircraft:   1,
		Targets:    3,
		Persisted:  3 - len(failures),
		Failed:     len(failures),
		Failures:   failures,
	}
}

func TestNewRunID(t *testing.T) {
	id := NewRunID()
	_, err := uuid.Parse(id)
	assert.NoError(t, err)
	assert.NotEqual(t, id, NewRunID())
}

func TestRecordRunAndUnresolved(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()

	run := testRun(
		Failure{Identifier: "B67890", Day: dates.Date(2024, time.March, 11), URL: "http://x/b", Stage: StageParse, Message: `missing field "trace"`},
		Failure{Identifier: "A12345", Day: dates.Date(2024, time.March, 12), URL: "http://x/a2", Stage: StageFetch, StatusCode: 503, Message: "unexpected status"},
		Failure{Identifier: "A12345", Day: dates.Date(2024, time.March, 10), URL: "http://x/a1", Stage: StageFetch, StatusCode: 404, Message: "unexpected status"},
	)
	require.NoError(t, l.RecordRun(ctx, run))

	failures, err := l.Unresolved(ctx)
	require.NoError(t, err)
	require.Len(t, failures, 3)

	// Ordered by aircraft then day
	assert.Equal(t, "A12345", failures[0].Identifier)
	assert.Equal(t, dates.Date(2024, time.March, 10), failures[0].Day)
	assert.Equal(t, 404, failures[0].StatusCode)
	assert.Equal(t, StageFetch, failures[0].Stage)
	assert.Equal(t, run.ID, failures[0].RunID)
	assert.Equal(t, 1, failures[0].Attempts)

	assert.Equal(t, dates.Date(2024, time.March, 12), failures[1].Day)
	assert.Equal(t, "B67890", failures[2].Identifier)
	assert.Equal(t, StageParse, failures[2].Stage)
}

func TestRecordRunRepeatedFailure(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()

	failure := Failure{Identifier: "A12345", Day: dates.Date(2024, time.March, 10), URL: "http://x/a", Stage: StageFetch, StatusCode: 503, Message: "unexpected status"}
	require.NoError(t, l.RecordRun(ctx, testRun(failure)))

	failure.Stage = StageParse
	failure.StatusCode = 0
	second := testRun(failure)
	require.NoError(t, l.RecordRun(ctx, second))

	failures, err := l.Unresolved(ctx)
	require.NoError(t, err)
	require.Len(t, failures, 1)
	assert.Equal(t, 2, failures[0].Attempts)
	assert.Equal(t, StageParse, failures[0].Stage)
	assert.Equal(t, second.ID, failures[0].RunID)
}

func TestResolve(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()

	day := dates.Date(2024, time.March, 10)
	require.NoError(t, l.RecordRun(ctx, testRun(
		Failure{Identifier: "A12345", Day: day, Stage: StageFetch, StatusCode: 500},
		Failure{Identifier: "A12345", Day: day.AddDate(0, 0, 1), Stage: StageFetch, StatusCode: 500},
	)))

	require.NoError(t, l.Resolve(ctx, "A12345", day))
	// Unknown days are ignored
	require.NoError(t, l.Resolve(ctx, "ZZZZZZ", day))

	failures, err := l.Unresolved(ctx)
	require.NoError(t, err)
	require.Len(t, failures, 1)
	assert.Equal(t, day.AddDate(0, 0, 1), failures[0].Day)

	// A resolved day that fails again is reopened
	require.NoError(t, l.RecordRun(ctx, testRun(Failure{Identifier: "A12345", Day: day, Stage: StageFetch, StatusCode: 500})))
	failures, err = l.Unresolved(ctx)
	require.NoError(t, err)
	assert.Len(t, failures, 2)
}

func TestRecordRunResolvesSucceededDays(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()

	day := dates.Date(2024, time.March, 10)
	require.NoError(t, l.RecordRun(ctx, testRun(
		Failure{Identifier: "A12345", Day: day, Stage: StageFetch, StatusCode: 502},
		Failure{Identifier: "B67890", Day: day, Stage: StageParse},
	)))

	next := testRun()
	next.Resolved = []Key{{Identifier: "A12345", Day: day}, {Identifier: "C00000", Day: day}}
	require.NoError(t, l.RecordRun(ctx, next))

	failures, err := l.Unresolved(ctx)
	require.NoError(t, err)
	require.Len(t, failures, 1)
	assert.Equal(t, "B67890", failures[0].Identifier)
}

func TestLastRun(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()

	last, err := l.LastRun(ctx)
	require.NoError(t, err)
	assert.Nil(t, last)

	first := testRun()
	require.NoError(t, l.RecordRun(ctx, first))

	second := testRun()
	second.Mode = "retry"
	second.FinishedAt = first.FinishedAt.Add(time.Hour)
	require.NoError(t, l.RecordRun(ctx, second))

	last, err = l.LastRun(ctx)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, second.ID, last.ID)
	assert.Equal(t, "retry", last.Mode)
	assert.Equal(t, second.Checkpoint, last.Checkpoint)
	assert.Equal(t, 3, last.Persisted)
	assert.True(t, second.FinishedAt.Equal(last.FinishedAt))
}

func TestLedgerPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trackcrawler.db")
	ctx := context.Background()

	l, err := Open(path, logger.NewNopLogger())
	require.NoError(t, err)
	require.NoError(t, l.RecordRun(ctx, testRun(Failure{Identifier: "A12345", Day: dates.Epoch, Stage: StageFetch})))
	require.NoError(t, l.Close())

	reopened, err := Open(path, logger.NewNopLogger())
	require.NoError(t, err)
	defer reopened.Close()

	failures, err := reopened.Unresolved(ctx)
	require.NoError(t, err)
	require.Len(t, failures, 1)
	assert.Equal(t, path, reopened.Path())
}
