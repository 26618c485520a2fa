package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/grantsync/internal/core/domain"
)

func TestHistoryCmd(t *testing.T) {
	published := testRun(domain.DecisionStale)
	published.PublishedSnapshot = "Grants_2024-03-05.csv"
	failed := testRun(domain.DecisionFailed)
	failed.SourceSnapshot = ""
	failed.Error = "fetch metadata: rate limited"

	sync := &mockSyncService{runs: []domain.SyncRun{published, failed}}
	buf, _ := setupCLITest(t, sync)

	err := execute("history", "-n", "5")

	require.NoError(t, err)
	assert.Equal(t, "abcd-1234", sync.historyFor)
	assert.Equal(t, 5, sync.lastLimit)
	assert.Contains(t, buf.String(), "2024-03-05 08:00:00  stale        -> Grants_2024-03-05.csv")
	assert.Contains(t, buf.String(), "failed       -")
	assert.Contains(t, buf.String(), "error: fetch metadata: rate limited")
}

func TestHistoryCmd_Empty(t *testing.T) {
	buf, _ := setupCLITest(t, &mockSyncService{})

	err := execute("history")

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "No runs recorded.")
}

func TestRunSummary(t *testing.T) {
	assert.Equal(t, "-> b.csv", runSummary("b.csv", "a.csv"))
	assert.Equal(t, "a.csv", runSummary("", "a.csv"))
	assert.Equal(t, "-", runSummary("", ""))
}

func TestHistoryCmd_RunDetail(t *testing.T) {
	run := testRun(domain.DecisionStale)
	run.PublishedSnapshot = "Grants_2024-03-05.csv"
	run.DeltaRows = 4
	run.MergedRows = 12
	run.FinishedAt = run.StartedAt.Add(3 * time.Second)
	sync := &mockSyncService{lastRun: &run}
	buf, _ := setupCLITest(t, sync)

	err := execute("history", "run-1")

	require.NoError(t, err)
	assert.Equal(t, "run-1", sync.runID)
	out := buf.String()
	assert.Contains(t, out, "Run run-1")
	assert.Contains(t, out, "Decision: stale")
	assert.Contains(t, out, "Finished: 2024-03-05T08:00:03Z")
	assert.Contains(t, out, "Published: Grants_2024-03-05.csv")
	assert.Contains(t, out, "Rows: 10 cached, 4 delta, 12 merged")
	assert.NotContains(t, out, "Error:")
}

func TestHistoryCmd_RunNotFound(t *testing.T) {
	setupCLITest(t, &mockSyncService{})

	err := execute("history", "missing")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestHistoryCmd_TooManyArgs(t *testing.T) {
	setupCLITest(t, &mockSyncService{})

	err := execute("history", "a", "b")

	assert.Error(t, err)
}
