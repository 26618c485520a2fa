package cli

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/grantsync/internal/core/domain"
)

func TestLatestCmd(t *testing.T) {
	sync := &mockSyncService{snapshot: &domain.Snapshot{
		Name:         "Grants_2023-06-15.csv",
		Date:         time.Date(2023, 6, 15, 0, 0, 0, 0, time.UTC),
		LastModified: time.Date(2023, 6, 16, 4, 5, 6, 0, time.UTC),
	}}
	buf, _ := setupCLITest(t, sync)

	err := execute("latest")

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Grants_2023-06-15.csv\n")
	assert.Contains(t, buf.String(), "Date: 2023-06-15")
	assert.Contains(t, buf.String(), "Last modified: 2023-06-16T04:05:06Z")
	assert.NotContains(t, buf.String(), "Last refresh")
}

func TestLatestCmd_ShowsLastRefresh(t *testing.T) {
	run := testRun(domain.DecisionEmptyDelta)
	sync := &mockSyncService{
		snapshot: &domain.Snapshot{Name: "Grants_2024-03-01.csv", Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		lastRun:  &run,
	}
	buf, _ := setupCLITest(t, sync)

	err := execute("latest")

	require.NoError(t, err)
	assert.Equal(t, "abcd-1234", sync.historyFor)
	assert.Contains(t, buf.String(), "Last refresh: 2024-03-05T08:00:00Z (empty_delta)")
}

func TestLatestCmd_HistoryError(t *testing.T) {
	sync := &mockSyncService{
		snapshot: &domain.Snapshot{Name: "Grants_2024-03-01.csv"},
		runErr:   errors.New("database is locked"),
	}
	setupCLITest(t, sync)

	err := execute("latest")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "database is locked")
}

func TestLatestCmd_NoSnapshot(t *testing.T) {
	setupCLITest(t, &mockSyncService{err: domain.ErrNoSnapshot})

	err := execute("latest")

	assert.ErrorIs(t, err, domain.ErrNoSnapshot)
}
