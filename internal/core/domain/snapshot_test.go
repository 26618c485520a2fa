package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMostRecentFile(t *testing.T) {
	names := []string{"X_2023-01-01.csv", "X_2023-06-15.csv", "X_2022-12-31.csv"}

	snap, err := MostRecentFile(names)
	require.NoError(t, err)

	assert.Equal(t, "X_2023-06-15.csv", snap.Name)
	assert.True(t, snap.Date.Equal(time.Date(2023, 6, 15, 0, 0, 0, 0, time.UTC)))
	assert.True(t, snap.LastModified.IsZero())
}

func TestMostRecentFile_FirstWinsOnTie(t *testing.T) {
	names := []string{"dir/X_2023-01-01.csv", "X_2023-01-01.csv"}

	snap, err := MostRecentFile(names)
	require.NoError(t, err)
	assert.Equal(t, "dir/X_2023-01-01.csv", snap.Name)
}

func TestMostRecentFile_MalformedNameFails(t *testing.T) {
	tests := []struct {
		name  string
		names []string
	}{
		{"no date suffix", []string{"X_2023-01-01.csv", "X_latest.csv"}},
		{"no underscore", []string{"X2023-01-01.csv"}},
		{"wrong extension", []string{"X_2023-01-01.parquet"}},
		{"bad date", []string{"X_2023-02-30.csv"}},
		{"unpadded date", []string{"X_2023-1-5.csv"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap, err := MostRecentFile(tt.names)
			assert.ErrorIs(t, err, ErrMalformedSnapshotName)
			assert.Nil(t, snap)
		})
	}
}

func TestMostRecentFile_Empty(t *testing.T) {
	_, err := MostRecentFile(nil)
	assert.ErrorIs(t, err, ErrNoSnapshot)
}

func TestSnapshotCandidates(t *testing.T) {
	names := []string{
		"Green_Energy_Program_Grants_2023-01-01.csv",
		"Green_Energy_Program_Grants_backup.csv",
		"other_2023-01-01.csv",
		"archive/Green_Energy_Program_Grants_2024-02-02.csv",
	}

	got := SnapshotCandidates(names, DefaultSnapshotPrefix)

	assert.Equal(t, []string{
		"Green_Energy_Program_Grants_2023-01-01.csv",
		"archive/Green_Energy_Program_Grants_2024-02-02.csv",
	}, got)
}

func TestSnapshotName(t *testing.T) {
	day := time.Date(2024, 3, 9, 17, 45, 0, 0, time.UTC)
	assert.Equal(t, "Green_Energy_Program_Grants_2024-03-09.csv", SnapshotName(DefaultSnapshotPrefix, day))
}

func TestParseSnapshotDate_RoundTrip(t *testing.T) {
	day := time.Date(2021, 11, 30, 0, 0, 0, 0, time.UTC)

	got, err := ParseSnapshotDate(SnapshotName(DefaultSnapshotPrefix, day))
	require.NoError(t, err)
	assert.True(t, day.Equal(got))
}

func TestParseSnapshotDate_RequiresZeroPadding(t *testing.T) {
	_, err := ParseSnapshotDate("X_2023-1-5.csv")
	assert.ErrorIs(t, err, ErrMalformedSnapshotName)

	got, err := ParseSnapshotDate("X_2023-01-05.csv")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2023, 1, 5, 0, 0, 0, 0, time.UTC), got)
}
