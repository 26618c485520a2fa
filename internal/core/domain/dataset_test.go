package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func grants(dates ...string) *Dataset {
	ds := NewDataset([]string{"applicant", SubmissionDateColumn})
	for i, d := range dates {
		ds.Records = append(ds.Records, Record{
			"applicant":          string(rune('a' + i)),
			SubmissionDateColumn: d,
		})
	}
	return ds
}

func values(ds *Dataset, column string) []string {
	out := make([]string, 0, ds.Len())
	for _, r := range ds.Records {
		out = append(out, r[column])
	}
	return out
}

func TestParseSubmissionDate(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  time.Time
	}{
		{"date only", "2023-04-05", time.Date(2023, 4, 5, 0, 0, 0, 0, time.UTC)},
		{"date time", "2023-04-05 10:30:00", time.Date(2023, 4, 5, 10, 30, 0, 0, time.UTC)},
		{"floating timestamp", "2023-04-05T00:00:00.000", time.Date(2023, 4, 5, 0, 0, 0, 0, time.UTC)},
		{"rfc3339", "2023-04-05T12:00:00Z", time.Date(2023, 4, 5, 12, 0, 0, 0, time.UTC)},
		{"us format", "04/05/2023", time.Date(2023, 4, 5, 0, 0, 0, 0, time.UTC)},
		{"surrounding space", " 2023-04-05 ", time.Date(2023, 4, 5, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSubmissionDate(tt.value)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %v", got)
		})
	}
}

func TestParseSubmissionDate_Invalid(t *testing.T) {
	for _, v := range []string{"", "yesterday", "2023-13-01"} {
		_, err := ParseSubmissionDate(v)
		assert.ErrorIs(t, err, ErrInvalidDate, "value %q", v)
	}
}

func TestMerge_DropsCachedOnOrAfterEarliestDelta(t *testing.T) {
	cached := grants("2023-01-10", "2023-01-01", "2023-02-01", "2023-01-20")
	delta := grants("2023-02-15", "2023-01-20", "2023-03-01")

	merged, err := Merge(cached, delta)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"2023-01-01",
		"2023-01-10",
		"2023-01-20",
		"2023-02-15",
		"2023-03-01",
	}, values(merged, SubmissionDateColumn))

	// The 2023-01-20 record must be the delta's, not the cached one.
	assert.Equal(t, "b", merged.Records[2]["applicant"])
}

func TestMerge_ContainsAllDeltaRecords(t *testing.T) {
	cached := NewDataset([]string{"origin", SubmissionDateColumn},
		Record{"origin": "cached", SubmissionDateColumn: "2022-06-01"},
		Record{"origin": "cached", SubmissionDateColumn: "2022-07-01"},
		Record{"origin": "cached", SubmissionDateColumn: "2022-09-01"},
	)
	delta := NewDataset([]string{"origin", SubmissionDateColumn},
		Record{"origin": "delta", SubmissionDateColumn: "2022-08-01"},
		Record{"origin": "delta", SubmissionDateColumn: "2022-07-01"},
		Record{"origin": "delta", SubmissionDateColumn: "2022-07-01"},
	)

	merged, err := Merge(cached, delta)
	require.NoError(t, err)

	earliest, ok, err := EarliestDate(delta, SubmissionDateColumn)
	require.NoError(t, err)
	require.True(t, ok)

	deltaSeen := 0
	for _, r := range merged.Records {
		d, err := ParseSubmissionDate(r[SubmissionDateColumn])
		require.NoError(t, err)
		if r["origin"] == "delta" {
			deltaSeen++
			continue
		}
		assert.True(t, d.Before(earliest), "cached record %v survived the cutoff", r)
	}
	assert.Equal(t, delta.Len(), deltaSeen)
	assert.Equal(t, []string{"2022-06-01", "2022-07-01", "2022-07-01", "2022-08-01"},
		values(merged, SubmissionDateColumn))
}

func TestMerge_DeltaStartsBeforeCached(t *testing.T) {
	cached := grants("2023-05-01", "2023-06-01")
	delta := grants("2023-07-01", "2023-01-01")

	merged, err := Merge(cached, delta)
	require.NoError(t, err)

	assert.Equal(t, []string{"2023-01-01", "2023-07-01"}, values(merged, SubmissionDateColumn))
	assert.Equal(t, "b", merged.Records[0]["applicant"])
}

func TestMerge_EmptyDeltaReturnsCachedSorted(t *testing.T) {
	cached := grants("2023-02-01", "2023-01-01")

	merged, err := Merge(cached, NewDataset([]string{SubmissionDateColumn}))
	require.NoError(t, err)

	assert.Equal(t, []string{"2023-01-01", "2023-02-01"}, values(merged, SubmissionDateColumn))
}

func TestMerge_EmptyCached(t *testing.T) {
	merged, err := Merge(nil, grants("2023-02-01", "2023-01-01"))
	require.NoError(t, err)

	assert.Equal(t, []string{"2023-01-01", "2023-02-01"}, values(merged, SubmissionDateColumn))
}

func TestMerge_IsRepeatable(t *testing.T) {
	cached := grants("2023-01-01", "2023-02-01")
	delta := grants("2023-02-01", "2023-03-01")

	first, err := Merge(cached, delta)
	require.NoError(t, err)
	second, err := Merge(first, delta)
	require.NoError(t, err)

	assert.Equal(t, values(first, SubmissionDateColumn), values(second, SubmissionDateColumn))
	assert.Equal(t, values(first, "applicant"), values(second, "applicant"))
}

func TestMerge_UnionsColumns(t *testing.T) {
	cached := NewDataset([]string{"id", SubmissionDateColumn},
		Record{"id": "1", SubmissionDateColumn: "2023-01-01"})
	delta := NewDataset([]string{SubmissionDateColumn, "id", "county"},
		Record{"id": "2", SubmissionDateColumn: "2023-02-01", "county": "Kent"})

	merged, err := Merge(cached, delta)
	require.NoError(t, err)

	assert.Equal(t, []string{"id", SubmissionDateColumn, "county"}, merged.Columns)
	assert.Equal(t, "", merged.Records[0]["county"])
	assert.Equal(t, "Kent", merged.Records[1]["county"])
}

func TestMerge_NormalisesDateLayout(t *testing.T) {
	cached := grants("2023-01-01")
	delta := grants("2023-02-01T00:00:00.000")

	merged, err := Merge(cached, delta)
	require.NoError(t, err)
	assert.Equal(t, []string{"2023-01-01", "2023-02-01"}, values(merged, SubmissionDateColumn))

	delta = grants("2023-02-01T09:15:00.000")
	merged, err = Merge(cached, delta)
	require.NoError(t, err)
	assert.Equal(t, []string{"2023-01-01 00:00:00", "2023-02-01 09:15:00"}, values(merged, SubmissionDateColumn))
}

func TestMerge_DoesNotMutateInputs(t *testing.T) {
	cached := grants("2023-02-01", "2023-01-01")
	delta := grants("2023-03-01T00:00:00.000")

	_, err := Merge(cached, delta)
	require.NoError(t, err)

	assert.Equal(t, []string{"2023-02-01", "2023-01-01"}, values(cached, SubmissionDateColumn))
	assert.Equal(t, []string{"2023-03-01T00:00:00.000"}, values(delta, SubmissionDateColumn))
}

func TestMerge_InvalidDate(t *testing.T) {
	_, err := Merge(grants("2023-01-01"), grants("not-a-date"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidDate))
	assert.Contains(t, err.Error(), "delta dataset")

	_, err = Merge(grants("??"), grants("2023-01-01"))
	assert.ErrorIs(t, err, ErrInvalidDate)
	assert.Contains(t, err.Error(), "cached dataset")
}

func TestMerge_MissingColumn(t *testing.T) {
	cached := NewDataset([]string{"id"}, Record{"id": "1"})

	_, err := Merge(cached, grants("2023-01-01"))
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestSortByDate_Stable(t *testing.T) {
	ds := grants("2023-01-02", "2023-01-01", "2023-01-02", "2023-01-01")

	sorted, err := SortByDate(ds, SubmissionDateColumn)
	require.NoError(t, err)

	assert.Equal(t, []string{"b", "d", "a", "c"}, values(sorted, "applicant"))
}

func TestEarliestDate(t *testing.T) {
	earliest, ok, err := EarliestDate(grants("2023-03-01", "2022-12-31", "2023-01-01"), SubmissionDateColumn)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, earliest.Equal(time.Date(2022, 12, 31, 0, 0, 0, 0, time.UTC)))

	_, ok, err = EarliestDate(nil, SubmissionDateColumn)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDataset_NilSafe(t *testing.T) {
	var ds *Dataset
	assert.Equal(t, 0, ds.Len())
	assert.False(t, ds.HasColumn("x"))
}

func TestMerge_BlankDates(t *testing.T) {
	cached := grants("2023-01-01", "", "2023-03-01")
	delta := grants("", "2023-02-01")

	merged, err := Merge(cached, delta)
	require.NoError(t, err)

	// The blank cached record is dropped, the blank delta record sorts last.
	assert.Equal(t, []string{"2023-01-01", "2023-02-01", ""}, values(merged, SubmissionDateColumn))
	assert.Equal(t, []string{"a", "b", "a"}, values(merged, "applicant"))
}

func TestMerge_DeltaWithOnlyBlankDates(t *testing.T) {
	cached := grants("2023-02-01", "2023-01-01")

	merged, err := Merge(cached, grants(""))
	require.NoError(t, err)

	assert.Equal(t, []string{"2023-01-01", "2023-02-01", ""}, values(merged, SubmissionDateColumn))
}

func TestMerge_BlankIsNotInvalid(t *testing.T) {
	_, err := Merge(grants("2023-01-01", "   "), grants("2023-02-01", "soon"))
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestMerge_KeepsZonedText(t *testing.T) {
	cached := grants("2023-01-01")
	delta := grants("2023-02-01T09:00:00-05:00", "2023-02-02T00:00:00Z")

	merged, err := Merge(cached, delta)
	require.NoError(t, err)

	assert.Equal(t, []string{"2023-01-01", "2023-02-01T09:00:00-05:00", "2023-02-02"},
		values(merged, SubmissionDateColumn))
}

func TestSortByDate_BlankLast(t *testing.T) {
	sorted, err := SortByDate(grants("", "2023-01-02", "2023-01-01"), SubmissionDateColumn)
	require.NoError(t, err)

	assert.Equal(t, []string{"c", "b", "a"}, values(sorted, "applicant"))
}

func TestEarliestDate_IgnoresBlank(t *testing.T) {
	earliest, ok, err := EarliestDate(grants("", "2023-03-01"), SubmissionDateColumn)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, earliest.Equal(time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC)))

	_, ok, err = EarliestDate(grants(""), SubmissionDateColumn)
	require.NoError(t, err)
	assert.False(t, ok)
}
