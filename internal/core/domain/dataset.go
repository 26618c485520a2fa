package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// SubmissionDateColumn is the column grant records are ordered and partitioned by.
const SubmissionDateColumn = "application_submission_date"

// Record is a single row keyed by column name.
// A column absent from the map reads as an empty value.
type Record map[string]string

// Dataset is an ordered collection of records sharing a column layout.
type Dataset struct {
	// Columns lists column names in output order.
	Columns []string

	// Records holds the rows in dataset order.
	Records []Record
}

// NewDataset creates a dataset with the given columns and records.
func NewDataset(columns []string, records ...Record) *Dataset {
	return &Dataset{
		Columns: columns,
		Records: records,
	}
}

// Len returns the number of records. A nil dataset is empty.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Records)
}

// HasColumn reports whether the dataset declares the named column.
func (d *Dataset) HasColumn(name string) bool {
	if d == nil {
		return false
	}
	return slices.Contains(d.Columns, name)
}

// dateLayouts are tried in order when parsing submission dates.
// They cover the CSV snapshot format and the SODA floating timestamp.
var dateLayouts = []string{
	time.DateOnly,
	time.DateTime,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.000",
	time.RFC3339Nano,
	"01/02/2006",
	"01/02/2006 15:04:05",
	"1/2/2006",
}

// ParseSubmissionDate parses a submission date in any supported layout.
// The result is in UTC; timezone-less values are taken as UTC.
func ParseSubmissionDate(value string) (time.Time, error) {
	t, _, err := parseDate(value)
	return t, err
}

// parseDate also reports whether the value carried a non-UTC offset.
func parseDate(value string) (time.Time, bool, error) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			_, offset := t.Zone()
			return t.UTC(), offset != 0, nil
		}
	}
	return time.Time{}, false, fmt.Errorf("%w: %q", ErrInvalidDate, value)
}

// FormatSubmissionDate renders a date the way snapshots store it.
// Date-only output is used when dateOnly is set.
func FormatSubmissionDate(t time.Time, dateOnly bool) string {
	if dateOnly {
		return t.Format(time.DateOnly)
	}
	return t.Format(time.DateTime)
}

// datedRecord pairs a record with its parsed submission date.
// missing marks a blank date; zoned marks a value written with an offset.
type datedRecord struct {
	record  Record
	date    time.Time
	missing bool
	zoned   bool
}

func parseDated(ds *Dataset, column string) ([]datedRecord, error) {
	if ds.Len() == 0 {
		return nil, nil
	}
	if !ds.HasColumn(column) {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, column)
	}

	out := make([]datedRecord, len(ds.Records))
	for i, r := range ds.Records {
		if strings.TrimSpace(r[column]) == "" {
			out[i] = datedRecord{record: r, missing: true}
			continue
		}
		date, zoned, err := parseDate(r[column])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = datedRecord{record: r, date: date, zoned: zoned}
	}
	return out, nil
}

// sortDated orders records by date, stable, with missing dates last.
func sortDated(recs []datedRecord) {
	slices.SortStableFunc(recs, func(a, b datedRecord) int {
		switch {
		case a.missing && b.missing:
			return 0
		case a.missing:
			return 1
		case b.missing:
			return -1
		}
		return a.date.Compare(b.date)
	})
}

func earliestOf(recs []datedRecord) (time.Time, bool) {
	var earliest time.Time
	found := false
	for _, r := range recs {
		if r.missing {
			continue
		}
		if !found || r.date.Before(earliest) {
			earliest = r.date
			found = true
		}
	}
	return earliest, found
}

// EarliestDate returns the minimum submission date in the dataset.
// Blank dates are ignored. The boolean is false when no record is dated.
func EarliestDate(ds *Dataset, column string) (time.Time, bool, error) {
	recs, err := parseDated(ds, column)
	if err != nil {
		return time.Time{}, false, err
	}
	earliest, ok := earliestOf(recs)
	return earliest, ok, nil
}

// SortByDate returns a copy of the dataset sorted ascending by column.
// Records with equal dates keep their relative order; blank dates sort last.
func SortByDate(ds *Dataset, column string) (*Dataset, error) {
	recs, err := parseDated(ds, column)
	if err != nil {
		return nil, err
	}
	sortDated(recs)

	var columns []string
	if ds != nil {
		columns = ds.Columns
	}
	return buildDataset(columns, column, recs), nil
}

// Merge combines a cached dataset with a freshly fetched delta on the
// submission date column. See MergeOn.
func Merge(cached, delta *Dataset) (*Dataset, error) {
	return MergeOn(SubmissionDateColumn, cached, delta)
}

// MergeOn combines cached and delta records partitioned on column.
//
// Cached records dated on or after the delta's earliest date are dropped;
// the delta is authoritative for every date it covers. Cached records with
// a blank date are dropped too, while delta records with a blank date are
// kept after all dated records. When the delta has no dated record the
// cached records are kept as they are. The result is sorted ascending.
func MergeOn(column string, cached, delta *Dataset) (*Dataset, error) {
	old, err := parseDated(cached, column)
	if err != nil {
		return nil, fmt.Errorf("cached dataset: %w", err)
	}
	fresh, err := parseDated(delta, column)
	if err != nil {
		return nil, fmt.Errorf("delta dataset: %w", err)
	}
	earliest, ok, err := EarliestDate(delta, column)
	if err != nil {
		return nil, fmt.Errorf("delta dataset: %w", err)
	}

	sortDated(old)
	sortDated(fresh)
	columns := unionColumns(cached, delta)

	if !ok {
		merged := append(slices.Clone(old), fresh...)
		sortDated(merged)
		return buildDataset(columns, column, merged), nil
	}

	merged := make([]datedRecord, 0, len(old)+len(fresh))
	for _, r := range old {
		if r.missing || !r.date.Before(earliest) {
			break
		}
		merged = append(merged, r)
	}
	// Every kept cached record precedes earliest, so the result stays sorted.
	merged = append(merged, fresh...)

	return buildDataset(columns, column, merged), nil
}

// unionColumns returns the columns of each dataset in order of first appearance.
func unionColumns(sets ...*Dataset) []string {
	seen := make(map[string]bool)
	var columns []string
	for _, ds := range sets {
		if ds == nil {
			continue
		}
		for _, c := range ds.Columns {
			if !seen[c] {
				seen[c] = true
				columns = append(columns, c)
			}
		}
	}
	return columns
}

// buildDataset copies records into a new dataset with the date column
// rewritten in a single normalised layout. Blank dates stay blank and
// values written with an offset keep their original text.
func buildDataset(columns []string, column string, recs []datedRecord) *Dataset {
	dateOnly := true
	for _, r := range recs {
		if !r.missing && !r.zoned && !r.date.Equal(Day(r.date)) {
			dateOnly = false
			break
		}
	}

	out := &Dataset{
		Columns: slices.Clone(columns),
		Records: make([]Record, len(recs)),
	}
	for i, r := range recs {
		rec := make(Record, len(r.record))
		for k, v := range r.record {
			rec[k] = v
		}
		switch {
		case r.missing:
			rec[column] = ""
		case r.zoned:
			rec[column] = strings.TrimSpace(r.record[column])
		default:
			rec[column] = FormatSubmissionDate(r.date, dateOnly)
		}
		out.Records[i] = rec
	}
	return out
}
