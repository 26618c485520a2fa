package domain

import (
	"fmt"
	"path"
	"strings"
	"time"
)

// DefaultSnapshotPrefix is the name prefix of published grant snapshots.
const DefaultSnapshotPrefix = "Green_Energy_Program_Grants_"

// snapshotExt is the extension every snapshot carries.
const snapshotExt = ".csv"

// Snapshot is a dated CSV blob holding a copy of the dataset.
type Snapshot struct {
	// Name is the blob name, e.g. Green_Energy_Program_Grants_2024-03-01.csv.
	Name string

	// Date is the date embedded in the name.
	Date time.Time

	// LastModified is when the blob store last wrote the object.
	// Zero when not yet fetched.
	LastModified time.Time
}

// SnapshotName builds the blob name for a snapshot published on day.
func SnapshotName(prefix string, day time.Time) string {
	return prefix + day.Format(time.DateOnly) + snapshotExt
}

// ParseSnapshotDate extracts the date from a name ending in _YYYY-MM-DD.csv.
func ParseSnapshotDate(name string) (time.Time, error) {
	base := path.Base(name)
	idx := strings.LastIndex(base, "_")
	if idx < 0 || !strings.HasSuffix(base, snapshotExt) {
		return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedSnapshotName, name)
	}

	datePart := strings.TrimSuffix(base[idx+1:], snapshotExt)
	date, err := time.Parse(time.DateOnly, datePart)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedSnapshotName, name)
	}
	return date, nil
}

// SnapshotCandidates filters names down to snapshots published under prefix.
// Only names continuing with a 20xx year are candidates, so unrelated
// objects sharing the prefix are ignored.
func SnapshotCandidates(names []string, prefix string) []string {
	var out []string
	for _, name := range names {
		if strings.HasPrefix(path.Base(name), prefix+"20") {
			out = append(out, name)
		}
	}
	return out
}

// MostRecentFile returns the name with the latest embedded date.
// Every name must end in _YYYY-MM-DD.csv; a malformed name is an error,
// never skipped. On equal dates the first name wins.
func MostRecentFile(names []string) (*Snapshot, error) {
	if len(names) == 0 {
		return nil, ErrNoSnapshot
	}

	var best *Snapshot
	for _, name := range names {
		date, err := ParseSnapshotDate(name)
		if err != nil {
			return nil, err
		}
		if best == nil || date.After(best.Date) {
			best = &Snapshot{Name: name, Date: date}
		}
	}
	return best, nil
}
