package driven

import (
	"io"

	"github.com/custodia-labs/grantsync/internal/core/domain"
)

// DatasetCodec converts snapshots between their stored form and a Dataset.
type DatasetCodec interface {
	// Decode parses a stored snapshot.
	Decode(data []byte) (*domain.Dataset, error)

	// Encode writes the dataset to w. When withIndex is set, a leading
	// unnamed 0-based row index column is written.
	Encode(w io.Writer, ds *domain.Dataset, withIndex bool) error
}
