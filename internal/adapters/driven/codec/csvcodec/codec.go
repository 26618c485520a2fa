package csvcodec

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/custodia-labs/grantsync/internal/core/domain"
	"github.com/custodia-labs/grantsync/internal/core/ports/driven"
)

// Ensure Codec implements the interface.
var _ driven.DatasetCodec = (*Codec)(nil)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Codec reads and writes datasets as comma separated values with a header row.
type Codec struct{}

// New creates a CSV codec.
func New() *Codec {
	return &Codec{}
}

// Decode parses a CSV document. Empty input yields an empty dataset.
func (c *Codec) Decode(data []byte) (*domain.Dataset, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return domain.NewDataset(nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	// Leading unnamed column is the written index.
	offset := 0
	if len(header) > 0 && header[0] == "" {
		offset = 1
	}
	columns := append([]string(nil), header[offset:]...)

	ds := domain.NewDataset(columns)
	for {
		fields, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", ds.Len()+1, err)
		}

		rec := make(domain.Record, len(columns))
		for i, col := range columns {
			if j := i + offset; j < len(fields) {
				rec[col] = fields[j]
			} else {
				rec[col] = ""
			}
		}
		ds.Records = append(ds.Records, rec)
	}

	return ds, nil
}

// Encode writes the dataset with a header row. withIndex prefixes every row
// with its position, under an empty header.
func (c *Codec) Encode(w io.Writer, ds *domain.Dataset, withIndex bool) error {
	if ds == nil {
		ds = domain.NewDataset(nil)
	}

	cw := csv.NewWriter(w)

	width := len(ds.Columns)
	if withIndex {
		width++
	}
	row := make([]string, width)

	offset := 0
	if withIndex {
		row[0] = ""
		offset = 1
	}
	copy(row[offset:], ds.Columns)
	if err := cw.Write(row); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, rec := range ds.Records {
		if withIndex {
			row[0] = strconv.Itoa(i)
		}
		for j, col := range ds.Columns {
			row[j+offset] = rec[col]
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
