package compare

import (
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/banshee-data/predcompare/internal/monitoring"
	"github.com/banshee-data/predcompare/internal/prediction"
)

// Index maps record filepaths to flattened rows, remembering the order in
// which identifiers were first seen. It is read-only once built.
type Index struct {
	order      []string
	rows       map[string]Row
	duplicates int
}

// BuildIndex flattens every record and indexes it by filepath in a single
// pass. A filepath seen more than once keeps its first position but the
// later record's row replaces the earlier one.
//
// Schema errors from every record are collected so the returned error names
// each offending identifier.
func BuildIndex(records []prediction.Record, cfg Config) (*Index, error) {
	idx := &Index{
		order: make([]string, 0, len(records)),
		rows:  make(map[string]Row, len(records)),
	}

	var errs *multierror.Error
	for i, rec := range records {
		if rec.FilePath == "" {
			errs = multierror.Append(errs, &SchemaError{Err: fmt.Errorf("record %d has no filepath", i)})
			continue
		}
		row, err := Flatten(rec, cfg)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		if _, seen := idx.rows[rec.FilePath]; seen {
			idx.duplicates++
			monitoring.Debugf("duplicate filepath %q at record %d replaces earlier record", rec.FilePath, i)
		} else {
			idx.order = append(idx.order, rec.FilePath)
		}
		idx.rows[rec.FilePath] = row
	}

	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	if idx.duplicates > 0 {
		monitoring.Logf("%d duplicate filepaths found, the last occurrence of each wins", idx.duplicates)
	}
	return idx, nil
}

// Lookup returns the row indexed under id.
func (idx *Index) Lookup(id string) (Row, bool) {
	row, ok := idx.rows[id]
	return row, ok
}

// Identifiers returns the indexed filepaths in first-seen order.
func (idx *Index) Identifiers() []string {
	return append([]string(nil), idx.order...)
}

// Len returns the number of distinct identifiers.
func (idx *Index) Len() int { return len(idx.order) }

// Duplicates returns how many records replaced an earlier record with the
// same filepath.
func (idx *Index) Duplicates() int { return idx.duplicates }
