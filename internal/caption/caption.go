// Package caption loads the caption combinations a batch renders.
// Each CSV row is one combination: an ordered list of text segments
// shown sequentially across the video.
package caption

import (
	"encoding/csv"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// Combination is an ordered list of non-empty caption segments.
type Combination []string

// LoadCombinations parses a CSV file into combinations. The reader is
// BOM-tolerant; blank cells and whitespace-only rows are skipped.
func LoadCombinations(path string) ([]Combination, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open captions csv %s", path)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	rows, err := r.ReadAll()
	if err != nil {
		return nil, errors.Wrapf(err, "read captions csv %s", path)
	}

	var combos []Combination
	for i, row := range rows {
		var segs Combination
		for j, cell := range row {
			if i == 0 && j == 0 {
				cell = strings.TrimPrefix(cell, "\uFEFF")
			}
			cell = strings.TrimSpace(cell)
			if cell != "" {
				segs = append(segs, cell)
			}
		}
		if len(segs) > 0 {
			combos = append(combos, segs)
		}
	}
	return combos, nil
}
