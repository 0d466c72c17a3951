package report

import (
	"cmp"
	"slices"

	"github.com/Sumatoshi-tech/scmlog/pkg/aggregate"
	"github.com/Sumatoshi-tech/scmlog/pkg/metrics"
)

// Row is one ranked file.
type Row struct {
	File   string
	Values map[metrics.Kind]int64
}

// Rank orders files by the value of kind, highest first, then by name. Files
// without a value for kind rank last. top <= 0 keeps every file.
func Rank(snap aggregate.Snapshot, kind metrics.Kind, top int) []Row {
	rows := make([]Row, 0, len(snap))

	for file, values := range snap {
		rows = append(rows, Row{File: file, Values: values})
	}

	slices.SortFunc(rows, func(a, b Row) int {
		aValue, aOK := a.Values[kind]
		bValue, bOK := b.Values[kind]

		if aOK != bOK {
			if aOK {
				return -1
			}

			return 1
		}

		byValue := cmp.Compare(bValue, aValue)
		if byValue != 0 {
			return byValue
		}

		return cmp.Compare(a.File, b.File)
	})

	if top > 0 && len(rows) > top {
		rows = rows[:top]
	}

	return rows
}
