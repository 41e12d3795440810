package catalog

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/poiesic/recommendit/core"
)

// ScoreColumn is the name of the computed score column in exported tables.
const ScoreColumn = "score"

// ExportColumns lists the exported columns in order.
var ExportColumns = []string{
	ColumnProduct,
	ColumnDescription,
	ColumnJobLevels,
	ColumnDuration,
	ColumnCategory,
	ColumnKeywords,
	ScoreColumn,
}

// WriteCSV writes recommendations as a flat comma-separated table with a header row.
// An empty slice produces a header-only table.
func WriteCSV(w io.Writer, recs []core.Recommendation) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ExportColumns); err != nil {
		return err
	}
	for _, rec := range recs {
		row := []string{
			rec.Item.ProductName,
			rec.Item.Description,
			rec.Item.JobLevels,
			strconv.FormatFloat(rec.Item.DurationMinutes, 'f', -1, 64),
			rec.Item.Category,
			rec.Item.Keywords,
			strconv.FormatFloat(float64(rec.Score), 'f', -1, 32),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
