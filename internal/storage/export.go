package storage

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"strconv"

	"github.com/san-kum/stockflow/internal/stockflow"
)

type ExportData struct {
	Model      string             `json:"model"`
	Steps      int                `json:"steps"`
	Columns    []string           `json:"columns"`
	Parameters map[string]float64 `json:"parameters,omitempty"`
	Markers    []int              `json:"markers,omitempty"`
	Rows       [][]float64        `json:"rows"`
}

// WriteCSV writes a header of "step" followed by the table columns, then one
// line per step. Values keep full precision so a reload is exact.
func WriteCSV(w io.Writer, table *stockflow.Table) error {
	cw := csv.NewWriter(w)

	header := append([]string{"step"}, table.Columns...)
	if err := cw.Write(header); err != nil {
		return err
	}

	for i, row := range table.Rows {
		line := make([]string, 0, len(row)+1)
		line = append(line, strconv.Itoa(i))
		for _, val := range row {
			line = append(line, strconv.FormatFloat(val, 'g', -1, 64))
		}
		if err := cw.Write(line); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func ExportJSON(w io.Writer, meta RunMetadata, table *stockflow.Table) error {
	data := ExportData{
		Model:      meta.Model,
		Steps:      len(table.Rows),
		Columns:    table.Columns,
		Parameters: meta.Parameters,
		Markers:    meta.Markers,
		Rows:       table.Rows,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func ExportJSONFile(path string, meta RunMetadata, table *stockflow.Table) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return ExportJSON(file, meta, table)
}
