package store

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/rdsweep/internal/storage"
	"github.com/san-kum/rdsweep/internal/sweep"
)

type ExportData struct {
	ID       string               `json:"id"`
	Name     string               `json:"name"`
	Template string               `json:"template"`
	Command  []string             `json:"command"`
	Plan     string               `json:"plan"`
	Columns  []string             `json:"columns"`
	Rows     []map[string]float64 `json:"rows"`
}

func newExportData(meta *storage.RunMetadata, table *sweep.Table) ExportData {
	data := ExportData{
		Columns: table.Header,
		Rows:    make([]map[string]float64, len(table.Rows)),
	}
	if meta != nil {
		data.ID = meta.ID
		data.Name = meta.Name
		data.Template = meta.Template
		data.Command = meta.Command
		data.Plan = meta.Plan
	}

	for i, row := range table.Rows {
		obj := make(map[string]float64, len(row))
		for j, v := range row {
			obj[table.Header[j]] = v
		}
		data.Rows[i] = obj
	}
	return data
}

// ExportJSON writes the table as an array of objects keyed by column name.
func ExportJSON(w io.Writer, meta *storage.RunMetadata, table *sweep.Table) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(newExportData(meta, table))
}

func ExportJSONFile(path string, meta *storage.RunMetadata, table *sweep.Table) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return ExportJSON(file, meta, table)
}
