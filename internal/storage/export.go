package storage

import (
	"encoding/json"
	"io"
	"os"
)

type ExportData struct {
	RunMetadata
	Steps  int         `json:"steps"`
	Times  []float64   `json:"times"`
	States [][]float64 `json:"states"`
}

func (s *Store) export(runID string) (*ExportData, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}
	series, err := s.LoadStates(runID)
	if err != nil {
		return nil, err
	}
	return &ExportData{
		RunMetadata: *meta,
		Steps:       len(series.Times),
		Times:       series.Times,
		States:      series.Rows,
	}, nil
}

// ExportJSON writes a run as one JSON document to w.
func (s *Store) ExportJSON(runID string, w io.Writer) error {
	data, err := s.export(runID)
	if err != nil {
		return err
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// ExportJSONFile is ExportJSON into a new file at path.
func (s *Store) ExportJSONFile(runID, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return s.ExportJSON(runID, file)
}
