package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/stockflow/internal/stockflow"
)

const (
	metadataFile   = "metadata.json"
	trajectoryFile = "trajectory.csv"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID         string             `json:"id"`
	Model      string             `json:"model"`
	Timestamp  time.Time          `json:"timestamp"`
	Steps      int                `json:"steps"`
	States     int                `json:"states"`
	Columns    []string           `json:"columns"`
	Parameters map[string]float64 `json:"parameters"`
	Markers    []int              `json:"markers,omitempty"`
}

// NewMetadata describes a finished run of m.
func NewMetadata(m *stockflow.Model, table *stockflow.Table) RunMetadata {
	return RunMetadata{
		Model:      m.Name(),
		Steps:      len(table.Rows),
		States:     m.NumStates(),
		Columns:    table.Columns,
		Parameters: m.Parameters(),
		Markers:    m.ScheduledSteps(),
	}
}

// Save writes the run under a fresh id and returns it.
func (s *Store) Save(meta RunMetadata, table *stockflow.Table) (string, error) {
	now := time.Now()
	meta.ID = fmt.Sprintf("%s_%d", meta.Model, now.UnixNano())
	meta.Timestamp = now
	runDir := filepath.Join(s.baseDir, meta.ID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	metaFile, err := os.Create(filepath.Join(runDir, metadataFile))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, trajectoryFile))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	if err := WriteCSV(csvFile, table); err != nil {
		return "", err
	}

	return meta.ID, nil
}

func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// LoadTable reads the trajectory of a run back into a table. The step column
// is dropped; rows are in step order.
func (s *Store) LoadTable(runID string) (*stockflow.Table, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, trajectoryFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	if len(records) == 0 {
		return &stockflow.Table{Columns: []string{}, Rows: [][]float64{}}, nil
	}

	table := &stockflow.Table{
		Columns: append([]string(nil), records[0][1:]...),
		Rows:    make([][]float64, 0, len(records)-1),
	}

	for i := 1; i < len(records); i++ {
		record := records[i]
		if len(record) == 0 {
			continue
		}

		row := make([]float64, 0, len(record)-1)
		for j := 1; j < len(record); j++ {
			val, err := strconv.ParseFloat(record[j], 64)
			if err != nil {
				return nil, fmt.Errorf("%s line %d column %q: %w", trajectoryFile, i+1, records[0][j], err)
			}
			row = append(row, val)
		}
		table.Rows = append(table.Rows, row)
	}

	return table, nil
}
