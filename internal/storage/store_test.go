package storage

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/stockflow/internal/stockflow"
)

func decayRun(t *testing.T) (*stockflow.Model, *stockflow.Table) {
	t.Helper()
	m := stockflow.New("decay")
	a := m.AddState("A", 100, "")
	b := m.AddState("B", 0, "")
	m.SetParameter("k", 0.1)
	_, err := m.AddTransition(a, b, func(args ...float64) (float64, error) { return args[0] * args[1], nil },
		stockflow.ParamRef("k"), stockflow.StateRef(a))
	require.NoError(t, err)
	m.On(stockflow.AtStep(1), func(*stockflow.Model, int) error { return nil })

	table, err := m.RunTable(3)
	require.NoError(t, err)
	return m, table
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	require.NoError(t, st.Init())

	m, table := decayRun(t)
	runID, err := st.Save(NewMetadata(m, table), table)
	require.NoError(t, err)
	assert.NotEmpty(t, runID)

	meta, err := st.Load(runID)
	require.NoError(t, err)
	assert.Equal(t, runID, meta.ID)
	assert.Equal(t, "decay", meta.Model)
	assert.Equal(t, 3, meta.Steps)
	assert.Equal(t, 2, meta.States)
	assert.Equal(t, []string{"A", "B", "A to B"}, meta.Columns)
	assert.Equal(t, 0.1, meta.Parameters["k"])
	assert.Equal(t, []int{1}, meta.Markers)

	loaded, err := st.LoadTable(runID)
	require.NoError(t, err)
	assert.Equal(t, table.Columns, loaded.Columns)
	assert.Equal(t, table.Rows, loaded.Rows)
}

func TestStoreList(t *testing.T) {
	st := New(t.TempDir())
	require.NoError(t, st.Init())

	runs, err := st.List()
	require.NoError(t, err)
	assert.Empty(t, runs)

	m, table := decayRun(t)
	first, err := st.Save(NewMetadata(m, table), table)
	require.NoError(t, err)
	second, err := st.Save(NewMetadata(m, table), table)
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	runs, err = st.List()
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, first, runs[0].ID)
	assert.Equal(t, second, runs[1].ID)
}

func TestStoreListMissingDir(t *testing.T) {
	st := New(filepath.Join(t.TempDir(), "absent"))
	runs, err := st.List()
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestStoreFileStructure(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)
	require.NoError(t, st.Init())

	m, table := decayRun(t)
	runID, err := st.Save(NewMetadata(m, table), table)
	require.NoError(t, err)

	for _, name := range []string{"metadata.json", "trajectory.csv"} {
		_, err := os.Stat(filepath.Join(tmpDir, runID, name))
		assert.NoError(t, err, name)
	}
}

func TestWriteCSV(t *testing.T) {
	table := &stockflow.Table{
		Columns: []string{"A", "A to B"},
		Rows:    [][]float64{{90, 10}, {81, 9}},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, table))
	assert.Equal(t, "step,A,A to B\n0,90,10\n1,81,9\n", buf.String())
}

func TestExportJSON(t *testing.T) {
	m, table := decayRun(t)

	var buf bytes.Buffer
	require.NoError(t, ExportJSON(&buf, NewMetadata(m, table), table))

	var data ExportData
	require.NoError(t, json.Unmarshal(buf.Bytes(), &data))
	assert.Equal(t, "decay", data.Model)
	assert.Equal(t, 3, data.Steps)
	assert.Equal(t, table.Rows, data.Rows)
	assert.Equal(t, []int{1}, data.Markers)

	path := filepath.Join(t.TempDir(), "run.json")
	require.NoError(t, ExportJSONFile(path, NewMetadata(m, table), table))
	_, err := os.Stat(path)
	assert.NoError(t, err)
}
