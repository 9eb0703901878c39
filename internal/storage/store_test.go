package storage

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	require.NoError(t, st.Init())

	res := sampleResult(t)
	runID, err := st.Save("baseline", "rk45", res)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(runID, "baseline_"), runID)

	meta, err := st.Load(runID)
	require.NoError(t, err)
	assert.Equal(t, "baseline", meta.Scenario)
	assert.Equal(t, "rk45", meta.Integrator)
	assert.Equal(t, 3, meta.Points)
	assert.Equal(t, 2, meta.Steps)
	assert.Equal(t, 0.2, meta.TEnd)
	assert.Equal(t, 1.0, meta.Metrics["min_volume"])

	_, back, err := st.LoadResult(runID)
	require.NoError(t, err)
	assert.Equal(t, res.Times, back.Times)
	assert.Equal(t, res.States, back.States)
	assert.Equal(t, res.Metrics, back.Metrics)
	assert.Equal(t, 2, back.StepsTaken)
}

func TestStoreFileStructure(t *testing.T) {
	dir := t.TempDir()
	st := New(dir)
	require.NoError(t, st.Init())

	runID, err := st.Save("steady", "rk4", sampleResult(t))
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(dir, runID, "metadata.json"))
	assert.FileExists(t, filepath.Join(dir, runID, "data.txt"))
	assert.Equal(t, filepath.Join(dir, runID, "data.txt"), st.DataPath(runID))
}

func TestStoreSave_FailedWriteLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	st := New(dir)
	require.NoError(t, st.Init())

	res := sampleResult(t)
	res.Schedule = nil
	_, err := st.Save("baseline", "rk45", res)
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStoreList(t *testing.T) {
	dir := t.TempDir()
	st := New(dir)

	runs, err := st.List()
	require.NoError(t, err)
	assert.Empty(t, runs)

	require.NoError(t, st.Init())
	first, err := st.Save("baseline", "rk45", sampleResult(t))
	require.NoError(t, err)
	second, err := st.Save("baseline", "rk45", sampleResult(t))
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	require.NoError(t, os.Mkdir(filepath.Join(dir, "junk"), 0755))

	runs, err = st.List()
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestStoreLoad_Missing(t *testing.T) {
	st := New(t.TempDir())
	_, err := st.Load("nope")
	assert.ErrorIs(t, err, ErrRunNotFound)

	_, _, err = st.LoadResult("nope")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestCopyTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data_tBE.txt")
	require.NoError(t, CopyTable(path, sampleResult(t)))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := ReadTable(f)
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestExportJSON(t *testing.T) {
	res := sampleResult(t)
	meta := &RunMetadata{ID: "baseline_1", Scenario: "baseline", Integrator: "rk45"}

	var buf bytes.Buffer
	require.NoError(t, ExportJSON(&buf, meta, res))

	var data ExportData
	require.NoError(t, json.Unmarshal(buf.Bytes(), &data))
	assert.Equal(t, "baseline_1", data.ID)
	assert.Equal(t, 3, data.Points)
	assert.Equal(t, []float64{5.2, 5.2, 5.1}, data.Inputs["inlet_flow"])
	assert.Equal(t, []float64{300, 300, 325}, data.Inputs["feed_temperature"])
	assert.Len(t, data.States, 3)
	assert.Equal(t, 1.0, data.Metrics["min_volume"])
}
