package journal

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterWrite(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)
	w.nowFn = func() time.Time { return time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC) }

	path, err := w.Write(&Report{Kind: "comparison", Success: true, Summary: map[string]any{"winner": "Swiggy"}})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "comparison_20240301_093000_00001.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got Report
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, 1, got.Sequence)
	assert.True(t, got.Success)

	path, err = w.Write(&Report{})
	require.NoError(t, err)
	assert.Contains(t, filepath.Base(path), "run_")
}

func TestNilWriterDiscards(t *testing.T) {
	w := NewWriter("  ")
	require.Nil(t, w)
	path, err := w.Write(&Report{Kind: "x"})
	assert.NoError(t, err)
	assert.Empty(t, path)
}
