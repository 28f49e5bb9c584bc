package valuation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFormulaTable_EmptyPathReturnsDefaults(t *testing.T) {
	table, err := LoadFormulaTable("")
	require.NoError(t, err)

	laptop, ok := table["laptop"]
	require.True(t, ok)
	assert.Equal(t, 300, laptop.BaseValue)
	assert.InDelta(t, 1200.0, laptop.WaterPerKg, 0.001)
}

func TestLoadFormulaTable_OverlaysFileEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "formulas.yaml")
	content := []byte(`
laptop:
  base_value: 500
  water_per_kg: 1000
  co2_per_kg: 4.0
  toxic_per_kg: 0.2
  points_per_kg: 20
ebike:
  base_value: 900
  water_per_kg: 300
  co2_per_kg: 12.0
  toxic_per_kg: 0.5
  points_per_kg: 40
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	table, err := LoadFormulaTable(path)
	require.NoError(t, err)

	// Overridden entry wins, new entry is added, untouched defaults remain.
	assert.Equal(t, 500, table["laptop"].BaseValue)
	assert.Equal(t, 900, table["ebike"].BaseValue)
	assert.Equal(t, 250, table["smartphone"].BaseValue)
}

func TestLoadFormulaTable_MissingFileErrors(t *testing.T) {
	_, err := LoadFormulaTable("/nonexistent/formulas.yaml")
	assert.Error(t, err)
}
