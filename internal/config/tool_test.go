package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/fgmax/internal/fgmax"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestEmptyToolConfig_Defaults(t *testing.T) {
	t.Parallel()

	cfg := EmptyToolConfig()
	assert.Equal(t, "fgmax_grids.data", cfg.GetDataFile())
	assert.Equal(t, "_output", cfg.GetOutDir())
	assert.Equal(t, "fgmax", cfg.GetResultsPrefix())
	assert.Equal(t, fgmax.IndexingIJ, cfg.GetIndexing())
	assert.Equal(t, "mps", cfg.GetSpeedUnits())
	assert.Equal(t, "m", cfg.GetDepthUnits())
	w, h := cfg.GetPlotSize()
	assert.Equal(t, 8.0, w)
	assert.Equal(t, 6.0, h)
	assert.Equal(t, 64, cfg.GetPaletteSize())
	assert.Equal(t, "fgmax.db", cfg.GetArchivePath())
	assert.False(t, cfg.GetVerbose())
	assert.NoError(t, cfg.Validate())
}

func TestLoadToolConfig(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "tool.json", `{
  "outdir": "run1/_output",
  "indexing": "XY",
  "speed_units": "knots",
  "depth_units": "ft",
  "plot_width_in": 10,
  "verbose": true
}`)
	cfg, err := LoadToolConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "run1/_output", cfg.GetOutDir())
	assert.Equal(t, fgmax.IndexingXY, cfg.GetIndexing())
	assert.Equal(t, "knots", cfg.GetSpeedUnits())
	assert.Equal(t, "ft", cfg.GetDepthUnits())
	w, h := cfg.GetPlotSize()
	assert.Equal(t, 10.0, w)
	assert.Equal(t, 6.0, h, "omitted fields keep defaults")
	assert.True(t, cfg.GetVerbose())
	assert.Equal(t, "fgmax_grids.data", cfg.GetDataFile())
}

func TestLoadToolConfig_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		file    string
		body    string
		wantErr string
	}{
		{"wrong extension", "tool.yaml", `{}`, ".json extension"},
		{"bad json", "tool.json", `{"outdir": `, "failed to parse"},
		{"bad indexing", "tool.json", `{"indexing": "ji"}`, "invalid configuration"},
		{"bad speed units", "tool.json", `{"speed_units": "furlongs"}`, "speed_units"},
		{"bad depth units", "tool.json", `{"depth_units": "fathoms"}`, "depth_units"},
		{"bad plot size", "tool.json", `{"plot_height_in": 0}`, "plot_height_in"},
		{"bad palette", "tool.json", `{"palette_size": 1}`, "palette_size"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadToolConfig(writeConfig(t, tt.file, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	_, err := LoadToolConfig(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorContains(t, err, "failed to stat")
}

func TestLoadToolConfig_TooLarge(t *testing.T) {
	t.Parallel()

	body := `{"outdir": "` + strings.Repeat("x", 1024*1024) + `"}`
	_, err := LoadToolConfig(writeConfig(t, "big.json", body))
	assert.ErrorContains(t, err, "too large")
}

func TestLoadToolConfig_DefaultsFile(t *testing.T) {
	t.Parallel()

	cfg, err := LoadToolConfig(filepath.Join("..", "..", DefaultConfigPath))
	require.NoError(t, err)
	assert.Equal(t, EmptyToolConfig().GetOutDir(), cfg.GetOutDir())
	assert.Equal(t, EmptyToolConfig().GetPaletteSize(), cfg.GetPaletteSize())
	assert.Equal(t, fgmax.IndexingIJ, cfg.GetIndexing())
}
