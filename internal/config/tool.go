package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/banshee-data/fgmax/internal/fgmax"
	"github.com/banshee-data/fgmax/internal/units"
)

// DefaultConfigPath is the path to the canonical tool defaults file.
const DefaultConfigPath = "config/fgmax.defaults.json"

// ToolConfig holds defaults for the fgmax command line tool. Every field is
// optional; flags given on the command line override it.
type ToolConfig struct {
	DataFile      *string `json:"data_file,omitempty"`
	OutDir        *string `json:"outdir,omitempty"`
	ResultsPrefix *string `json:"results_prefix,omitempty"`
	Indexing      *string `json:"indexing,omitempty"` // "ij" or "xy"

	SpeedUnits *string `json:"speed_units,omitempty"`
	DepthUnits *string `json:"depth_units,omitempty"`

	// Plot params
	PlotWidthIn  *float64 `json:"plot_width_in,omitempty"`
	PlotHeightIn *float64 `json:"plot_height_in,omitempty"`
	PaletteSize  *int     `json:"palette_size,omitempty"`

	ArchivePath *string `json:"archive_path,omitempty"`
	Verbose     *bool   `json:"verbose,omitempty"`
}

// EmptyToolConfig returns a ToolConfig with all fields set to nil.
func EmptyToolConfig() *ToolConfig {
	return &ToolConfig{}
}

// LoadToolConfig loads a ToolConfig from a JSON file.
// The file must have a .json extension and be under 1MB. Fields omitted from
// the file fall back to the Get* defaults.
func LoadToolConfig(path string) (*ToolConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyToolConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *ToolConfig) Validate() error {
	if c.Indexing != nil {
		if _, err := fgmax.ParseIndexing(*c.Indexing); err != nil {
			return err
		}
	}
	if c.SpeedUnits != nil && !units.IsValid(*c.SpeedUnits) {
		return fmt.Errorf("speed_units must be one of %s, got %q", units.GetValidUnitsString(), *c.SpeedUnits)
	}
	if c.DepthUnits != nil && !units.IsValidDepth(*c.DepthUnits) {
		return fmt.Errorf("depth_units must be one of %s, got %q", units.GetValidDepthUnitsString(), *c.DepthUnits)
	}
	if c.PlotWidthIn != nil && *c.PlotWidthIn <= 0 {
		return fmt.Errorf("plot_width_in must be positive, got %g", *c.PlotWidthIn)
	}
	if c.PlotHeightIn != nil && *c.PlotHeightIn <= 0 {
		return fmt.Errorf("plot_height_in must be positive, got %g", *c.PlotHeightIn)
	}
	if c.PaletteSize != nil && (*c.PaletteSize < 2 || *c.PaletteSize > 1024) {
		return fmt.Errorf("palette_size must be between 2 and 1024, got %d", *c.PaletteSize)
	}
	return nil
}

// GetDataFile returns the data_file value or the default.
func (c *ToolConfig) GetDataFile() string {
	if c.DataFile == nil || *c.DataFile == "" {
		return fgmax.DefaultDataFile
	}
	return *c.DataFile
}

// GetOutDir returns the outdir value or the default.
func (c *ToolConfig) GetOutDir() string {
	if c.OutDir == nil || *c.OutDir == "" {
		return fgmax.DefaultOutDir
	}
	return *c.OutDir
}

// GetResultsPrefix returns the results_prefix value or the default.
func (c *ToolConfig) GetResultsPrefix() string {
	if c.ResultsPrefix == nil || *c.ResultsPrefix == "" {
		return fgmax.DefaultPrefix
	}
	return *c.ResultsPrefix
}

// GetIndexing parses indexing, falling back to ij on absence or parse error.
func (c *ToolConfig) GetIndexing() fgmax.Indexing {
	if c.Indexing == nil {
		return fgmax.IndexingIJ
	}
	ix, err := fgmax.ParseIndexing(*c.Indexing)
	if err != nil {
		return fgmax.IndexingIJ
	}
	return ix
}

func (c *ToolConfig) GetSpeedUnits() string {
	if c.SpeedUnits == nil {
		return units.MPS
	}
	return *c.SpeedUnits
}

func (c *ToolConfig) GetDepthUnits() string {
	if c.DepthUnits == nil {
		return units.Meters
	}
	return *c.DepthUnits
}

// GetPlotSize returns the plot width and height in inches.
func (c *ToolConfig) GetPlotSize() (width, height float64) {
	width, height = 8, 6
	if c.PlotWidthIn != nil {
		width = *c.PlotWidthIn
	}
	if c.PlotHeightIn != nil {
		height = *c.PlotHeightIn
	}
	return width, height
}

// GetPaletteSize returns the palette_size value or the default.
func (c *ToolConfig) GetPaletteSize() int {
	if c.PaletteSize == nil {
		return 64
	}
	return *c.PaletteSize
}

// GetArchivePath returns the archive_path value or the default.
func (c *ToolConfig) GetArchivePath() string {
	if c.ArchivePath == nil || *c.ArchivePath == "" {
		return "fgmax.db"
	}
	return *c.ArchivePath
}

func (c *ToolConfig) GetVerbose() bool {
	return c.Verbose != nil && *c.Verbose
}
