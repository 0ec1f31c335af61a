package fgmax

import (
	"errors"
	"fmt"
	"io/fs"
)

// Callers classify failures with errors.Is against these values.
var (
	// ErrGridNotFound: the requested fgno has no block in the data file.
	ErrGridNotFound = errors.New("fgmax grid not found")

	// ErrPointStyleUnset: the grid has no geometry yet.
	ErrPointStyleUnset = errors.New("fgmax point_style is not set")

	// ErrUnsupportedPointStyle: point_style outside 0..4.
	ErrUnsupportedPointStyle = errors.New("fgmax point_style not supported")

	// ErrConfig: a required attribute is missing or inconsistent.
	ErrConfig = errors.New("fgmax configuration error")

	// ErrResultsNotFound: the fgmaxNNNN.txt output file does not exist.
	ErrResultsNotFound = fmt.Errorf("fgmax results not found: %w", fs.ErrNotExist)

	// ErrColumnCount: the results table width is not 7, 9 or 15.
	ErrColumnCount = errors.New("unexpected number of columns in fgmax results")

	// ErrFormat: a descriptor or results file does not have the expected layout.
	ErrFormat = errors.New("fgmax format error")

	// ErrRemap: point_style 4 results could not be placed on the reference grid.
	ErrRemap = errors.New("fgmax remap failed")
)
